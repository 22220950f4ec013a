package institution

import (
	"errors"
	"time"
)

var ErrInstitutionNotFound = errors.New("institution not found")

// Institution is a financial institution as identified by the aggregation
// provider. Rows are immutable once created.
type Institution struct {
	ID            string    `json:"id"`
	InstitutionID string    `json:"institution_id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
}
