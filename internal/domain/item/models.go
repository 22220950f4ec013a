package item

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound = errors.New("item not found")
	// ErrItemExists is returned when the user already linked the institution.
	ErrItemExists = errors.New("item for institution exists for user")
	ErrForbidden  = errors.New("access forbidden")
)

// Item is a user's linked credential set at one institution. AccessToken is
// plaintext in memory; the repository encrypts it at rest.
type Item struct {
	ID                    string    `json:"id"`
	UserID                int64     `json:"user"`
	InstitutionID         string    `json:"institution"`
	ExternalInstitutionID string    `json:"institution_id"`
	InstitutionName       string    `json:"institution_name"`
	ItemID                string    `json:"item_id"`
	AccessToken           string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
}

type NewItem struct {
	UserID        int64
	InstitutionID string
	ItemID        string
	AccessToken   string
}
