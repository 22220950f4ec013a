package transaction

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxFieldLength bounds every free-text column.
const MaxFieldLength = 100

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidInput        = errors.New("invalid input")
)

// Transaction is a persisted transaction. Rows are never updated; a
// correction is a delete followed by a fresh sync.
type Transaction struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account"`
	TransactionID    string    `json:"transaction_id"`
	Amount           float64   `json:"amount"`
	Date             Date      `json:"date"`
	Name             string    `json:"name"`
	PaymentChannel   string    `json:"payment_channel"`
	PrimaryCategory  string    `json:"primary_category"`
	DetailedCategory string    `json:"detailed_category"`
	CreatedAt        time.Time `json:"created_at"`

	UserID int64 `json:"-"`
}

// NewTransaction is a normalized transaction ready to be inserted. AccountID
// is the surrogate id of an already persisted account.
type NewTransaction struct {
	AccountID        string
	TransactionID    string
	Amount           float64
	Date             time.Time
	Name             string
	PaymentChannel   string
	PrimaryCategory  string
	DetailedCategory string
}

// Key returns the natural key, globally unique across accounts.
func (t NewTransaction) Key() string {
	return t.TransactionID
}

func (t NewTransaction) Validate() error {
	if t.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	if t.TransactionID == "" {
		return fmt.Errorf("%w: transaction id is required", ErrInvalidInput)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("%w: amount must be finite", ErrInvalidInput)
	}
	for _, f := range []struct{ name, value string }{
		{"transaction id", t.TransactionID},
		{"name", t.Name},
		{"payment channel", t.PaymentChannel},
		{"primary category", t.PrimaryCategory},
		{"detailed category", t.DetailedCategory},
	} {
		if len(f.value) > MaxFieldLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, f.name, MaxFieldLength)
		}
	}
	return nil
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// Truncate returns t as midnight UTC of its calendar day.
func Truncate(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
