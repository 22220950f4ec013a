package account

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxFieldLength bounds every free-text column.
const MaxFieldLength = 100

// Domain errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrForbidden       = errors.New("access forbidden")
	ErrInvalidInput    = errors.New("invalid input")
)

// Account is a persisted financial account belonging to an item.
type Account struct {
	ID               string    `json:"id"`
	ItemID           string    `json:"item"`
	AccountID        string    `json:"account_id"`
	Name             string    `json:"name"`
	AccountType      string    `json:"account_type"`
	AccountSubtype   string    `json:"account_subtype"`
	AvailableBalance float64   `json:"available_balance"`
	CurrentBalance   float64   `json:"current_balance"`
	CreatedAt        time.Time `json:"created_at"`

	// UserID is the owner of the parent item; loaded for ownership checks.
	UserID int64 `json:"-"`
}

// Key is the natural key of an account: unique per item.
type Key struct {
	ItemID    string
	AccountID string
}

// NewAccount is a normalized account ready to be inserted.
type NewAccount struct {
	ItemID           string
	AccountID        string
	Name             string
	AccountType      string
	AccountSubtype   string
	AvailableBalance float64
	CurrentBalance   float64
}

func (a NewAccount) Key() Key {
	return Key{ItemID: a.ItemID, AccountID: a.AccountID}
}

// Validate applies the column constraints of the accounts table.
func (a NewAccount) Validate() error {
	if a.ItemID == "" {
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}
	if a.AccountID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	for _, f := range []struct{ name, value string }{
		{"account id", a.AccountID},
		{"name", a.Name},
		{"type", a.AccountType},
		{"subtype", a.AccountSubtype},
	} {
		if len(f.value) > MaxFieldLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, f.name, MaxFieldLength)
		}
	}
	if !isFinite(a.AvailableBalance) || !isFinite(a.CurrentBalance) {
		return fmt.Errorf("%w: balances must be finite", ErrInvalidInput)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
