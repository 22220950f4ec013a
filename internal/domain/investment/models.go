package investment

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const MaxFieldLength = 100

var (
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrInvalidInput       = errors.New("invalid input")
)

// Investment is a holding of one security in one account, denormalized with
// the security's display fields.
type Investment struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account"`
	SecurityID     string    `json:"security_id"`
	SecurityName   string    `json:"security_name"`
	SecurityTicker string    `json:"security_ticker"`
	Price          float64   `json:"price"`
	PriceAsOf      Date      `json:"price_as_of"`
	CostBasis      float64   `json:"cost_basis"`
	Quantity       float64   `json:"quantity"`
	CreatedAt      time.Time `json:"created_at"`

	UserID int64 `json:"-"`
}

// Key is the natural key of a holding.
type Key struct {
	AccountID  string
	SecurityID string
}

type NewInvestment struct {
	AccountID      string
	SecurityID     string
	SecurityName   string
	SecurityTicker string
	Price          float64
	PriceAsOf      time.Time
	CostBasis      float64
	Quantity       float64
}

func (n NewInvestment) Key() Key {
	return Key{AccountID: n.AccountID, SecurityID: n.SecurityID}
}

func (n NewInvestment) Validate() error {
	if n.AccountID == "" {
		return fmt.Errorf("%w: account is required", ErrInvalidInput)
	}
	if n.PriceAsOf.IsZero() {
		return fmt.Errorf("%w: price date is required", ErrInvalidInput)
	}
	for _, v := range []float64{n.Price, n.CostBasis, n.Quantity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: numeric fields must be finite", ErrInvalidInput)
		}
	}
	if len(n.SecurityID) > MaxFieldLength || len(n.SecurityName) > MaxFieldLength || len(n.SecurityTicker) > MaxFieldLength {
		return fmt.Errorf("%w: security fields exceed %d characters", ErrInvalidInput, MaxFieldLength)
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
