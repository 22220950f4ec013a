package plaid

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is an optional provider field that may arrive as a string, number,
// boolean or null. Non-string scalars are kept in their JSON text form.
// Objects and arrays are treated as absent.
type Text struct {
	Value string
	Valid bool
}

func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Text{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text{Value: s, Valid: true}
	case '{', '[':
	default:
		*t = Text{Value: string(data), Valid: true}
	}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Value)
}

// String returns the value, or "" when absent.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// Number is an optional numeric field. Numeric strings are accepted; anything
// else decodes as absent rather than failing the whole payload.
type Number struct {
	Value float64
	Valid bool
}

func NewNumber(f float64) Number {
	return Number{Value: f, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*n = Number{Value: v, Valid: true}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*n = Number{Value: f, Valid: true}
		}
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Float returns the value, or 0 when absent.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Account is one entry of the accounts array returned by /accounts/get and
// /investments/holdings/get.
type Account struct {
	AccountID Text      `json:"account_id"`
	Name      Text      `json:"name"`
	Type      Text      `json:"type"`
	Subtype   Text      `json:"subtype"`
	Balances  *Balances `json:"balances"`
}

// UnmarshalJSON treats a balances value that is not an object as absent.
func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	aux := struct {
		*plain
		Balances json.RawMessage `json:"balances"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Balances = looseObject[Balances](aux.Balances)
	return nil
}

type Balances struct {
	Available Number `json:"available"`
	Current   Number `json:"current"`
}

type Transaction struct {
	TransactionID           Text                     `json:"transaction_id"`
	AccountID               Text                     `json:"account_id"`
	Amount                  Number                   `json:"amount"`
	Date                    Text                     `json:"date"`
	Name                    Text                     `json:"name"`
	PaymentChannel          Text                     `json:"payment_channel"`
	Category                []Text                   `json:"category"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
}

// UnmarshalJSON treats a category list or personal_finance_category of the
// wrong shape as absent, so one odd record cannot fail its whole page.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		Category                json.RawMessage `json:"category"`
		PersonalFinanceCategory json.RawMessage `json:"personal_finance_category"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Category = looseList(aux.Category)
	t.PersonalFinanceCategory = looseObject[PersonalFinanceCategory](aux.PersonalFinanceCategory)
	return nil
}

type PersonalFinanceCategory struct {
	Primary  Text `json:"primary"`
	Detailed Text `json:"detailed"`
}

// looseObject decodes raw into a new T, or returns nil when raw is not an object.
func looseObject[T any](raw json.RawMessage) *T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil
	}
	return v
}

// looseList decodes raw as a list of Text, or returns nil when raw is not an array.
func looseList(raw json.RawMessage) []Text {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var out []Text
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

type Holding struct {
	AccountID            Text   `json:"account_id"`
	SecurityID           Text   `json:"security_id"`
	InstitutionPrice     Number `json:"institution_price"`
	InstitutionPriceAsOf Text   `json:"institution_price_as_of"`
	CostBasis            Number `json:"cost_basis"`
	Quantity             Number `json:"quantity"`
}

type Security struct {
	SecurityID   Text `json:"security_id"`
	Name         Text `json:"name"`
	TickerSymbol Text `json:"ticker_symbol"`
}

// Holdings is the /investments/holdings/get payload.
type Holdings struct {
	Accounts   []Account  `json:"accounts"`
	Holdings   []Holding  `json:"holdings"`
	Securities []Security `json:"securities"`
}

type Item struct {
	ItemID        string `json:"item_id"`
	InstitutionID Text   `json:"institution_id"`
}

type Institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

type LinkToken struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

// LinkTokenRequest describes a Link session. When AccessToken is set the
// session runs in update mode for that item.
type LinkTokenRequest struct {
	ClientUserID string
	AccessToken  string
}

type Exchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}
