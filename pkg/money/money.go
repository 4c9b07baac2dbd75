// Package money provides a fixed-point monetary value used by all
// financial entities. Amounts are stored as int64 minor units next to
// an ISO 4217 currency code; arithmetic never goes through floats.
package money

import (
	"encoding/json"
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when callers do not specify one.
const DefaultCurrency = "BRL"

var (
	ErrCurrencyMismatch = errors.New("currency_mismatch")
	ErrUnknownCurrency  = errors.New("unknown_currency")
	ErrInvalidAmount    = errors.New("invalid_amount")
)

// Money is an immutable amount in minor units of a single currency.
type Money struct {
	amount   int64
	currency string
}

// New builds a Money from minor units (e.g. centavos).
func New(amount int64, currency string) Money {
	return Money{amount: amount, currency: normalize(currency)}
}

// Zero returns the zero value for the given currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// ParseDecimal parses a major-unit decimal string ("1234.56") into Money.
func ParseDecimal(value string, currency string) (Money, error) {
	currency = normalize(currency)
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return Money{}, ErrUnknownCurrency
	}
	dec, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	shifted := dec.Shift(int32(cur.Fraction))
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{amount: shifted.IntPart(), currency: currency}, nil
}

// FromDecimal converts a major-unit decimal into Money, truncating any
// precision beyond the currency's minor unit.
func FromDecimal(dec decimal.Decimal, currency string) Money {
	currency = normalize(currency)
	fraction := fractionDigits(currency)
	return Money{amount: dec.Shift(int32(fraction)).IntPart(), currency: currency}
}

// Amount returns the value in minor units.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO 4217 code.
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

func (m Money) IsZero() bool     { return m.amount == 0 }
func (m Money) IsPositive() bool { return m.amount > 0 }
func (m Money) IsNegative() bool { return m.amount < 0 }

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(n Money) bool { return m.Currency() == n.Currency() }

// Add returns m+n, failing on mixed currencies.
func (m Money) Add(n Money) (Money, error) {
	if !m.SameCurrency(n) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + n.amount, currency: m.Currency()}, nil
}

// Sub returns m-n, failing on mixed currencies.
func (m Money) Sub(n Money) (Money, error) {
	if !m.SameCurrency(n) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount - n.amount, currency: m.Currency()}, nil
}

// MulInt scales the amount by an integer factor.
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount * factor, currency: m.Currency()}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{amount: -m.amount, currency: m.Currency()}
}

// Cmp compares amounts, failing on mixed currencies.
func (m Money) Cmp(n Money) (int, error) {
	if !m.SameCurrency(n) {
		return 0, ErrCurrencyMismatch
	}
	switch {
	case m.amount < n.amount:
		return -1, nil
	case m.amount > n.amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// SplitEven divides the amount into n parts. The integer division
// remainder is absorbed by the last part so the sum is always exact.
func (m Money) SplitEven(n int) []Money {
	if n <= 0 {
		return nil
	}
	base := m.amount / int64(n)
	parts := make([]Money, n)
	for i := range parts {
		parts[i] = Money{amount: base, currency: m.Currency()}
	}
	parts[n-1].amount = m.amount - base*int64(n-1)
	return parts
}

// Decimal returns the major-unit decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, 0).Shift(-int32(fractionDigits(m.Currency())))
}

// DecimalString renders the amount as a plain decimal string with the
// currency's full minor-unit precision ("1234.50").
func (m Money) DecimalString() string {
	return m.Decimal().StringFixed(int32(fractionDigits(m.Currency())))
}

// Display renders the amount with the currency symbol for human output.
func (m Money) Display() string {
	return gomoney.New(m.amount, m.Currency()).Display()
}

func (m Money) String() string { return m.DecimalString() + " " + m.Currency() }

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.DecimalString(), Currency: m.Currency()})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDecimal(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func normalize(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}

func fractionDigits(currency string) int {
	if cur := gomoney.GetCurrency(currency); cur != nil {
		return cur.Fraction
	}
	return 2
}
