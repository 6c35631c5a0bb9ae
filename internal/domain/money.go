package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a whole-franc XAF amount. XAF has no sub-unit in circulation.
type Money struct {
	Amount   int64
	Currency string
}

// NewMoney creates an XAF Money value.
func NewMoney(amount int64) Money {
	return Money{Amount: amount, Currency: Currency}
}

// ToDecimal converts the amount to a decimal for rate arithmetic.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount)
}

// FromDecimal truncates d to whole francs.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Truncate(0).IntPart()
}

// ApplyPercent returns the amount grown by pct percent, rounded down to whole francs.
func (m Money) ApplyPercent(pct decimal.Decimal) Money {
	factor := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
	return Money{
		Amount:   FromDecimal(m.ToDecimal().Mul(factor)),
		Currency: m.Currency,
	}
}

// String renders the amount with thousands separators, e.g. "10 000 XAF".
func (m Money) String() string {
	n := m.Amount
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := fmt.Sprintf("%d", n)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[i])
	}
	return fmt.Sprintf("%s%s %s", sign, out, m.Currency)
}
