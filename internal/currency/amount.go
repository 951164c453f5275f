package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Code is the ISO 4217 code written into CNAB payment segments.
const Code = "BRL"

// minorDigits is the number of decimal places held in minor units.
const minorDigits = 2

// Amount is a monetary value in minor units (centavos). It is never a float.
type Amount int64

// Parse converts a decimal string such as "1500.00" or "1500,5" into an
// Amount. More precision than minor units is rejected rather than rounded.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		// pt-BR notation: 1.500,00
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	minor := d.Shift(minorDigits)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("parse amount %q: more than %d decimal places", s, minorDigits)
	}
	if minor.Abs().GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, fmt.Errorf("parse amount %q: out of range", s)
	}
	return Amount(minor.IntPart()), nil
}

const maxAmount = 1<<63 - 1

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -minorDigits)
}

// String renders the amount with a dot separator, e.g. "1500.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(minorDigits)
}

// Display renders the amount the way Brazilian statements print it,
// e.g. "R$ 1.500,00".
func (a Amount) Display() string {
	s := a.Decimal().Abs().StringFixed(minorDigits)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sign := ""
	if a < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), frac)
}

// Sum adds amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
