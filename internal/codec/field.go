// Package codec renders values into fixed-width CNAB fields and back.
// Every function here is pure; errors wrap the domain sentinels.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

const (
	dateFormat = "02012006"
	timeFormat = "150405"
)

// EncodeField renders v into exactly f.Len() characters. A nil v means the
// value is absent.
func EncodeField(f layout.Field, v any) (string, error) {
	switch f.Kind {
	case layout.Fixed:
		return f.Const, nil
	case layout.Blank:
		return strings.Repeat(" ", f.Len()), nil
	case layout.Alpha:
		return encodeAlpha(f, v)
	case layout.Numeric:
		return encodeNumeric(f, v)
	case layout.Money:
		return encodeMoney(f, v)
	case layout.Date:
		return encodeTime(f, v, dateFormat)
	case layout.Time:
		return encodeTime(f, v, timeFormat)
	}
	return "", fmt.Errorf("kind %s: %w", f.Kind, domain.ErrUnsupportedLayout)
}

func encodeAlpha(f layout.Field, v any) (string, error) {
	var s string
	switch x := v.(type) {
	case nil:
	case string:
		s = x
	default:
		return "", fmt.Errorf("%T for alpha field: %w", v, domain.ErrInvalidValue)
	}
	if s == "" && f.Required {
		return "", domain.ErrMissingRequiredField
	}
	for _, r := range s {
		if r > 0xFF || r < 0x20 || (r >= 0x7F && r < 0xA0) {
			return "", fmt.Errorf("character %q outside ISO-8859-1 text: %w", r, domain.ErrInvalidValue)
		}
	}
	if n := len([]rune(s)); n > f.Len() {
		return "", fmt.Errorf("%d characters into %d: %w", n, f.Len(), domain.ErrFieldOverflow)
	}
	return pad(f, s), nil
}

func encodeNumeric(f layout.Field, v any) (string, error) {
	var digits string
	switch x := v.(type) {
	case nil:
		if f.Required {
			return "", domain.ErrMissingRequiredField
		}
	case int:
		return encodeInt(f, int64(x))
	case int64:
		return encodeInt(f, x)
	case string:
		if x == "" && f.Required {
			return "", domain.ErrMissingRequiredField
		}
		if x != "" && !isDigits(x) {
			return "", fmt.Errorf("%q is not numeric: %w", x, domain.ErrInvalidValue)
		}
		digits = x
	default:
		return "", fmt.Errorf("%T for numeric field: %w", v, domain.ErrInvalidValue)
	}
	if len(digits) > f.Len() {
		return "", fmt.Errorf("%d digits into %d: %w", len(digits), f.Len(), domain.ErrFieldOverflow)
	}
	return pad(f, digits), nil
}

func encodeInt(f layout.Field, n int64) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("negative value %d: %w", n, domain.ErrInvalidValue)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > f.Len() {
		return "", fmt.Errorf("%d digits into %d: %w", len(s), f.Len(), domain.ErrFieldOverflow)
	}
	return pad(f, s), nil
}

// encodeMoney takes minor units only. Floats are refused outright so an
// amount can never be rounded on its way into a file.
func encodeMoney(f layout.Field, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		if f.Required {
			return "", domain.ErrMissingRequiredField
		}
		return pad(f, ""), nil
	case currency.Amount:
		return encodeInt(f, int64(x))
	case int64:
		return encodeInt(f, x)
	case int:
		return encodeInt(f, int64(x))
	case float32, float64:
		return "", fmt.Errorf("floating point amount %v: %w", x, domain.ErrInvalidValue)
	}
	return "", fmt.Errorf("%T for money field: %w", v, domain.ErrInvalidValue)
}

func encodeTime(f layout.Field, v any, format string) (string, error) {
	var t time.Time
	switch x := v.(type) {
	case nil:
	case time.Time:
		t = x
	default:
		return "", fmt.Errorf("%T for %s field: %w", v, f.Kind, domain.ErrInvalidValue)
	}
	if t.IsZero() {
		if f.Required {
			return "", domain.ErrMissingRequiredField
		}
		return strings.Repeat("0", f.Len()), nil
	}
	if f.Kind == layout.Date && (t.Year() < 1 || t.Year() > 9999) {
		return "", fmt.Errorf("year %d: %w", t.Year(), domain.ErrInvalidValue)
	}
	return t.Format(format), nil
}

// errBlankRequired marks a required field left blank in a file being read.
// It matches both domain.ErrMalformedField and domain.ErrMissingRequiredField.
var errBlankRequired = fmt.Errorf("%w: %w", domain.ErrMalformedField, domain.ErrMissingRequiredField)

// DecodeField is the inverse of EncodeField. Blank fields decode to nil.
func DecodeField(f layout.Field, raw string) (any, error) {
	if n := len([]rune(raw)); n != f.Len() {
		return nil, fmt.Errorf("%d characters, want %d: %w", n, f.Len(), domain.ErrMalformedField)
	}
	switch f.Kind {
	case layout.Blank:
		return nil, nil
	case layout.Fixed:
		if raw != f.Const {
			return nil, fmt.Errorf("got %q, want %q: %w", raw, f.Const, domain.ErrMalformedField)
		}
		return raw, nil
	case layout.Alpha:
		s := unpad(f, raw)
		if s == "" && f.Required {
			return nil, errBlankRequired
		}
		return s, nil
	case layout.Numeric, layout.Money:
		if strings.TrimSpace(raw) == "" && !f.Required {
			// Some banks leave unused numeric fields blank.
			return zeroOf(f), nil
		}
		if !isDigits(raw) {
			return nil, fmt.Errorf("%q is not numeric: %w", raw, domain.ErrMalformedField)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, domain.ErrMalformedField)
		}
		if f.Kind == layout.Money {
			return currency.Amount(n), nil
		}
		return n, nil
	case layout.Date, layout.Time:
		return decodeTime(f, raw)
	}
	return nil, fmt.Errorf("kind %s: %w", f.Kind, domain.ErrUnsupportedLayout)
}

func decodeTime(f layout.Field, raw string) (any, error) {
	if strings.TrimSpace(raw) == "" || strings.Trim(raw, "0") == "" {
		if f.Required {
			return nil, errBlankRequired
		}
		return time.Time{}, nil
	}
	if !isDigits(raw) {
		return nil, fmt.Errorf("%q is not a %s: %w", raw, f.Kind, domain.ErrMalformedField)
	}
	format := dateFormat
	if f.Kind == layout.Time {
		format = timeFormat
	}
	t, err := time.ParseInLocation(format, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", raw, domain.ErrMalformedField)
	}
	return t, nil
}

func zeroOf(f layout.Field) any {
	if f.Kind == layout.Money {
		return currency.Amount(0)
	}
	return int64(0)
}

func pad(f layout.Field, s string) string {
	n := f.Len() - len([]rune(s))
	if n <= 0 {
		return s
	}
	fill := strings.Repeat(string(rune(f.Pad)), n)
	if f.Justify == layout.Right {
		return fill + s
	}
	return s + fill
}

func unpad(f layout.Field, s string) string {
	if f.Justify == layout.Right {
		return strings.TrimLeft(s, string(rune(f.Pad)))
	}
	return strings.TrimRight(s, string(rune(f.Pad)))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
