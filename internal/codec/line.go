package codec

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

// Values holds field values keyed by field name. Encoding accepts string,
// int, int64, currency.Amount and time.Time; decoding yields string, int64,
// currency.Amount and time.Time.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int64 {
	switch x := v[name].(type) {
	case int64:
		return x
	case int:
		return int64(x)
	}
	return 0
}

func (v Values) Amount(name string) currency.Amount {
	switch x := v[name].(type) {
	case currency.Amount:
		return x
	case int64:
		return currency.Amount(x)
	}
	return 0
}

func (v Values) Time(name string) time.Time {
	t, _ := v[name].(time.Time)
	return t
}

// EncodeLine renders one segment. Fields missing from vals are encoded as
// absent.
func EncodeLine(seg *layout.Segment, vals Values) (string, error) {
	var b strings.Builder
	for _, f := range seg.Fields {
		s, err := EncodeField(f, vals[f.Name])
		if err != nil {
			return "", &domain.FieldError{Segment: seg.Type, Field: f.Name, Err: err}
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// DecodeLine splits a classified line into typed values. lineNo is 1-based
// and only used for error reporting.
func DecodeLine(seg *layout.Segment, line []rune, lineNo int) (Values, error) {
	vals := make(Values, len(seg.Fields))
	for _, f := range seg.Fields {
		if f.End > len(line) {
			return nil, &domain.FieldError{Segment: seg.Type, Field: f.Name, Line: lineNo, Err: domain.ErrMalformedField}
		}
		v, err := DecodeField(f, string(line[f.Offset():f.End]))
		if err != nil {
			return nil, &domain.FieldError{Segment: seg.Type, Field: f.Name, Line: lineNo, Err: err}
		}
		if v != nil {
			vals[f.Name] = v
		}
	}
	return vals, nil
}

// EncodeLatin1 converts text to the ISO-8859-1 bytes written on the wire.
func EncodeLatin1(s string) ([]byte, error) {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode ISO-8859-1: %w", domain.ErrInvalidValue)
	}
	return b, nil
}

// DecodeLatin1 converts wire bytes to text. Every byte is a valid
// ISO-8859-1 character, so this cannot fail.
func DecodeLatin1(b []byte) string {
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(b)
	return string(s)
}
