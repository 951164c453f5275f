package remittance

import (
	"bytes"
	"fmt"
	"time"

	"github.com/folhapay/remittance/internal/codec"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

// SettledCode is the occurrence a bank writes for a credited payment.
const SettledCode = "00"

// Respond renders the return file a bank would send back for f. outcomes
// maps control numbers to occurrence codes; payments not listed settle.
// Settled payments carry settledOn and their full amount.
func Respond(f *domain.RemittanceFile, outcomes map[string]string, settledOn time.Time) ([]byte, error) {
	l, err := layout.Default.Layout(f.Bank.Layout)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	lines := bytes.Split(bytes.TrimRight(f.Content, "\r\n"), []byte("\n"))
	for i, raw := range lines {
		runes := []rune(codec.DecodeLatin1(bytes.TrimRight(raw, "\r")))
		seg, err := l.Classify(runes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		vals, err := codec.DecodeLine(seg, runes, i+1)
		if err != nil {
			return nil, err
		}

		switch {
		case seg.Type == domain.SegmentFileHeader:
			vals[layout.FRemittanceCode] = layout.RemittanceReturn
			vals["RemittanceLiteral"] = "RETORNO"
		case seg.Type == l.Primary:
			code, ok := outcomes[vals.String(layout.FControlNumber)]
			if !ok {
				code = SettledCode
			}
			vals[layout.FOccurrences] = code
			vals[layout.FBankReference] = fmt.Sprintf("%020d", i+1)
			if status, _ := l.Occurrences.Resolve(code, f.Bank.Occurrences); status == domain.StatusSettled {
				vals[layout.FSettlementDate] = settledOn
				vals[layout.FSettledAmount] = vals.Amount(layout.FAmount)
			}
		case seg.Type == domain.SegmentBatchHeader, seg.Type == domain.SegmentBatchTrailer:
			vals[layout.FOccurrences] = SettledCode
		}

		text, err := codec.EncodeLine(seg, vals)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		b, err := codec.EncodeLatin1(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out.Write(b)
		out.WriteString(lineBreak)
	}
	return out.Bytes(), nil
}

// ReturnFileName is the name banks give the answer to a remittance file.
func ReturnFileName(remittanceName string) string {
	if n := len(remittanceName); n > 4 && remittanceName[n-4:] == ".REM" {
		return remittanceName[:n-4] + ".RET"
	}
	return remittanceName + ".RET"
}
