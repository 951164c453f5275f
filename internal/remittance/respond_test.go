package remittance

import (
	"testing"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

func TestRespond(t *testing.T) {
	for _, v := range []domain.Variant{domain.LayoutCNAB240, domain.LayoutCNAB400} {
		t.Run(string(v), func(t *testing.T) {
			payments := []domain.PayrollPayment{janeDoe(), janeDoe()}
			f, err := testBuilder().Build("acme", testBank(v), payments, payday)
			if err != nil {
				t.Fatal(err)
			}
			rejected := f.Records[1].ControlNumber
			settledOn := payday.AddDate(0, 0, 1)

			ret, err := Respond(f, map[string]string{rejected: "01"}, settledOn)
			if err != nil {
				t.Fatalf("Respond: %v", err)
			}
			l, _ := layout.Default.Layout(v)
			lines := splitLines(t, ret)
			if len(lines) != f.DeclaredLines {
				t.Fatalf("return has %d lines, want %d", len(lines), f.DeclaredLines)
			}

			_, header := decode(t, v, lines[0])
			if header.Int(layout.FRemittanceCode) != layout.RemittanceReturn {
				t.Errorf("header remittance code = %d", header.Int(layout.FRemittanceCode))
			}

			found := map[string]bool{}
			for _, line := range lines {
				seg, vals := decode(t, v, line)
				if seg != l.Primary {
					continue
				}
				cn := vals.String(layout.FControlNumber)
				found[cn] = true
				switch cn {
				case rejected:
					if vals.String(layout.FOccurrences) != "01" {
						t.Errorf("rejected occurrence = %q", vals.String(layout.FOccurrences))
					}
					if !vals.Time(layout.FSettlementDate).IsZero() || vals.Amount(layout.FSettledAmount) != 0 {
						t.Error("rejected payment must not carry a settlement")
					}
				default:
					if vals.String(layout.FOccurrences) != SettledCode {
						t.Errorf("settled occurrence = %q", vals.String(layout.FOccurrences))
					}
					if !vals.Time(layout.FSettlementDate).Equal(settledOn) {
						t.Errorf("settlement date = %v", vals.Time(layout.FSettlementDate))
					}
					if vals.Amount(layout.FSettledAmount) != 150000 {
						t.Errorf("settled amount = %d", vals.Amount(layout.FSettledAmount))
					}
				}
			}
			if len(found) != 2 {
				t.Errorf("found %d control numbers, want 2", len(found))
			}
		})
	}
}

func TestReturnFileName(t *testing.T) {
	if got := ReturnFileName("CB280501000001.REM"); got != "CB280501000001.RET" {
		t.Errorf("ReturnFileName() = %q", got)
	}
	if got := ReturnFileName("remessa.txt"); got != "remessa.txt.RET" {
		t.Errorf("ReturnFileName() = %q", got)
	}
}
