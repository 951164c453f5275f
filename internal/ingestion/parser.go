package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folhapay/remittance/internal/codec"
	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

// Parser decodes bank return files. It keeps no state between calls.
type Parser struct {
	registry *layout.Registry
	clock    func() time.Time
	newID    func() string
}

type ParserOption func(*Parser)

func WithParserClock(now func() time.Time) ParserOption {
	return func(p *Parser) { p.clock = now }
}

func WithReturnID(id string) ParserOption {
	return func(p *Parser) { p.newID = func() string { return id } }
}

func WithParserRegistry(r *layout.Registry) ParserOption {
	return func(p *Parser) { p.registry = r }
}

// NewParser creates a parser over the default layout registry.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{registry: layout.Default, clock: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(p)
	}
	return p
}

type parseState int

const (
	expectHeader parseState = iota
	inFile
	inBatch
	done
)

// batchTally accumulates what one batch (or a flat file) actually holds.
type batchTally struct {
	number int64
	lines  int
	total  currency.Amount
}

// Parse splits raw into lines, classifies and decodes each one, and checks
// the trailers against what was read. When a trailer disagrees the partially
// parsed file is returned, marked CORRUPT, together with a
// *domain.CountMismatchError.
func (p *Parser) Parse(tenant string, bank domain.BankConfig, raw []byte) (*domain.ReturnFile, error) {
	l, err := p.registry.Layout(bank.Layout)
	if err != nil {
		return nil, err
	}
	bankNumber, err := strconv.ParseInt(domain.OnlyDigits(bank.BankCode), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bank code %q: %w", bank.BankCode, domain.ErrUnknownBank)
	}

	lines := splitLines(codec.DecodeLatin1(raw))
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty return file: %w", domain.ErrMalformedFile)
	}

	sum := sha256.Sum256(raw)
	rf := &domain.ReturnFile{
		ID:            p.newID(),
		Tenant:        tenant,
		Bank:          bank,
		ParsedAt:      p.clock(),
		ObservedLines: len(lines),
		ContentHash:   hex.EncodeToString(sum[:]),
		Status:        domain.IntegrityParsed,
	}

	var (
		state      = expectHeader
		batch      batchTally
		batches    int
		file       batchTally
		mismatch   *domain.CountMismatchError
		lastDetail domain.SegmentType
	)
	flag := func(m *domain.CountMismatchError) {
		if mismatch == nil {
			mismatch = m
		}
	}

	for i, text := range lines {
		lineNo := i + 1
		line := []rune(text)
		if len(line) != l.LineLength {
			return nil, fmt.Errorf("line %d: %d characters, want %d: %w", lineNo, len(line), l.LineLength, domain.ErrMalformedFile)
		}
		seg, err := l.Classify(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		vals, err := codec.DecodeLine(seg, line, lineNo)
		if err != nil {
			return nil, err
		}
		// A return is only read with the account that sent the remittance.
		if _, ok := seg.Field(layout.FBankCode); ok && vals.Int(layout.FBankCode) != bankNumber {
			return nil, fmt.Errorf("line %d: bank %03d, configured %s: %w",
				lineNo, vals.Int(layout.FBankCode), bank.BankCode, domain.ErrMalformedFile)
		}
		if _, ok := seg.Field(layout.FRecordSequence); ok && !l.Batched {
			if got := vals.Int(layout.FRecordSequence); got != int64(lineNo) {
				return nil, fmt.Errorf("line %d: record sequence %d: %w", lineNo, got, domain.ErrMalformedFile)
			}
		}

		switch {
		case seg.Type == domain.SegmentFileHeader:
			if state != expectHeader {
				return nil, structural(lineNo, "file header after line 1")
			}
			rf.FileSequence = int(vals.Int(layout.FFileSequence))
			state = inFile

		case seg.Type == domain.SegmentBatchHeader:
			if state != inFile {
				return nil, structural(lineNo, "batch header outside the file body")
			}
			batch = batchTally{number: vals.Int(layout.FBatch), lines: 1}
			lastDetail = ""
			state = inBatch

		case l.IsDetail(seg.Type):
			want := inFile
			if l.Batched {
				want = inBatch
			}
			if state != want {
				return nil, structural(lineNo, "detail outside a batch")
			}
			if seg.Type != l.Primary && lastDetail == "" {
				return nil, structural(lineNo, "supplementary segment before its primary segment")
			}
			lastDetail = seg.Type
			batch.lines++
			if seg.Type != l.Primary {
				continue
			}
			rec := returnRecord(l, bank, vals, lineNo, len(rf.Records)+1)
			rf.Records = append(rf.Records, rec)
			batch.total += rec.ScheduledAmount
			file.total += rec.ScheduledAmount

		case seg.Type == domain.SegmentBatchTrailer:
			if state != inBatch {
				return nil, structural(lineNo, "batch trailer without batch header")
			}
			batch.lines++
			batches++
			declaredLines := int(vals.Int(layout.FRecordCount))
			declaredTotal := vals.Amount(layout.FTotalAmount)
			rf.DeclaredTotal += declaredTotal
			if declaredLines != batch.lines || declaredTotal != batch.total {
				flag(&domain.CountMismatchError{
					Scope:         fmt.Sprintf("batch %04d", batch.number),
					DeclaredLines: declaredLines,
					ObservedLines: batch.lines,
					DeclaredTotal: declaredTotal,
					ObservedTotal: batch.total,
				})
			}
			state = inFile

		case seg.Type == domain.SegmentFileTrailer:
			if state != inFile {
				return nil, structural(lineNo, "file trailer inside a batch or before the header")
			}
			if lineNo != len(lines) {
				return nil, structural(lineNo, "content after file trailer")
			}
			rf.DeclaredLines = int(vals.Int(layout.FRecordCount))
			if !l.Batched {
				rf.DeclaredTotal = vals.Amount(layout.FTotalAmount)
			}
			if l.Batched {
				if declared := int(vals.Int(layout.FBatchCount)); declared != batches {
					flag(&domain.CountMismatchError{
						Scope:         "file batch count",
						DeclaredLines: declared,
						ObservedLines: batches,
						DeclaredTotal: rf.DeclaredTotal,
						ObservedTotal: file.total,
					})
				}
			}
			state = done
		}
	}

	if state != done {
		return nil, fmt.Errorf("missing file trailer: %w", domain.ErrMalformedFile)
	}

	rf.ObservedTotal = file.total
	if rf.DeclaredLines != rf.ObservedLines || rf.DeclaredTotal != rf.ObservedTotal {
		flag(&domain.CountMismatchError{
			Scope:         "file",
			DeclaredLines: rf.DeclaredLines,
			ObservedLines: rf.ObservedLines,
			DeclaredTotal: rf.DeclaredTotal,
			ObservedTotal: rf.ObservedTotal,
		})
	}
	if mismatch != nil {
		rf.Status = domain.IntegrityCorrupt
		return rf, mismatch
	}
	return rf, nil
}

func returnRecord(l *layout.Layout, bank domain.BankConfig, vals codec.Values, lineNo, seq int) domain.ReturnRecord {
	codes := SplitOccurrences(vals.String(layout.FOccurrences))
	code := ""
	if len(codes) > 0 {
		code = codes[0]
	}
	_, msg := l.Occurrences.Resolve(code, bank.Occurrences)
	return domain.ReturnRecord{
		Line:            lineNo,
		Sequence:        seq,
		ControlNumber:   vals.String(layout.FControlNumber),
		OccurrenceCode:  code,
		Occurrences:     codes,
		Message:         msg,
		ScheduledAmount: vals.Amount(layout.FAmount),
		SettledAmount:   vals.Amount(layout.FSettledAmount),
		SettlementDate:  vals.Time(layout.FSettlementDate),
	}
}

// SplitOccurrences breaks an occurrence field into its two character codes.
func SplitOccurrences(field string) []string {
	var codes []string
	r := []rune(field)
	for i := 0; i < len(r); i += 2 {
		end := i + 2
		if end > len(r) {
			end = len(r)
		}
		if c := strings.TrimSpace(string(r[i:end])); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func structural(lineNo int, msg string) error {
	return fmt.Errorf("line %d: %s: %w", lineNo, msg, domain.ErrMalformedFile)
}
