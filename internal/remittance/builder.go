// Package remittance builds outbound CNAB payroll files and, for
// development, the return files a bank would answer them with.
package remittance

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folhapay/remittance/internal/codec"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

const (
	lineBreak    = "\r\n"
	batchNumber  = 1
	batchPurpose = "PAGAMENTO SALARIOS"
	information  = "SALARIO"
)

type Builder struct {
	registry *layout.Registry
	newID    func() string
	clock    func() time.Time
	sequence int
}

type Option func(*Builder)

// WithFileID fixes the file identifier that seeds control numbers.
func WithFileID(id string) Option {
	return func(b *Builder) { b.newID = func() string { return id } }
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.clock = now }
}

// WithSequence sets the file sequence number (NSA) written to the header.
func WithSequence(nsa int) Option {
	return func(b *Builder) { b.sequence = nsa }
}

func WithRegistry(r *layout.Registry) Option {
	return func(b *Builder) { b.registry = r }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		registry: layout.Default,
		newID:    uuid.NewString,
		clock:    time.Now,
		sequence: 1,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build encodes payments into one remittance file. Options given here
// apply to this build only. Any field error aborts the whole build.
func (b *Builder) Build(tenant string, bank domain.BankConfig, payments []domain.PayrollPayment, paymentDate time.Time, opts ...Option) (*domain.RemittanceFile, error) {
	cfg := *b
	for _, o := range opts {
		o(&cfg)
	}

	if len(payments) == 0 {
		return nil, domain.ErrEmptyPayments
	}
	l, err := cfg.registry.Layout(bank.Layout)
	if err != nil {
		return nil, err
	}
	for i, p := range payments {
		if p.Amount <= 0 {
			return nil, fmt.Errorf("payment %d (%s): amount %d: %w", i+1, p.EmployeeID, p.Amount, domain.ErrInvalidValue)
		}
	}

	f := &domain.RemittanceFile{
		ID:            cfg.newID(),
		Tenant:        tenant,
		Bank:          bank,
		FileSequence:  cfg.sequence,
		GeneratedAt:   cfg.clock(),
		PaymentDate:   paymentDate,
		DeclaredCount: len(payments),
		Status:        domain.IntegrityBuilt,
	}
	f.FileName = FileName(bank.BankCode, f.GeneratedAt, f.FileSequence)

	w := &writer{layout: l}
	if l.Batched {
		err = buildBatched(w, f, payments)
	} else {
		err = buildFlat(w, f, payments)
	}
	if err != nil {
		return nil, err
	}

	f.Content = w.content()
	f.DeclaredLines = len(w.lines)
	sum := sha256.Sum256(f.Content)
	f.ContentHash = hex.EncodeToString(sum[:])
	return f, nil
}

// ControlNumber derives the 20 character "seu número" of one payment:
// 13 hex characters of a digest over tenant, bank and file, then the
// 7 digit sequence.
func ControlNumber(tenant, bankCode, fileID string, sequence int) string {
	sum := sha256.Sum256([]byte(tenant + "|" + bankCode + "|" + fileID))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:13] + fmt.Sprintf("%07d", sequence)
}

// FileName follows the CBddmmBBssssss.REM convention: day and month of
// generation, the last two digits of the bank code and the NSA.
func FileName(bankCode string, at time.Time, nsa int) string {
	bb := domain.OnlyDigits(bankCode)
	for len(bb) < 2 {
		bb = "0" + bb
	}
	return fmt.Sprintf("CB%s%s%06d.REM", at.Format("0201"), bb[len(bb)-2:], nsa%1000000)
}

func buildBatched(w *writer, f *domain.RemittanceFile, payments []domain.PayrollPayment) error {
	bank := f.Bank
	if _, err := w.add(domain.SegmentFileHeader, headerValues(f)); err != nil {
		return err
	}

	bh := companyValues(bank)
	bh[layout.FBatch] = batchNumber
	bh[layout.FMessage] = batchPurpose
	street, number, complement, city, state := addressValues(bank.Address)
	zip, suffix := bank.Address.ZIPParts()
	bh[layout.FStreet] = street
	bh[layout.FNumber] = number
	bh[layout.FComplement] = complement
	bh[layout.FCity] = city
	bh[layout.FZIP] = zip
	bh[layout.FZIPSuffix] = suffix
	bh[layout.FState] = state
	if _, err := w.add(domain.SegmentBatchHeader, bh); err != nil {
		return err
	}
	batchStart := len(w.lines) - 1

	for i, p := range payments {
		seq := i + 1
		rec := newRecord(f, p, seq, domain.SegmentDetailA)

		a := detailValues(rec, f)
		a[layout.FBankCode] = bank.BankCode
		a[layout.FBatch] = batchNumber
		a[layout.FRecordSequence] = 2*seq - 1
		line, err := w.add(domain.SegmentDetailA, a)
		if err != nil {
			return fmt.Errorf("payment %d (%s): %w", seq, p.EmployeeID, err)
		}
		rec.Lines = append(rec.Lines, line)

		street, number, complement, city, state := addressValues(p.Address)
		zip, suffix := p.Address.ZIPParts()
		bv := codec.Values{
			layout.FBankCode:            bank.BankCode,
			layout.FBatch:               batchNumber,
			layout.FRecordSequence:      2 * seq,
			layout.FBeneficiaryDocument: domain.OnlyDigits(p.BeneficiaryDocument),
			layout.FStreet:              street,
			layout.FNumber:              number,
			layout.FComplement:          complement,
			layout.FDistrict:            p.Address.District,
			layout.FCity:                city,
			layout.FZIP:                 zip,
			layout.FZIPSuffix:           suffix,
			layout.FState:               state,
		}
		line, err = w.add(domain.SegmentDetailB, bv)
		if err != nil {
			return fmt.Errorf("payment %d (%s): %w", seq, p.EmployeeID, err)
		}
		rec.Lines = append(rec.Lines, line)

		f.Records = append(f.Records, rec)
		f.DeclaredTotal += p.Amount
	}

	_, err := w.add(domain.SegmentBatchTrailer, codec.Values{
		layout.FBankCode:    bank.BankCode,
		layout.FBatch:       batchNumber,
		layout.FRecordCount: len(w.lines) - batchStart + 1,
		layout.FTotalAmount: f.DeclaredTotal,
	})
	if err != nil {
		return err
	}

	_, err = w.add(domain.SegmentFileTrailer, codec.Values{
		layout.FBankCode:    bank.BankCode,
		layout.FBatchCount:  1,
		layout.FRecordCount: len(w.lines) + 1,
	})
	return err
}

func buildFlat(w *writer, f *domain.RemittanceFile, payments []domain.PayrollPayment) error {
	h := headerValues(f)
	h["RemittanceLiteral"] = "REMESSA"
	h[layout.FRecordSequence] = 1
	if _, err := w.add(domain.SegmentFileHeader, h); err != nil {
		return err
	}

	for i, p := range payments {
		seq := i + 1
		rec := newRecord(f, p, seq, domain.SegmentDetail)
		d := detailValues(rec, f)
		d[layout.FBeneficiaryDocument] = domain.OnlyDigits(p.BeneficiaryDocument)
		d[layout.FRecordSequence] = len(w.lines) + 1
		line, err := w.add(domain.SegmentDetail, d)
		if err != nil {
			return fmt.Errorf("payment %d (%s): %w", seq, p.EmployeeID, err)
		}
		rec.Lines = append(rec.Lines, line)
		f.Records = append(f.Records, rec)
		f.DeclaredTotal += p.Amount
	}

	n := len(w.lines) + 1
	_, err := w.add(domain.SegmentFileTrailer, codec.Values{
		layout.FRecordCount:    n,
		layout.FTotalAmount:    f.DeclaredTotal,
		layout.FRecordSequence: n,
	})
	return err
}

func newRecord(f *domain.RemittanceFile, p domain.PayrollPayment, seq int, segment domain.SegmentType) domain.RemittanceRecord {
	return domain.RemittanceRecord{
		FileID:        f.ID,
		Sequence:      seq,
		ControlNumber: ControlNumber(f.Tenant, f.Bank.BankCode, f.ID, seq),
		Payment:       p,
		Segment:       segment,
	}
}

func companyValues(bank domain.BankConfig) codec.Values {
	return codec.Values{
		layout.FBankCode:        bank.BankCode,
		layout.FCompanyDocument: domain.OnlyDigits(bank.Document),
		layout.FAgreementCode:   bank.CompanyCode,
		layout.FAgency:          domain.OnlyDigits(bank.Agency),
		layout.FAgencyDigit:     bank.AgencyDigit,
		layout.FAccount:         domain.OnlyDigits(bank.Account),
		layout.FAccountDigit:    bank.AccountDigit,
		layout.FCompanyName:     bank.CompanyName,
	}
}

func headerValues(f *domain.RemittanceFile) codec.Values {
	h := companyValues(f.Bank)
	h[layout.FBankName] = f.Bank.BankName
	h[layout.FRemittanceCode] = layout.RemittanceOutbound
	h[layout.FGenerationDate] = f.GeneratedAt
	h[layout.FGenerationTime] = f.GeneratedAt
	h[layout.FFileSequence] = f.FileSequence
	return h
}

func detailValues(rec domain.RemittanceRecord, f *domain.RemittanceFile) codec.Values {
	p := rec.Payment
	account, digit := domain.SplitAccount(p.Account)
	date := p.PaymentDate
	if date.IsZero() {
		date = f.PaymentDate
	}
	return codec.Values{
		layout.FBeneficiaryBank:     p.BankCode,
		layout.FBeneficiaryAgency:   domain.OnlyDigits(p.Agency),
		layout.FBeneficiaryAgencyDV: p.AgencyDigit,
		layout.FBeneficiaryAccount:  domain.OnlyDigits(account),
		layout.FBeneficiaryAcctDV:   digit,
		layout.FBeneficiaryName:     p.BeneficiaryName,
		layout.FControlNumber:       rec.ControlNumber,
		layout.FPaymentDate:         date,
		layout.FAmount:              p.Amount,
		layout.FInformation:         information,
	}
}

func addressValues(a domain.Address) (street, number, complement, city, state string) {
	return a.Street, domain.OnlyDigits(a.Number), a.Complement, a.City, strings.ToUpper(a.State)
}

// writer accumulates encoded lines in file order.
type writer struct {
	layout *layout.Layout
	lines  []domain.EncodedLine
}

func (w *writer) add(t domain.SegmentType, vals codec.Values) (domain.EncodedLine, error) {
	seg, err := w.layout.Segment(t)
	if err != nil {
		return domain.EncodedLine{}, err
	}
	text, err := codec.EncodeLine(seg, vals)
	if err != nil {
		return domain.EncodedLine{}, err
	}
	raw, err := codec.EncodeLatin1(text)
	if err != nil {
		return domain.EncodedLine{}, &domain.FieldError{Segment: t, Field: "line", Err: err}
	}
	line := domain.EncodedLine{Segment: t, Raw: raw}
	w.lines = append(w.lines, line)
	return line, nil
}

func (w *writer) content() []byte {
	var b bytes.Buffer
	for _, l := range w.lines {
		b.Write(l.Raw)
		b.WriteString(lineBreak)
	}
	return b.Bytes()
}
