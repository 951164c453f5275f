package layout

import "github.com/folhapay/remittance/internal/domain"

// Field names shared by the layouts. The builder and parser address fields
// by these names only.
const (
	FBankCode        = "BankCode"
	FBatch           = "Batch"
	FRecordType      = "RecordType"
	FSegmentCode     = "SegmentCode"
	FRecordSequence  = "RecordSequence"
	FCompanyDocument = "CompanyDocument"
	FAgreementCode   = "AgreementCode"
	FAgency          = "Agency"
	FAgencyDigit     = "AgencyDigit"
	FAccount         = "Account"
	FAccountDigit    = "AccountDigit"
	FCompanyName     = "CompanyName"
	FBankName        = "BankName"
	FRemittanceCode  = "RemittanceCode"
	FGenerationDate  = "GenerationDate"
	FGenerationTime  = "GenerationTime"
	FFileSequence    = "FileSequence"
	FMessage         = "Message"
	FStreet          = "Street"
	FNumber          = "Number"
	FComplement      = "Complement"
	FDistrict        = "District"
	FCity            = "City"
	FZIP             = "ZIP"
	FZIPSuffix       = "ZIPSuffix"
	FState           = "State"
	FOccurrences     = "Occurrences"

	FBeneficiaryBank     = "BeneficiaryBank"
	FBeneficiaryAgency   = "BeneficiaryAgency"
	FBeneficiaryAgencyDV = "BeneficiaryAgencyDigit"
	FBeneficiaryAccount  = "BeneficiaryAccount"
	FBeneficiaryAcctDV   = "BeneficiaryAccountDigit"
	FBeneficiaryName     = "BeneficiaryName"
	FBeneficiaryDocument = "BeneficiaryDocument"
	FControlNumber       = "ControlNumber"
	FPaymentDate         = "PaymentDate"
	FCurrency            = "Currency"
	FAmount              = "Amount"
	FBankReference       = "BankReference"
	FSettlementDate      = "SettlementDate"
	FSettledAmount       = "SettledAmount"
	FInformation         = "Information"

	FRecordCount  = "RecordCount"
	FTotalAmount  = "TotalAmount"
	FBatchCount   = "BatchCount"
	FAccountCount = "AccountCount"
)

// Remittance codes written to the file header.
const (
	RemittanceOutbound = 1
	RemittanceReturn   = 2
)

// cnab240 is the FEBRABAN 240 layout: file header v089, payment batch v045
// (credit to account, service 30 salary), segments A and B.
func cnab240() *Layout {
	return &Layout{
		Variant:    domain.LayoutCNAB240,
		Name:       "FEBRABAN CNAB 240 v089 - Pagamento de Salários",
		LineLength: 240,
		Batched:    true,
		Primary:    domain.SegmentDetailA,
		Details:    []domain.SegmentType{domain.SegmentDetailA, domain.SegmentDetailB},
		Segments: []Segment{
			{Type: domain.SegmentFileHeader, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Fixed, Const: "0000"},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "0", Key: true},
				{Name: "Reserved1", Start: 9, End: 17, Kind: Blank},
				{Name: "InscriptionType", Start: 18, End: 18, Kind: Fixed, Const: "2"},
				{Name: FCompanyDocument, Start: 19, End: 32, Kind: Numeric, Required: true},
				{Name: FAgreementCode, Start: 33, End: 52, Kind: Alpha},
				{Name: FAgency, Start: 53, End: 57, Kind: Numeric, Required: true},
				{Name: FAgencyDigit, Start: 58, End: 58, Kind: Alpha},
				{Name: FAccount, Start: 59, End: 70, Kind: Numeric, Required: true},
				{Name: FAccountDigit, Start: 71, End: 71, Kind: Alpha},
				{Name: "AgencyAccountDigit", Start: 72, End: 72, Kind: Blank},
				{Name: FCompanyName, Start: 73, End: 102, Kind: Alpha, Required: true},
				{Name: FBankName, Start: 103, End: 132, Kind: Alpha},
				{Name: "Reserved2", Start: 133, End: 142, Kind: Blank},
				{Name: FRemittanceCode, Start: 143, End: 143, Kind: Numeric, Required: true},
				{Name: FGenerationDate, Start: 144, End: 151, Kind: Date, Required: true},
				{Name: FGenerationTime, Start: 152, End: 157, Kind: Time},
				{Name: FFileSequence, Start: 158, End: 163, Kind: Numeric, Required: true},
				{Name: "LayoutVersion", Start: 164, End: 166, Kind: Fixed, Const: "089"},
				{Name: "Density", Start: 167, End: 171, Kind: Fixed, Const: "01600"},
				{Name: "BankReserved", Start: 172, End: 191, Kind: Blank},
				{Name: "CompanyReserved", Start: 192, End: 211, Kind: Blank},
				{Name: "Reserved3", Start: 212, End: 240, Kind: Blank},
			}},
			{Type: domain.SegmentBatchHeader, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Numeric, Required: true},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "1", Key: true},
				{Name: "Operation", Start: 9, End: 9, Kind: Fixed, Const: "C"},
				{Name: "ServiceType", Start: 10, End: 11, Kind: Fixed, Const: "30"},
				{Name: "EntryMethod", Start: 12, End: 13, Kind: Fixed, Const: "01"},
				{Name: "LayoutVersion", Start: 14, End: 16, Kind: Fixed, Const: "045"},
				{Name: "Reserved1", Start: 17, End: 17, Kind: Blank},
				{Name: "InscriptionType", Start: 18, End: 18, Kind: Fixed, Const: "2"},
				{Name: FCompanyDocument, Start: 19, End: 32, Kind: Numeric, Required: true},
				{Name: FAgreementCode, Start: 33, End: 52, Kind: Alpha},
				{Name: FAgency, Start: 53, End: 57, Kind: Numeric, Required: true},
				{Name: FAgencyDigit, Start: 58, End: 58, Kind: Alpha},
				{Name: FAccount, Start: 59, End: 70, Kind: Numeric, Required: true},
				{Name: FAccountDigit, Start: 71, End: 71, Kind: Alpha},
				{Name: "AgencyAccountDigit", Start: 72, End: 72, Kind: Blank},
				{Name: FCompanyName, Start: 73, End: 102, Kind: Alpha, Required: true},
				{Name: FMessage, Start: 103, End: 142, Kind: Alpha},
				{Name: FStreet, Start: 143, End: 172, Kind: Alpha},
				{Name: FNumber, Start: 173, End: 177, Kind: Numeric},
				{Name: FComplement, Start: 178, End: 192, Kind: Alpha},
				{Name: FCity, Start: 193, End: 212, Kind: Alpha},
				{Name: FZIP, Start: 213, End: 217, Kind: Numeric},
				{Name: FZIPSuffix, Start: 218, End: 220, Kind: Alpha},
				{Name: FState, Start: 221, End: 222, Kind: Alpha},
				{Name: "PaymentForm", Start: 223, End: 224, Kind: Fixed, Const: "01"},
				{Name: "Reserved2", Start: 225, End: 230, Kind: Blank},
				{Name: FOccurrences, Start: 231, End: 240, Kind: Alpha},
			}},
			{Type: domain.SegmentDetailA, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Numeric, Required: true},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "3", Key: true},
				{Name: FRecordSequence, Start: 9, End: 13, Kind: Numeric, Required: true},
				{Name: FSegmentCode, Start: 14, End: 14, Kind: Fixed, Const: "A", Key: true},
				{Name: "MovementType", Start: 15, End: 15, Kind: Fixed, Const: "0"},
				{Name: "MovementCode", Start: 16, End: 17, Kind: Fixed, Const: "00"},
				{Name: "ClearingChamber", Start: 18, End: 20, Kind: Fixed, Const: "000"},
				{Name: FBeneficiaryBank, Start: 21, End: 23, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAgency, Start: 24, End: 28, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAgencyDV, Start: 29, End: 29, Kind: Alpha},
				{Name: FBeneficiaryAccount, Start: 30, End: 41, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAcctDV, Start: 42, End: 42, Kind: Alpha},
				{Name: "AgencyAccountDigit", Start: 43, End: 43, Kind: Blank},
				{Name: FBeneficiaryName, Start: 44, End: 73, Kind: Alpha, Required: true},
				{Name: FControlNumber, Start: 74, End: 93, Kind: Alpha, Required: true},
				{Name: FPaymentDate, Start: 94, End: 101, Kind: Date, Required: true},
				{Name: FCurrency, Start: 102, End: 104, Kind: Fixed, Const: "BRL"},
				{Name: "CurrencyQuantity", Start: 105, End: 119, Kind: Numeric},
				{Name: FAmount, Start: 120, End: 134, Kind: Money, Required: true},
				{Name: FBankReference, Start: 135, End: 154, Kind: Alpha},
				{Name: FSettlementDate, Start: 155, End: 162, Kind: Date},
				{Name: FSettledAmount, Start: 163, End: 177, Kind: Money},
				{Name: FInformation, Start: 178, End: 217, Kind: Alpha},
				{Name: "DocumentPurpose", Start: 218, End: 219, Kind: Fixed, Const: "09"},
				{Name: "Reserved1", Start: 220, End: 229, Kind: Blank},
				{Name: "Notice", Start: 230, End: 230, Kind: Fixed, Const: "0"},
				{Name: FOccurrences, Start: 231, End: 240, Kind: Alpha},
			}},
			{Type: domain.SegmentDetailB, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Numeric, Required: true},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "3", Key: true},
				{Name: FRecordSequence, Start: 9, End: 13, Kind: Numeric, Required: true},
				{Name: FSegmentCode, Start: 14, End: 14, Kind: Fixed, Const: "B", Key: true},
				{Name: "Reserved1", Start: 15, End: 17, Kind: Blank},
				{Name: "InscriptionType", Start: 18, End: 18, Kind: Fixed, Const: "1"},
				{Name: FBeneficiaryDocument, Start: 19, End: 32, Kind: Numeric, Required: true},
				{Name: FStreet, Start: 33, End: 62, Kind: Alpha},
				{Name: FNumber, Start: 63, End: 67, Kind: Numeric},
				{Name: FComplement, Start: 68, End: 82, Kind: Alpha},
				{Name: FDistrict, Start: 83, End: 97, Kind: Alpha},
				{Name: FCity, Start: 98, End: 117, Kind: Alpha},
				{Name: FZIP, Start: 118, End: 122, Kind: Numeric},
				{Name: FZIPSuffix, Start: 123, End: 125, Kind: Alpha},
				{Name: FState, Start: 126, End: 127, Kind: Alpha},
				{Name: "DueDate", Start: 128, End: 135, Kind: Date},
				{Name: "DocumentAmount", Start: 136, End: 150, Kind: Money},
				{Name: "Rebate", Start: 151, End: 165, Kind: Money},
				{Name: "Discount", Start: 166, End: 180, Kind: Money},
				{Name: "Interest", Start: 181, End: 195, Kind: Money},
				{Name: "Fine", Start: 196, End: 210, Kind: Money},
				{Name: "BeneficiaryCode", Start: 211, End: 225, Kind: Alpha},
				{Name: "Notice", Start: 226, End: 226, Kind: Fixed, Const: "0"},
				{Name: "ManagementUnit", Start: 227, End: 232, Kind: Numeric},
				{Name: "Reserved2", Start: 233, End: 240, Kind: Blank},
			}},
			{Type: domain.SegmentBatchTrailer, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Numeric, Required: true},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "5", Key: true},
				{Name: "Reserved1", Start: 9, End: 17, Kind: Blank},
				{Name: FRecordCount, Start: 18, End: 23, Kind: Numeric, Required: true},
				{Name: FTotalAmount, Start: 24, End: 41, Kind: Money, Required: true},
				{Name: "CurrencyQuantity", Start: 42, End: 59, Kind: Numeric},
				{Name: "DebitNotice", Start: 60, End: 65, Kind: Numeric},
				{Name: "Reserved2", Start: 66, End: 230, Kind: Blank},
				{Name: FOccurrences, Start: 231, End: 240, Kind: Alpha},
			}},
			{Type: domain.SegmentFileTrailer, Fields: []Field{
				{Name: FBankCode, Start: 1, End: 3, Kind: Numeric, Required: true},
				{Name: FBatch, Start: 4, End: 7, Kind: Fixed, Const: "9999"},
				{Name: FRecordType, Start: 8, End: 8, Kind: Fixed, Const: "9", Key: true},
				{Name: "Reserved1", Start: 9, End: 17, Kind: Blank},
				{Name: FBatchCount, Start: 18, End: 23, Kind: Numeric, Required: true},
				{Name: FRecordCount, Start: 24, End: 29, Kind: Numeric, Required: true},
				{Name: FAccountCount, Start: 30, End: 35, Kind: Numeric},
				{Name: "Reserved2", Start: 36, End: 240, Kind: Blank},
			}},
		},
		Occurrences: febraban,
	}
}
