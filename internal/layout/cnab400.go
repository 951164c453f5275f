package layout

import "github.com/folhapay/remittance/internal/domain"

// cnab400 is the single-detail 400 position layout. There are no batches:
// the trailer carries the file's line count and total, and every line
// ends with its own position in the file.
func cnab400() *Layout {
	return &Layout{
		Variant:    domain.LayoutCNAB400,
		Name:       "CNAB 400 - Pagamento de Salários",
		LineLength: 400,
		Primary:    domain.SegmentDetail,
		Details:    []domain.SegmentType{domain.SegmentDetail},
		Segments: []Segment{
			{Type: domain.SegmentFileHeader, Fields: []Field{
				{Name: FRecordType, Start: 1, End: 1, Kind: Fixed, Const: "0", Key: true},
				{Name: FRemittanceCode, Start: 2, End: 2, Kind: Numeric, Required: true},
				{Name: "RemittanceLiteral", Start: 3, End: 9, Kind: Alpha},
				{Name: "ServiceCode", Start: 10, End: 11, Kind: Fixed, Const: "30"},
				{Name: "ServiceLiteral", Start: 12, End: 26, Kind: Fixed, Const: "SALARIOS       "},
				{Name: FAgreementCode, Start: 27, End: 46, Kind: Alpha},
				{Name: FCompanyName, Start: 47, End: 76, Kind: Alpha, Required: true},
				{Name: FBankCode, Start: 77, End: 79, Kind: Numeric, Required: true},
				{Name: FBankName, Start: 80, End: 94, Kind: Alpha},
				{Name: FGenerationDate, Start: 95, End: 102, Kind: Date, Required: true},
				{Name: FFileSequence, Start: 103, End: 108, Kind: Numeric, Required: true},
				{Name: FAgency, Start: 109, End: 113, Kind: Numeric, Required: true},
				{Name: FAgencyDigit, Start: 114, End: 114, Kind: Alpha},
				{Name: FAccount, Start: 115, End: 126, Kind: Numeric, Required: true},
				{Name: FAccountDigit, Start: 127, End: 127, Kind: Alpha},
				{Name: FCompanyDocument, Start: 128, End: 141, Kind: Numeric, Required: true},
				{Name: "Reserved1", Start: 142, End: 394, Kind: Blank},
				{Name: FRecordSequence, Start: 395, End: 400, Kind: Numeric, Required: true},
			}},
			{Type: domain.SegmentDetail, Fields: []Field{
				{Name: FRecordType, Start: 1, End: 1, Kind: Fixed, Const: "1", Key: true},
				{Name: "InscriptionType", Start: 2, End: 3, Kind: Fixed, Const: "01"},
				{Name: FBeneficiaryDocument, Start: 4, End: 17, Kind: Numeric, Required: true},
				{Name: FBeneficiaryBank, Start: 18, End: 20, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAgency, Start: 21, End: 25, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAgencyDV, Start: 26, End: 26, Kind: Alpha},
				{Name: FBeneficiaryAccount, Start: 27, End: 38, Kind: Numeric, Required: true},
				{Name: FBeneficiaryAcctDV, Start: 39, End: 39, Kind: Alpha},
				{Name: FBeneficiaryName, Start: 40, End: 69, Kind: Alpha, Required: true},
				{Name: FControlNumber, Start: 70, End: 89, Kind: Alpha, Required: true},
				{Name: FPaymentDate, Start: 90, End: 97, Kind: Date, Required: true},
				{Name: FAmount, Start: 98, End: 110, Kind: Money, Required: true},
				{Name: FSettlementDate, Start: 111, End: 118, Kind: Date},
				{Name: FSettledAmount, Start: 119, End: 131, Kind: Money},
				{Name: FInformation, Start: 132, End: 171, Kind: Alpha},
				{Name: FOccurrences, Start: 172, End: 181, Kind: Alpha},
				{Name: "Reserved1", Start: 182, End: 394, Kind: Blank},
				{Name: FRecordSequence, Start: 395, End: 400, Kind: Numeric, Required: true},
			}},
			{Type: domain.SegmentFileTrailer, Fields: []Field{
				{Name: FRecordType, Start: 1, End: 1, Kind: Fixed, Const: "9", Key: true},
				{Name: FRecordCount, Start: 2, End: 7, Kind: Numeric, Required: true},
				{Name: FTotalAmount, Start: 8, End: 24, Kind: Money, Required: true},
				{Name: "Reserved1", Start: 25, End: 394, Kind: Blank},
				{Name: FRecordSequence, Start: 395, End: 400, Kind: Numeric, Required: true},
			}},
		},
		Occurrences: febraban,
	}
}
