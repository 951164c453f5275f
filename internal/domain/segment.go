package domain

// SegmentType is a structurally distinct line type within a CNAB file.
type SegmentType string

const (
	SegmentFileHeader   SegmentType = "file_header"
	SegmentBatchHeader  SegmentType = "batch_header"
	SegmentDetailA      SegmentType = "detail_a"
	SegmentDetailB      SegmentType = "detail_b"
	SegmentDetail       SegmentType = "detail"
	SegmentBatchTrailer SegmentType = "batch_trailer"
	SegmentFileTrailer  SegmentType = "file_trailer"
)

// IntegrityStatus says whether a file's trailers agree with its content.
type IntegrityStatus string

const (
	IntegrityBuilt   IntegrityStatus = "BUILT"
	IntegrityParsed  IntegrityStatus = "PARSED"
	IntegrityCorrupt IntegrityStatus = "CORRUPT"
)
