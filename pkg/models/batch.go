package models

const (
	BatchStatusSuccess = "success"
	BatchStatusError   = "error"
)

// BatchDocumentResult is the outcome for one input file. Immutable once
// produced.
type BatchDocumentResult struct {
	Filename       string `json:"filename"`
	MaskedFilename string `json:"masked_filename,omitempty"`
	Status         string `json:"status"`
	EntitiesToMask int    `json:"entities_to_mask"`
	EntitiesMasked int    `json:"entities_masked"`
	// Score is an integer percent: round(100 * masked / toMask), 100 when
	// there was nothing to mask.
	Score int    `json:"score"`
	Error string `json:"error,omitempty"`
}

// BatchResult aggregates per-document outcomes for one folder run.
type BatchResult struct {
	OutputFolder        string                `json:"output_folder"`
	TotalDocuments      int                   `json:"total_documents"`
	SuccessfulDocuments int                   `json:"successful_documents"`
	BatchScore          int                   `json:"batch_score"`
	Results             []BatchDocumentResult `json:"results"`
}

// ScanResult lists the eligible files found in a folder without mutating
// anything.
type ScanResult struct {
	FolderPath string     `json:"folder_path"`
	Files      []ScanFile `json:"files"`
	Count      int        `json:"count"`
}

// ScanFile is one eligible PDF discovered by a folder scan.
type ScanFile struct {
	Name      string `json:"name"`
	Size      int64  `json:"size_bytes"`
	SizeHuman string `json:"size"`
}
