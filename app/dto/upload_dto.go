// Package dto contains Data Transfer Objects for API request and response structures
package dto

// RowError describes a single rejected CSV row. Row is the physical
// file line number (data index + 2, accounting for the header row).
type RowError struct {
	Row     int               `json:"row" example:"3"`
	Error   string            `json:"error" example:"DUPLICATE_IN_CSV"`
	Details string            `json:"details" example:"Duplicate row in CSV file"`
	Data    map[string]string `json:"data,omitempty"`
}

// RowWarning describes a non-fatal condition encountered while
// validating a row, like the target store being unreachable during
// the uniqueness check.
type RowWarning struct {
	Row     int    `json:"row" example:"3"`
	Warning string `json:"warning" example:"STORE_UNAVAILABLE"`
	Details string `json:"details" example:"Could not verify against existing targets"`
}

// ValidationReport is the response body of the validate endpoint
type ValidationReport struct {
	Message   string       `json:"message" example:"Validation completed"`
	TotalRows int          `json:"totalRows" example:"10"`
	ValidRows int          `json:"validRows" example:"8"`
	ErrorRows int          `json:"errorRows" example:"2"`
	EmptyRows int          `json:"emptyRows" example:"0"`
	Errors    []RowError   `json:"errors"`
	Warnings  []RowWarning `json:"warnings,omitempty"`
	CanImport bool         `json:"canImport" example:"false"`
}

// ImportResult is the response body of the commit endpoint
type ImportResult struct {
	Message      string     `json:"message" example:"CSV imported successfully"`
	TotalRows    int        `json:"totalRows" example:"10"`
	ValidRows    int        `json:"validRows" example:"10"`
	ErrorRows    int        `json:"errorRows" example:"0"`
	Errors       []RowError `json:"errors"`
	SavedTargets int        `json:"savedTargets" example:"10"`
}

// Common error codes for upload operations
const (
	ErrorCodeNoFileUploaded = "NO_FILE_UPLOADED"
	ErrorCodeNotCSVFile     = "NOT_CSV_FILE"
	ErrorCodeFileTooLarge   = "FILE_TOO_LARGE"
	ErrorCodeNoValidData    = "NO_VALID_DATA"
	ErrorCodeImportFailed   = "IMPORT_FAILED"
)
