// Package businessflow contains the CSV bulk-import validation pipeline and committer
package businessflow

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/repository"
	"github.com/revinity/pacing-targets/utils"
)

// CSV column names, in template order
const (
	ColClientSubgroupID = "client_subgroup_id"
	ColTagID            = "tag_id"
	ColTagName          = "tag_name"
	ColTagHeader        = "tag_header"
	ColChannelID        = "channel_id"
	ColMonth            = "month"
	ColYear             = "year"
	ColSpendsTarget     = "spends_target"
)

// TemplateColumns is the header row of the import template.
var TemplateColumns = []string{
	ColClientSubgroupID, ColTagID, ColTagName, ColTagHeader,
	ColChannelID, ColMonth, ColYear, ColSpendsTarget,
}

// TemplateFilename is the download name of the import template.
const TemplateFilename = "pacing-targets-template.csv"

// Row error kinds carried in the per-row report
const (
	KindMissingFields       = "MISSING_FIELDS"
	KindInvalidClientID     = "INVALID_CLIENT_ID"
	KindInvalidTagID        = "INVALID_TAG_ID"
	KindInvalidChannel      = "INVALID_CHANNEL"
	KindInvalidSpendsTarget = "INVALID_SPENDS_TARGET"
	KindInvalidTagHeader    = "INVALID_TAG_HEADER"
	KindInvalidMonth        = "INVALID_MONTH"
	KindInvalidAccountName  = "INVALID_ACCOUNT_NAME"
	KindTagNotFound         = "TAG_NOT_FOUND"
	KindTagNameMismatch     = "TAG_NAME_MISMATCH"
	KindTagHeaderMismatch   = "TAG_HEADER_MISMATCH"
	KindDuplicateInCSV      = "DUPLICATE_IN_CSV"
	KindAlreadyExists       = "ALREADY_EXISTS"
	KindDataProcessing      = "DATA_PROCESSING_ERROR"
	KindStoreUnavailable    = "STORE_UNAVAILABLE"
)

// ImportFlow provides the CSV validation and commit use cases
type ImportFlow interface {
	ValidateCSV(ctx context.Context, file io.Reader) (*dto.ValidationReport, error)
	ImportCSV(ctx context.Context, file io.Reader, userID string) (*dto.ImportResult, error)
	Template() (filename, content string)
}

// ImportFlowImpl implements the import business flow
type ImportFlowImpl struct {
	targetRepo repository.PacingTargetRepository
	tagRepo    repository.TagMasterRepository
	clientRepo repository.ClientSubgroupRepository
	maxRows    int
}

// NewImportFlow creates a new import flow instance
func NewImportFlow(
	targetRepo repository.PacingTargetRepository,
	tagRepo repository.TagMasterRepository,
	clientRepo repository.ClientSubgroupRepository,
	maxRows int,
) ImportFlow {
	return &ImportFlowImpl{
		targetRepo: targetRepo,
		tagRepo:    tagRepo,
		clientRepo: clientRepo,
		maxRows:    maxRows,
	}
}

// candidate is a validated, normalized row ready to become a PacingTarget.
type candidate struct {
	clientSubgroupID int64
	tagName          string
	channel          int
	tagType          string
	tagID            int64
	month            string
	spendsTarget     float64
}

// rowReport accumulates the outcome of one validation pass over a file.
type rowReport struct {
	totalRows  int
	validRows  int
	emptyRows  int
	errors     []dto.RowError
	warnings   []dto.RowWarning
	candidates []candidate
}

// ValidateCSV parses and validates an uploaded file without persisting anything
func (f *ImportFlowImpl) ValidateCSV(ctx context.Context, file io.Reader) (*dto.ValidationReport, error) {
	rows, err := f.parse(file)
	if err != nil {
		return nil, err
	}

	report := f.validateRows(ctx, rows)

	message := "CSV validation successful! You can now import the data."
	if len(report.errors) > 0 {
		message = "CSV validation failed. Please fix the errors and try again."
	}

	return &dto.ValidationReport{
		Message:   message,
		TotalRows: report.totalRows,
		ValidRows: report.validRows,
		ErrorRows: len(report.errors),
		EmptyRows: report.emptyRows,
		Errors:    report.errors,
		Warnings:  report.warnings,
		CanImport: len(report.errors) == 0,
	}, nil
}

// ImportCSV re-validates the file and, only if fully clean, persists every
// candidate row as a single batch. The returned result is populated on
// validation failure too, so callers can surface per-row errors.
func (f *ImportFlowImpl) ImportCSV(ctx context.Context, file io.Reader, userID string) (*dto.ImportResult, error) {
	rows, err := f.parse(file)
	if err != nil {
		return nil, err
	}

	report := f.validateRows(ctx, rows)

	if len(report.errors) > 0 {
		result := &dto.ImportResult{
			Message:      "CSV validation failed. Please fix the errors and try again.",
			TotalRows:    report.totalRows,
			ValidRows:    0,
			ErrorRows:    len(report.errors),
			Errors:       report.errors,
			SavedTargets: 0,
		}
		return result, NewBusinessError("IMPORT_BLOCKED", "CSV validation failed", ErrImportBlocked)
	}

	if len(report.candidates) == 0 {
		result := &dto.ImportResult{
			Message:      "No valid data found in CSV",
			TotalRows:    report.totalRows,
			Errors:       []dto.RowError{},
			SavedTargets: 0,
		}
		return result, NewBusinessError("NO_VALID_DATA", "No valid data found in CSV", ErrNoValidData)
	}

	targets := make([]*models.PacingTarget, 0, len(report.candidates))
	clientNames := make(map[int64]string)
	for _, c := range report.candidates {
		name, ok := clientNames[c.clientSubgroupID]
		if !ok {
			name = f.resolveClientName(ctx, c.clientSubgroupID)
			clientNames[c.clientSubgroupID] = name
		}

		targets = append(targets, &models.PacingTarget{
			ClientName:       name,
			ClientSubgroupID: c.clientSubgroupID,
			TagName:          c.tagName,
			Channel:          c.channel,
			TagType:          c.tagType,
			TagID:            c.tagID,
			Month:            c.month,
			SpendsTarget:     c.spendsTarget,
			Status:           true,
			CreatedBy:        userID,
			ModifiedBy:       userID,
			LastModified:     utils.UTCNow(),
		})
	}

	if err := f.targetRepo.SaveBatch(ctx, targets); err != nil {
		result := &dto.ImportResult{
			Message:      "Error saving data to database",
			TotalRows:    report.totalRows,
			ValidRows:    len(report.candidates),
			Errors:       []dto.RowError{},
			SavedTargets: 0,
		}
		if repository.IsDuplicateKey(err) {
			return result, NewBusinessError("TARGET_ALREADY_EXISTS", "A concurrent import created one of these targets", ErrTargetAlreadyExists)
		}
		return result, NewBusinessError("IMPORT_FAILED", "Error saving data to database", err)
	}

	return &dto.ImportResult{
		Message:      "CSV processed successfully",
		TotalRows:    report.totalRows,
		ValidRows:    len(report.candidates),
		ErrorRows:    0,
		Errors:       []dto.RowError{},
		SavedTargets: len(targets),
	}, nil
}

// Template returns the import template as a CSV attachment
func (f *ImportFlowImpl) Template() (string, string) {
	return TemplateFilename, strings.Join(TemplateColumns, ",") + "\n"
}

// parse reads a CSV file into one string map per data row, keyed by the
// header row. Ragged rows are tolerated; missing cells read as "".
func (f *ImportFlowImpl) parse(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, NewBusinessError("CSV_PARSE_ERROR", "Error parsing CSV file", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewBusinessError("CSV_PARSE_ERROR", "Error parsing CSV file", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = record[i]
			} else {
				row[strings.TrimSpace(col)] = ""
			}
		}
		rows = append(rows, row)

		if f.maxRows > 0 && len(rows) > f.maxRows {
			return nil, NewBusinessErrorf("TOO_MANY_ROWS", "CSV file exceeds the maximum of %d rows", ErrFileTooLarge, f.maxRows)
		}
	}

	return rows, nil
}

// validateRows runs the full pipeline over every row in file order. One bad
// row never aborts processing of the rest; each row's first failure wins.
func (f *ImportFlowImpl) validateRows(ctx context.Context, rows []map[string]string) *rowReport {
	report := &rowReport{
		totalRows: len(rows),
		errors:    []dto.RowError{},
		warnings:  []dto.RowWarning{},
	}

	dupCounts := duplicateKeyCounts(rows)

	for i, row := range rows {
		rowNumber := i + 2 // physical file line: data index + header offset

		if isRowEmpty(row) {
			report.emptyRows++
			continue
		}

		c, rowErr, warning := f.validateRow(ctx, row, dupCounts)
		if warning != nil {
			warning.Row = rowNumber
			report.warnings = append(report.warnings, *warning)
		}
		if rowErr != nil {
			rowErr.Row = rowNumber
			rowErr.Data = row
			report.errors = append(report.errors, *rowErr)
			continue
		}

		report.validRows++
		report.candidates = append(report.candidates, *c)
	}

	return report
}

// validateRow applies the field, duplicate, cross-store and reference checks
// to one non-empty row. Returns the normalized candidate, or the first error.
func (f *ImportFlowImpl) validateRow(ctx context.Context, row map[string]string, dupCounts map[string]int) (*candidate, *dto.RowError, *dto.RowWarning) {
	for _, col := range TemplateColumns {
		if strings.TrimSpace(row[col]) == "" {
			return nil, &dto.RowError{
				Error:   KindMissingFields,
				Details: "All fields are required: client_subgroup_id, tag_id, tag_name, tag_header, channel_id, month, year, spends_target",
			}, nil
		}
	}

	clientSubgroupID, err := strconv.ParseInt(strings.TrimSpace(row[ColClientSubgroupID]), 10, 64)
	if err != nil {
		return nil, &dto.RowError{
			Error:   KindInvalidClientID,
			Details: "client_subgroup_id must be a valid number",
		}, nil
	}

	tagHeader := row[ColTagHeader]

	var tagID int64
	if tagHeader == models.TagTypeAccount {
		// Account rows carry no real tag id
		tagID = models.AccountTagID
	} else {
		tagID, err = strconv.ParseInt(strings.TrimSpace(row[ColTagID]), 10, 64)
		if err != nil {
			return nil, &dto.RowError{
				Error:   KindInvalidTagID,
				Details: "tag_id must be a valid number",
			}, nil
		}
	}

	channelID, err := strconv.Atoi(strings.TrimSpace(row[ColChannelID]))
	if err != nil || !models.IsValidChannel(channelID) {
		return nil, &dto.RowError{
			Error:   KindInvalidChannel,
			Details: fmt.Sprintf("channel_id must be one of: %s", joinInts(models.ValidChannels)),
		}, nil
	}

	spendsTarget, err := strconv.ParseFloat(strings.TrimSpace(row[ColSpendsTarget]), 64)
	if err != nil || spendsTarget < 0 {
		return nil, &dto.RowError{
			Error:   KindInvalidSpendsTarget,
			Details: "spends_target must be a non-negative number (>= 0)",
		}, nil
	}

	if !models.IsValidTagType(tagHeader) {
		return nil, &dto.RowError{
			Error:   KindInvalidTagHeader,
			Details: "tag_header must be either 'Category', 'Sub Category', or 'Account'",
		}, nil
	}

	if dupCounts[duplicateKey(row)] > 1 {
		return nil, &dto.RowError{
			Error: KindDuplicateInCSV,
			Details: fmt.Sprintf("%s entry already exists for client_subgroup_id=%s, channel_id=%s, tag_id=%s, month=%s, and year=%s in this upload",
				tagHeader, row[ColClientSubgroupID], row[ColChannelID], row[ColTagID], row[ColMonth], row[ColYear]),
		}, nil
	}

	monthNum, err := strconv.Atoi(strings.TrimSpace(row[ColMonth]))
	if err != nil || monthNum < 1 || monthNum > 12 {
		return nil, &dto.RowError{
			Error:   KindInvalidMonth,
			Details: "Month must be a number between 1-12",
		}, nil
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[ColYear]))
	if err != nil {
		return nil, &dto.RowError{
			Error:   KindInvalidMonth,
			Details: "Year must be a valid number",
		}, nil
	}

	monthString := models.CanonicalMonth(monthNum, year)

	var warning *dto.RowWarning

	key := models.UniquenessKey{
		ClientSubgroupID: clientSubgroupID,
		Channel:          channelID,
		TagType:          tagHeader,
		TagID:            tagID,
		Month:            monthString,
	}
	exists, err := f.targetRepo.ExistsByKey(ctx, key)
	if err != nil {
		// Fail-open: a transient target store failure passes the row,
		// surfaced as a warning rather than silently swallowed.
		warning = &dto.RowWarning{
			Warning: KindStoreUnavailable,
			Details: "Could not verify against existing targets; the uniqueness check was skipped",
		}
	} else if exists {
		return nil, &dto.RowError{
			Error: KindAlreadyExists,
			Details: fmt.Sprintf("%s entry already exists in database for client_subgroup_id=%d, channel_id=%d, tag_id=%d, and month=%s",
				tagHeader, clientSubgroupID, channelID, tagID, monthString),
		}, warning
	}

	tagName := strings.TrimSpace(row[ColTagName])

	if tagHeader == models.TagTypeAccount {
		if tagName != models.TagTypeAccount {
			return nil, &dto.RowError{
				Error:   KindInvalidAccountName,
				Details: "Tag name for Account type must be exactly 'Account'",
			}, warning
		}
	} else {
		tag, err := f.tagRepo.ActiveTag(ctx, clientSubgroupID, tagID)
		if err != nil {
			return nil, &dto.RowError{
				Error:   KindDataProcessing,
				Details: err.Error(),
			}, warning
		}
		if tag == nil {
			return nil, &dto.RowError{
				Error:   KindTagNotFound,
				Details: fmt.Sprintf("No active tag found with client_subgroup_id=%d and tag_id=%d", clientSubgroupID, tagID),
			}, warning
		}
		if tag.TagName != tagName {
			return nil, &dto.RowError{
				Error:   KindTagNameMismatch,
				Details: fmt.Sprintf("Tag name '%s' doesn't match database value '%s'", row[ColTagName], tag.TagName),
			}, warning
		}
		if tag.TagHeader() != tagHeader {
			return nil, &dto.RowError{
				Error:   KindTagHeaderMismatch,
				Details: fmt.Sprintf("Tag header '%s' doesn't match database value '%s'", tagHeader, tag.TagHeader()),
			}, warning
		}
	}

	return &candidate{
		clientSubgroupID: clientSubgroupID,
		tagName:          tagName,
		channel:          channelID,
		tagType:          tagHeader,
		tagID:            tagID,
		month:            monthString,
		spendsTarget:     spendsTarget,
	}, nil, warning
}

func (f *ImportFlowImpl) resolveClientName(ctx context.Context, clientSubgroupID int64) string {
	client, err := f.clientRepo.ByID(ctx, clientSubgroupID)
	if err != nil || client == nil {
		return fmt.Sprintf("Client %d", clientSubgroupID)
	}
	return client.ClientSubgroupName
}

// duplicateKeyCounts counts uploads of each uniqueness tuple so every
// colliding row can be flagged independently.
func duplicateKeyCounts(rows []map[string]string) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		counts[duplicateKey(row)]++
	}
	return counts
}

// duplicateKey builds the intra-file uniqueness tuple of a row. Month, year
// and tag_id are compared canonicalized, so "8" and "08" collide and Account
// rows collide regardless of their raw tag_id; unparsable values fall back
// to raw string comparison.
func duplicateKey(row map[string]string) string {
	month := strings.TrimSpace(row[ColMonth])
	year := strings.TrimSpace(row[ColYear])
	if m, err := strconv.Atoi(month); err == nil {
		if y, err := strconv.Atoi(year); err == nil {
			month = strconv.Itoa(m)
			year = strconv.Itoa(y)
		}
	}

	tagID := strings.TrimSpace(row[ColTagID])
	if strings.TrimSpace(row[ColTagHeader]) == models.TagTypeAccount {
		// The field validator coerces Account rows to the synthetic tag id
		tagID = strconv.Itoa(models.AccountTagID)
	} else if id, err := strconv.ParseInt(tagID, 10, 64); err == nil {
		tagID = strconv.FormatInt(id, 10)
	}

	return strings.Join([]string{
		strings.TrimSpace(row[ColClientSubgroupID]),
		strings.TrimSpace(row[ColChannelID]),
		strings.TrimSpace(row[ColTagHeader]),
		tagID,
		month,
		year,
	}, "|")
}

// isRowEmpty reports whether every cell in the row is blank.
func isRowEmpty(row map[string]string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// joinInts renders an int slice as "1, 2, 27".
func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
