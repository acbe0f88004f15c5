// Package businessflow contains the core business logic and use cases for the pacing targets service
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Target-related errors
	ErrTargetNotFound      = errors.New("target not found")
	ErrTargetAlreadyExists = errors.New("target already exists")
	ErrInvalidTargetID     = errors.New("invalid target id")
	ErrInvalidMonthFormat  = errors.New("month must be in YYYY-MM format")
	ErrInvalidChannel      = errors.New("channel is not in the allowed set")
	ErrInvalidTagType      = errors.New("tag type must be Category, Sub Category or Account")

	// Tag lookup errors
	ErrTagNotFound         = errors.New("tag not found")
	ErrClientNotFound      = errors.New("client subgroup not found")
	ErrSearchQueryTooShort = errors.New("search query must be at least 2 characters")

	// Upload errors
	ErrNoFileUploaded = errors.New("no file uploaded")
	ErrNotCSVFile     = errors.New("uploaded file is not a CSV")
	ErrFileTooLarge   = errors.New("uploaded file exceeds the size limit")
	ErrNoValidData    = errors.New("no valid data rows to import")
	ErrImportBlocked  = errors.New("validation errors prevent import")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsUserAlreadyExists(err error) bool {
	return errors.Is(err, ErrUserAlreadyExists)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsTargetNotFound(err error) bool {
	return errors.Is(err, ErrTargetNotFound)
}

func IsTargetAlreadyExists(err error) bool {
	return errors.Is(err, ErrTargetAlreadyExists)
}

func IsInvalidTargetID(err error) bool {
	return errors.Is(err, ErrInvalidTargetID)
}

func IsInvalidMonthFormat(err error) bool {
	return errors.Is(err, ErrInvalidMonthFormat)
}

func IsInvalidChannel(err error) bool {
	return errors.Is(err, ErrInvalidChannel)
}

func IsInvalidTagType(err error) bool {
	return errors.Is(err, ErrInvalidTagType)
}

func IsTagNotFound(err error) bool {
	return errors.Is(err, ErrTagNotFound)
}

func IsClientNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound)
}

func IsSearchQueryTooShort(err error) bool {
	return errors.Is(err, ErrSearchQueryTooShort)
}

func IsNoFileUploaded(err error) bool {
	return errors.Is(err, ErrNoFileUploaded)
}

func IsNotCSVFile(err error) bool {
	return errors.Is(err, ErrNotCSVFile)
}

func IsFileTooLarge(err error) bool {
	return errors.Is(err, ErrFileTooLarge)
}

func IsNoValidData(err error) bool {
	return errors.Is(err, ErrNoValidData)
}

func IsImportBlocked(err error) bool {
	return errors.Is(err, ErrImportBlocked)
}
