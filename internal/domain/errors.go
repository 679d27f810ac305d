package domain

import (
	"fmt"
)

// Error codes for the failure taxonomy. Only input-format errors are fatal
// for a request; everything else degrades with the degradation visible in
// the output.
const (
	ErrInputFormat     = "INPUT_FORMAT_ERROR"
	ErrUnknownDrug     = "UNKNOWN_DRUG"
	ErrUnknownSession  = "UNKNOWN_SESSION"
	ErrCatalogInvalid  = "CATALOG_INVALID"
	ErrExternalService = "EXTERNAL_SERVICE_ERROR"
	ErrInternalServer  = "INTERNAL_SERVER_ERROR"
)

// InputFormatError indicates an unparsable variant file or a record missing
// a mandatory genotype field. It aborts the request with no partial result.
type InputFormatError struct {
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *InputFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("input format error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("input format error: %s", e.Message)
}

// NewInputFormatError creates an InputFormatError for a specific line
func NewInputFormatError(line int, format string, args ...interface{}) *InputFormatError {
	return &InputFormatError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// UnknownDrugError indicates a drug name absent from the guideline catalog.
// It is recovered via the sentinel "Unknown" assessment and never fatal.
type UnknownDrugError struct {
	Drug string `json:"drug"`
}

// Error implements the error interface
func (e *UnknownDrugError) Error() string {
	return fmt.Sprintf("drug %q not found in guideline catalog", e.Drug)
}

// SessionNotFoundError indicates an unknown or evicted session identifier
type SessionNotFoundError struct {
	ID string `json:"id"`
}

// Error implements the error interface
func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// CatalogError indicates an invalid reference catalog. Catalog errors are
// hard startup failures; the catalog is never loaded partially.
type CatalogError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %s", e.File, e.Message)
}

// NewCatalogError creates a CatalogError for a catalog file
func NewCatalogError(file, format string, args ...interface{}) *CatalogError {
	return &CatalogError{File: file, Message: fmt.Sprintf(format, args...)}
}

// ExternalServiceError indicates a failed explanation-service call. It is
// recovered via templated fallback text and never blocks an assessment.
type ExternalServiceError struct {
	Service string `json:"service"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s failed: %v", e.Service, e.Cause)
}

// Unwrap exposes the underlying cause
func (e *ExternalServiceError) Unwrap() error {
	return e.Cause
}
