package models

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error code constants - shared with the CLI's error output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No model files found
	ErrCodeLoadFailed  = "E004" // File read or parse failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	// Model validation errors
	ErrCodeInvalidModel   = "E101" // Model has no name or no fields
	ErrCodeInvalidField   = "E102" // Field has no name or is declared twice
	ErrCodeInvalidType    = "E104" // Unsupported field type
	ErrCodeInvalidDefault = "E105" // Default does not fit the field type
	ErrCodeDuplicateTable = "E106" // Two models map to one table
)

// LoadError represents an error that occurred during model loading.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
