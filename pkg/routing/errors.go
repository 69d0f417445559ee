package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the resolution taxonomy.
var (
	ErrUnknownStatus           = errors.New("unknown status")
	ErrUnconfiguredStatus      = errors.New("status has no configured destination")
	ErrUnsupportedVendorStatus = errors.New("vendor does not support status")
	ErrUnknownCell             = errors.New("unknown cell")
	ErrMalformedURL            = errors.New("malformed destination url")
)

// Error codes carried by ResolutionError.
const (
	CodeUnknownStatus           = "UNKNOWN_STATUS"
	CodeUnconfiguredStatus      = "UNCONFIGURED_STATUS"
	CodeUnsupportedVendorStatus = "UNSUPPORTED_VENDOR_STATUS"
	CodeUnknownCell             = "UNKNOWN_CELL"
	CodeMalformedURL            = "MALFORMED_URL"
)

// ResolutionError describes why a redirect target could not be produced.
// Message is safe to show to respondents; Err keeps the detail for logs.
type ResolutionError struct {
	Code    string
	Message string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UserMessage returns the respondent-facing message.
func (e *ResolutionError) UserMessage() string { return e.Message }

func (e *ResolutionError) Unwrap() error { return e.Err }

func newError(code, message string, sentinel error, cause error) error {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &ResolutionError{Code: code, Message: message, Err: err}
}

// NewUnknownStatusError reports a raw status that matched no alias.
func NewUnknownStatusError(raw string) error {
	return newError(CodeUnknownStatus, "Unknown status", ErrUnknownStatus, fmt.Errorf("raw=%q", raw))
}

// NewUnknownCellError reports an entry for a missing cell.
func NewUnknownCellError(cell string, known []string) error {
	msg := "Unknown cell."
	if len(known) > 0 {
		msg = fmt.Sprintf("Unknown cell. Use one of: %s", strings.Join(known, ", "))
	}
	return newError(CodeUnknownCell, msg, ErrUnknownCell, fmt.Errorf("cell=%q", cell))
}

// IsUnknownStatus reports whether err is ErrUnknownStatus.
func IsUnknownStatus(err error) bool { return errors.Is(err, ErrUnknownStatus) }

// IsUnknownCell reports whether err is ErrUnknownCell.
func IsUnknownCell(err error) bool { return errors.Is(err, ErrUnknownCell) }

// IsConfigurationError reports failures an operator has to fix.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrUnconfiguredStatus) ||
		errors.Is(err, ErrUnsupportedVendorStatus) ||
		errors.Is(err, ErrMalformedURL)
}

// CodeOf extracts the ResolutionError code, or "" for other errors.
func CodeOf(err error) string {
	var rerr *ResolutionError
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}
