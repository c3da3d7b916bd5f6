package errclass

import (
	"fmt"

	"github.com/sgov-project/sgov/pkg/model"
)

// GovError is a stable, machine-readable error class.
type GovError struct {
	Code    string
	Message string
}

func (e *GovError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GovError) Is(target error) bool {
	t, ok := target.(*GovError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new GovError with the same Code but a specific message.
func (e *GovError) WithMessage(msg string) *GovError {
	return &GovError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new GovError with a formatted message.
func (e *GovError) WithMessagef(format string, args ...any) *GovError {
	return &GovError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Stable error classes.
var (
	ErrInvalidTransition           = &GovError{Code: "E_INVALID_TRANSITION"}
	ErrAlreadyFlagged              = &GovError{Code: "E_ALREADY_FLAGGED"}
	ErrInvalidExtension            = &GovError{Code: "E_INVALID_EXTENSION"}
	ErrRequiresDisableConfirmation = &GovError{Code: "E_REQUIRES_DISABLE_CONFIRMATION"}
	ErrUnknownStatus               = &GovError{Code: "E_UNKNOWN_STATUS"}
	ErrRecordNotFound              = &GovError{Code: "E_RECORD_NOT_FOUND"}
	ErrRevisionConflict            = &GovError{Code: "E_REVISION_CONFLICT"}
	ErrNameInvalid                 = &GovError{Code: "E_NAME_INVALID"}
	ErrAuditChainBroken            = &GovError{Code: "E_AUDIT_CHAIN_BROKEN"}
)

// TransitionError reports a rejected status change and carries both codes.
// It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	SearchName string
	From       model.StatusCode
	To         model.StatusCode
}

func (e *TransitionError) Error() string {
	from := string(e.From)
	if from == "" {
		from = "none"
	}
	if e.SearchName == "" {
		return fmt.Sprintf("%s: cannot move from %s to %s", ErrInvalidTransition.Code, from, e.To)
	}
	return fmt.Sprintf("%s: cannot move '%s' from %s to %s", ErrInvalidTransition.Code, e.SearchName, from, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
