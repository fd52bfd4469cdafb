package services

import (
	"errors"
	"fmt"

	"github.com/autoecole/enrollment-service/internal/validator"
)

// ErrorKind is the failure family a handler maps to an HTTP status.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindUnauthenticated     ErrorKind = "unauthenticated"
	KindInvalidState        ErrorKind = "invalid_state"
	KindInconsistentState   ErrorKind = "inconsistent_state"
	KindDuplicateEnrollment ErrorKind = "duplicate_enrollment"
	KindMissingReason       ErrorKind = "missing_reason"
	KindValidation          ErrorKind = "validation"
	KindInternal            ErrorKind = "internal"
)

// Error is a workflow failure with a stable machine-readable code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code, so a copy with a more specific message still
// satisfies errors.Is against the sentinel it was derived from.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// withMessage copies a sentinel with a request-specific message.
func withMessage(base *Error, format string, args ...interface{}) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...), Details: base.Details}
}

var (
	ErrUserNotFound         = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrSchoolNotFound       = newError(KindNotFound, "SCHOOL_NOT_FOUND", "driving school not found")
	ErrEnrollmentNotFound   = newError(KindNotFound, "ENROLLMENT_NOT_FOUND", "enrollment not found")
	ErrDocumentNotFound     = newError(KindNotFound, "DOCUMENT_NOT_FOUND", "document not found")
	ErrNotificationNotFound = newError(KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")

	ErrUnauthorized       = newError(KindUnauthorized, "UNAUTHORIZED", "not allowed to act on this resource")
	ErrInvalidCredentials = newError(KindUnauthenticated, "INVALID_CREDENTIALS", "invalid email or password")

	ErrNotPending        = newError(KindInvalidState, "NOT_PENDING", "document has already been decided")
	ErrTerminalState     = newError(KindInvalidState, "TERMINAL_STATE", "enrollment is closed")
	ErrInvalidTransition = newError(KindInvalidState, "INVALID_TRANSITION", "transition not allowed from the current status")
	ErrInconsistentState = newError(KindInconsistentState, "INCONSISTENT_STATE", "enrollment status disagrees with its documents")

	ErrDuplicateEnrollment = newError(KindDuplicateEnrollment, "DUPLICATE_ENROLLMENT", "an active enrollment already exists for this school")
	ErrEmailTaken          = newError(KindDuplicateEnrollment, "EMAIL_TAKEN", "email is already registered")

	ErrMissingReason = newError(KindMissingReason, "MISSING_REASON", "a reason is required")

	ErrValidation          = newError(KindValidation, "VALIDATION_FAILED", "request validation failed")
	ErrInvalidDocumentType = newError(KindValidation, "INVALID_DOCUMENT_TYPE", "unknown document type")
)

// KindOf returns the family of err, or KindInternal for errors outside the
// taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// validationFailed converts validator output into a VALIDATION_FAILED error
// carrying the per-field details.
func validationFailed(err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fe := range fieldErrors {
			if fe.Rule == "document_type" {
				return &Error{Kind: KindValidation, Code: ErrInvalidDocumentType.Code, Message: fe.Field + " " + fe.Message, Details: fieldErrors}
			}
		}
		return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: fieldErrors.Error(), Details: fieldErrors}
	}
	return fmt.Errorf("validation failed: %w", err)
}
