package site

import (
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrNotFound is returned when a referenced site id is absent.
	ErrNotFound = errors.Base("site not found")
	// ErrForbidden is returned when the acting user does not own the site.
	ErrForbidden = errors.Base("site belongs to another user")
	// ErrValidation wraps every rejected upload; see ValidationError for the reason.
	ErrValidation = errors.Base("validation failed")
	// ErrNoPendingAction is returned when a file or confirmation arrives unrequested.
	ErrNoPendingAction = errors.Base("no pending action")
	// ErrStorage is returned when the metadata store or asset store cannot be written.
	ErrStorage = errors.Base("storage failure")
	// ErrUpstream is returned when the messaging gateway or QR provider fails.
	ErrUpstream = errors.Base("upstream failure")
)

// ValidationReason names why an upload was rejected.
type ValidationReason string

const (
	ReasonExtension ValidationReason = "extension"
	ReasonTooLarge  ValidationReason = "too_large"
	ReasonContent   ValidationReason = "content"
)

// ValidationError is a rejected upload. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation failed: " + string(e.Reason)
	}
	return "validation failed: " + string(e.Reason) + ": " + e.Detail
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.cause.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// Wrap tags cause with one of the sentinel kinds above so callers can match
// both the kind and the underlying error.
func Wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&kindError{kind: kind, cause: cause})
}

// Reason extracts the validation reason from err, if any.
func Reason(err error) (ValidationReason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}
