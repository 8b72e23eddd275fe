package metadata

import (
	"errors"
	"fmt"
)

// Failure classes surfaced by every adapter. The queue uses them to decide
// whether an attempt counts against a job's max_attempts.
var (
	// ErrNotFound means the upstream authoritatively has no such entity.
	ErrNotFound = errors.New("not found upstream")
	// ErrForbidden means credentials or permissions were rejected.
	ErrForbidden = errors.New("forbidden by upstream")
	// ErrRateLimited is a transient condition; the retry loop backs off on it.
	ErrRateLimited = errors.New("rate limited by upstream")
)

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient marks an error as retryable: network resets, timeouts, 5xx, 429.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err}
}

// Permanent marks an error as non-retryable: bad schema, invalid content type.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

func Transientf(format string, args ...interface{}) error {
	return &transientError{fmt.Errorf(format, args...)}
}

func Permanentf(format string, args ...interface{}) error {
	return &permanentError{fmt.Errorf(format, args...)}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsTransient reports whether the job queue should leave the work pending
// for another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var t *transientError
	return errors.As(err, &t)
}

// IsPermanent reports whether retrying is pointless. NotFound and Forbidden
// are authoritative answers, not failures to be retried.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if IsNotFound(err) || IsForbidden(err) {
		return true
	}
	var p *permanentError
	return errors.As(err, &p)
}
