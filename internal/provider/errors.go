package provider

import (
	"errors"
	"fmt"
)

// AuthError reports a failed authentication against a remote archive.
// Missing distinguishes "no credential configured" from "credential
// rejected by the archive".
type AuthError struct {
	Provider string
	Missing  bool
	Err      error
}

func (e *AuthError) Error() string {
	if e.Missing {
		return fmt.Sprintf("provider %s: no credential configured", e.Provider)
	}
	return fmt.Sprintf("provider %s: credential rejected: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError reports a retryable failure: network blip, timeout,
// rate limiting, or a server-side error. Callers may retry with
// backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError reports a terminal failure: the remote object is
// absent or the request is malformed. Callers must not retry.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: permanent failure: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is terminal.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
