package core

import (
	"errors"

	"gwi.com/reelpick/internal/store"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUpstreamFailure      = errors.New("completion service failed")
	ErrEmptyResponse        = errors.New("no response from completion service")
	ErrSigningSecretMissing = errors.New("session signing secret is not configured")

	// ErrEmailTaken is returned by Register when the email already belongs to
	// an account.
	ErrEmailTaken = store.ErrEmailTaken
)

// InputError carries a client-facing message and unwraps to ErrInvalidInput.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(msg string) error {
	return &InputError{Message: msg}
}
