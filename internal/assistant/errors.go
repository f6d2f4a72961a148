package assistant

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when the generation backend needs an
	// API key and none was resolved. No provider call is made.
	ErrMissingCredential = errors.New("no API key configured for the generation provider")
	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("generation provider failed")
)

// ProviderError wraps a failure reported by a generation backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrProvider, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProvider) match.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}
