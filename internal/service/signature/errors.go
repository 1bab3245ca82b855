package signature

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSignatureFetch classifies failures to download a detached signature.
	ErrSignatureFetch = errors.New("signature fetch failed")
	// ErrVerification classifies signatures the OpenPGP tool rejected or could not check.
	ErrVerification = errors.New("signature verification failed")

	errSignatureTooLarge = errors.New("signature is too large")
)

// FetchError describes a failed request for "{url}.sig".
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch signature %s: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("fetch signature %s: unexpected status %s", e.URL, e.Status)
}

// Unwrap returns ErrSignatureFetch and the transport error, if any.
func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSignatureFetch, e.Err}
	}

	return []error{ErrSignatureFetch}
}

// VerificationError carries the diagnostic output of the OpenPGP tool.
type VerificationError struct {
	// URL of the artifact whose signature was checked.
	URL string
	// Output is what the tool wrote to stderr.
	Output string
	// Err is the exit or start error.
	Err error
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("verify signature of %s: %v", e.URL, e.Err)
	if output := strings.TrimSpace(e.Output); output != "" {
		msg += "\n" + output
	}

	return msg
}

// Unwrap returns ErrVerification and the underlying process error.
func (e *VerificationError) Unwrap() []error {
	return []error{ErrVerification, e.Err}
}
