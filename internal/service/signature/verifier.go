package signature

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"

	"github.com/oshokin/kde-manifest-updater/internal/logger"
)

const (
	// DefaultBinary is the OpenPGP tool used when none is configured.
	DefaultBinary = "gpg2"

	// Suffix is appended to an artifact URL to locate its detached signature.
	Suffix = ".sig"

	// maxSignatureSize caps the detached signature body.
	maxSignatureSize = 1 << 20
)

// GPGVerifier runs "{binary} {args...} --verify {sigfile} -" with the
// artifact on stdin.
type GPGVerifier struct {
	client *http.Client
	binary string
	args   []string
}

// NewGPGVerifier returns a verifier. A nil client means http.DefaultClient and
// an empty binary means DefaultBinary. args go before --verify, e.g. a --keyring.
func NewGPGVerifier(client *http.Client, binary string, args []string) *GPGVerifier {
	if client == nil {
		client = http.DefaultClient
	}

	if binary == "" {
		binary = DefaultBinary
	}

	return &GPGVerifier{
		client: client,
		binary: binary,
		args:   args,
	}
}

// Verify downloads "{url}.sig" and checks it against content.
func (v *GPGVerifier) Verify(ctx context.Context, url string, content []byte) error {
	sig, err := v.fetch(ctx, url+Suffix)
	if err != nil {
		return err
	}

	sigFile, err := writeTemp(sig)
	if err != nil {
		return &VerificationError{URL: url, Err: err}
	}

	defer func() {
		_ = os.Remove(sigFile)
	}()

	args := make([]string, 0, len(v.args)+3)
	args = append(args, v.args...)
	args = append(args, "--verify", sigFile, "-")

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, v.binary, args...) //nolint:gosec // Binary and args come from local configuration.
	cmd.Stdin = bytes.NewReader(content)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	logger.DebugKV(ctx, "Verifying signature", "url", url, "binary", v.binary)

	if err = cmd.Run(); err != nil {
		return &VerificationError{URL: url, Output: stderr.String(), Err: err}
	}

	return nil
}

func (v *GPGVerifier) fetch(ctx context.Context, sigURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sigURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: sigURL, Err: err}
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: sigURL, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: sigURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	// One byte past the limit tells an oversized signature from one that fits exactly.
	sig, err := io.ReadAll(io.LimitReader(resp.Body, maxSignatureSize+1))
	if err != nil {
		return nil, &FetchError{URL: sigURL, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if len(sig) > maxSignatureSize {
		return nil, &FetchError{
			URL:        sigURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("%w: over %d bytes", errSignatureTooLarge, maxSignatureSize),
		}
	}

	return sig, nil
}

// writeTemp stores the signature in a file only the current user can read.
func writeTemp(sig []byte) (string, error) {
	file, err := os.CreateTemp("", "kde-update-*"+Suffix)
	if err != nil {
		return "", fmt.Errorf("create signature file: %w", err)
	}

	name := file.Name()

	_, err = file.Write(sig)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("write signature file: %w", err)
	}

	return name, nil
}
