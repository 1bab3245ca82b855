package signature

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const artifactPath = "/stable/release-service/24.08.1/src/kcalc-24.08.1.tar.xz"

// fakeGPG writes a shell script that records its arguments, the signature it
// was given and its stdin into dir, then exits with code. Tests using it do not
// run in parallel: exec of a file another goroutine's fork still holds open for
// writing fails with ETXTBSY.
func fakeGPG(t *testing.T, dir string, code int) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake gpg is a shell script")
	}

	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %[1]q/args
while [ $# -gt 0 ]; do
  if [ "$1" = "--verify" ]; then cp "$2" %[1]q/sig; fi
  shift
done
cat > %[1]q/stdin
if [ %[2]d -ne 0 ]; then echo "gpg: BAD signature from \"KDE\"" >&2; fi
exit %[2]d
`, dir, code)

	path := filepath.Join(dir, "gpg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755)) //nolint:gosec // Test helper must be executable.

	return path
}

func signatureServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != artifactPath+Suffix {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write([]byte("SIGNATURE"))
	}))
	t.Cleanup(server.Close)

	return server
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(content)
}

// TestVerify_Success feeds the artifact on stdin and the signature as a file.
func TestVerify_Success(t *testing.T) { //nolint:paralleltest // See fakeGPG.
	dir := t.TempDir()
	server := signatureServer(t)
	verifier := NewGPGVerifier(server.Client(), fakeGPG(t, dir, 0), []string{"--keyring", "kde.gpg"})

	err := verifier.Verify(context.Background(), server.URL+artifactPath, []byte("tarball bytes"))
	require.NoError(t, err)

	args := strings.Split(strings.TrimSpace(readFile(t, filepath.Join(dir, "args"))), "\n")
	require.Len(t, args, 5)
	require.Equal(t, []string{"--keyring", "kde.gpg", "--verify"}, args[:3])
	require.Equal(t, "-", args[4])
	require.NoFileExists(t, args[3], "signature temp file must be removed")

	require.Equal(t, "SIGNATURE", readFile(t, filepath.Join(dir, "sig")))
	require.Equal(t, "tarball bytes", readFile(t, filepath.Join(dir, "stdin")))
}

// TestVerify_Rejected returns the tool output in a VerificationError.
func TestVerify_Rejected(t *testing.T) { //nolint:paralleltest // See fakeGPG.
	dir := t.TempDir()
	server := signatureServer(t)
	url := server.URL + artifactPath

	err := NewGPGVerifier(server.Client(), fakeGPG(t, dir, 1), nil).Verify(context.Background(), url, []byte("tampered"))
	require.ErrorIs(t, err, ErrVerification)

	var verifyErr *VerificationError
	require.ErrorAs(t, err, &verifyErr)
	require.Equal(t, url, verifyErr.URL)
	require.Contains(t, verifyErr.Output, "BAD signature")
	require.Contains(t, err.Error(), "BAD signature")

	args := strings.Split(strings.TrimSpace(readFile(t, filepath.Join(dir, "args"))), "\n")
	require.NoFileExists(t, args[1])
}

// TestVerify_MissingSignature fails before running the tool.
func TestVerify_MissingSignature(t *testing.T) { //nolint:paralleltest // See fakeGPG.
	dir := t.TempDir()
	server := signatureServer(t)

	err := NewGPGVerifier(server.Client(), fakeGPG(t, dir, 0), nil).
		Verify(context.Background(), server.URL+"/other.tar.xz", []byte("x"))
	require.ErrorIs(t, err, ErrSignatureFetch)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.True(t, strings.HasSuffix(fetchErr.URL, "/other.tar.xz.sig"))

	require.NoFileExists(t, filepath.Join(dir, "args"))
}

// TestVerify_MissingBinary reports a tool that cannot be started.
func TestVerify_MissingBinary(t *testing.T) {
	t.Parallel()

	server := signatureServer(t)
	binary := filepath.Join(t.TempDir(), "no-such-gpg")

	err := NewGPGVerifier(server.Client(), binary, nil).Verify(context.Background(), server.URL+artifactPath, []byte("x"))
	require.ErrorIs(t, err, ErrVerification)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestNewGPGVerifier_Defaults fills in the client and binary.
func TestNewGPGVerifier_Defaults(t *testing.T) {
	t.Parallel()

	v := NewGPGVerifier(nil, "", nil)
	require.Same(t, http.DefaultClient, v.client)
	require.Equal(t, DefaultBinary, v.binary)
}

// TestVerify_OversizedSignature refuses a signature over the size limit instead of truncating it.
func TestVerify_OversizedSignature(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, maxSignatureSize+1))
	}))
	t.Cleanup(server.Close)

	binary := filepath.Join(t.TempDir(), "never-run-gpg")

	err := NewGPGVerifier(server.Client(), binary, nil).Verify(context.Background(), server.URL+artifactPath, []byte("x"))
	require.ErrorIs(t, err, ErrSignatureFetch)
	require.ErrorIs(t, err, errSignatureTooLarge)
	require.NotErrorIs(t, err, ErrVerification)
}
