package gateways

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// checksumVerifier checks downloaded files against the digest reported by the release API
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// ParseDigest splits an "algo:hex" digest. Only sha256 and sha512 are understood.
func ParseDigest(digest string) (algo, sum string, ok bool) {
	algo, sum, found := strings.Cut(strings.TrimSpace(digest), ":")
	if !found {
		return "", "", false
	}
	algo = strings.ToLower(algo)
	sum = strings.ToLower(sum)
	switch algo {
	case "sha256":
		ok = len(sum) == sha256.Size*2
	case "sha512":
		ok = len(sum) == sha512.Size*2
	}
	if ok {
		if _, err := hex.DecodeString(sum); err != nil {
			ok = false
		}
	}
	return algo, sum, ok
}

// VerifyDigest verifies a file against an "algo:hex" digest.
// Unknown digest formats are skipped and reported through the bool result.
func (v *checksumVerifier) VerifyDigest(_ context.Context, filePath, digest string) (bool, error) {
	algo, expected, ok := ParseDigest(digest)
	if !ok {
		return false, nil
	}

	actual, err := v.CalculateChecksum(filePath, algo)
	if err != nil {
		return false, err
	}

	if actual != expected {
		return true, fmt.Errorf("%s mismatch: expected %s, got %s", algo, expected, actual)
	}
	return true, nil
}

// CalculateChecksum calculates the hex digest of a file
func (v *checksumVerifier) CalculateChecksum(filePath, algo string) (string, error) {
	var h hash.Hash
	switch algo {
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported digest algorithm: %s", algo)
	}

	//nolint:gosec // G304: File path is the staged download
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
