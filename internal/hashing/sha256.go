// Package hashing computes content hashes used by the Duplicate Index and
// by the Connection Handler's Hash step.
package hashing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const chunkSize = 8 * 1024

// SHA256Hasher streams a file through SHA-256 in fixed-size chunks.
type SHA256Hasher struct{}

// NewSHA256Hasher returns a Hasher with no state.
func NewSHA256Hasher() SHA256Hasher { return SHA256Hasher{} }

// HashFile returns the lowercase hex SHA-256 digest of path. Deterministic
// and idempotent: repeated calls on unchanged content return the same
// value.
func (SHA256Hasher) HashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("io-error: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("io-error: read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
