// Package dedup implements the Duplicate Index: a directory scan that
// answers whether a finalized file with a given content hash already
// exists among the uploads.
package dedup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"videoingest/internal/domain/ports"
)

const tempFilePrefix = "vid-"
const tempFileSuffix = ".tmp"

// DirScanIndex hashes every finalized candidate in a directory to answer
// HasDuplicate. It holds no state between calls; each call is a fresh scan.
type DirScanIndex struct {
	hasher ports.Hasher
}

// NewDirScanIndex returns a Duplicate Index backed by hasher.
func NewDirScanIndex(hasher ports.Hasher) *DirScanIndex {
	return &DirScanIndex{hasher: hasher}
}

// IsTempOrHidden reports whether name matches the temp-file pattern
// vid-<opaque>.tmp or begins with a dot, per §3's exclusion rules.
func IsTempOrHidden(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.HasPrefix(name, tempFilePrefix) && strings.HasSuffix(name, tempFileSuffix)
}

// HasDuplicate reports whether some regular file in uploadsDir, other than
// ignorePath and other than a temp or hidden file, hashes to hash. A
// missing directory yields false. Errors hashing an individual candidate
// are logged and that candidate is treated as a non-match.
func (d *DirScanIndex) HasDuplicate(ctx context.Context, uploadsDir, hash, ignorePath string) (bool, error) {
	entries, err := os.ReadDir(uploadsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	want := strings.ToLower(hash)
	ignoreAbs, _ := filepath.Abs(ignorePath)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if entry.IsDir() || IsTempOrHidden(entry.Name()) {
			continue
		}
		candidate := filepath.Join(uploadsDir, entry.Name())
		if candidateAbs, err := filepath.Abs(candidate); err == nil && candidateAbs == ignoreAbs {
			continue
		}

		got, err := d.hasher.HashFile(ctx, candidate)
		if err != nil {
			slog.Warn("dedup: failed to hash candidate, skipping", "path", candidate, "error", err)
			continue
		}
		if strings.ToLower(got) == want {
			return true, nil
		}
	}
	return false, nil
}
