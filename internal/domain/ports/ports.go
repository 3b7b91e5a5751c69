// Package ports declares the interfaces the Connection Handler depends on,
// so it can be exercised against fakes without touching a filesystem,
// a subprocess, or a real socket.
package ports

import (
	"context"
)

// Hasher computes the lowercase hex SHA-256 digest of a regular file.
type Hasher interface {
	HashFile(ctx context.Context, path string) (string, error)
}

// DuplicateIndex reports whether a finalized file already carries the given
// content hash, ignoring one path (the candidate's own temp file) and the
// uploads directory's temp/hidden files.
type DuplicateIndex interface {
	HasDuplicate(ctx context.Context, uploadsDir, hash, ignorePath string) (bool, error)
}

// Transcoder compresses an oversized input file and returns the path to the
// compressed output.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath string) (outputPath string, err error)
}

// Queue is the bounded hand-off queue between the ingestion pipeline and the
// downstream consumer.
type Queue[T any] interface {
	Offer(item T) bool
	Take(ctx context.Context) (T, error)
	Size() int
	IsFull() bool
	RemainingCapacity() int
}
