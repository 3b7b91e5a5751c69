package hashing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestHashFileKnownDigest(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "hello world")

	got, err := NewSHA256Hasher().HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("HashFile(%q) = %q, want %q", path, got, want)
	}
}

func TestHashFileDeterministicAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", strings.Repeat("x", chunkSize*3+17))

	h := NewSHA256Hasher()
	first, err := h.HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	second, err := h.HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if first != second {
		t.Fatalf("hash not idempotent: %q != %q", first, second)
	}
}

func TestHashFileDistinctContent(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.txt", "content-a")
	b := writeTemp(t, dir, "b.txt", "content-b")

	h := NewSHA256Hasher()
	hashA, err := h.HashFile(context.Background(), a)
	if err != nil {
		t.Fatalf("HashFile(a): %v", err)
	}
	hashB, err := h.HashFile(context.Background(), b)
	if err != nil {
		t.Fatalf("HashFile(b): %v", err)
	}
	if hashA == hashB {
		t.Fatalf("distinct content hashed to the same digest: %q", hashA)
	}
}

func TestHashFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := NewSHA256Hasher().HashFile(context.Background(), filepath.Join(dir, "missing.txt"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestHashFileContextCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", strings.Repeat("y", chunkSize*4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSHA256Hasher().HashFile(ctx, path)
	if err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
