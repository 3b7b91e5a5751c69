package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"videoingest/internal/domain"
	"videoingest/internal/wire"
)

type fakeHasher struct {
	hash string
	err  error
}

func (f fakeHasher) HashFile(ctx context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.hash != "" {
		return f.hash, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "hash-" + string(data[:minInt(len(data), 8)]), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type fakeDupIndex struct {
	dup bool
	err error
}

func (f fakeDupIndex) HasDuplicate(ctx context.Context, uploadsDir, hash, ignorePath string) (bool, error) {
	return f.dup, f.err
}

type fakeTranscoder struct {
	outPath string
	err     error
}

func (f fakeTranscoder) Transcode(ctx context.Context, inputPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(f.outPath, []byte("compressed"), 0o644); err != nil {
		return "", err
	}
	return f.outPath, nil
}

type fakeQueue struct {
	full    bool
	offerOK bool
	offered []domain.VideoHandle
}

func (f *fakeQueue) Offer(h domain.VideoHandle) bool {
	if !f.offerOK {
		return false
	}
	f.offered = append(f.offered, h)
	return true
}
func (f *fakeQueue) Take(ctx context.Context) (domain.VideoHandle, error) { return domain.VideoHandle{}, nil }
func (f *fakeQueue) Size() int                                            { return 0 }
func (f *fakeQueue) IsFull() bool                                         { return f.full }
func (f *fakeQueue) RemainingCapacity() int                               { return 0 }

type fakeLocker struct{}

func (fakeLocker) Acquire(hash string) func() { return func() {} }

func newHandler(dir string, q *fakeQueue, hasher fakeHasher, dup fakeDupIndex, tr fakeTranscoder) *Handler {
	n := 0
	return &Handler{
		UploadsDir: dir,
		Hasher:     hasher,
		DupIndex:   dup,
		Transcoder: tr,
		Queue:      q,
		Locks:      fakeLocker{},
		Now:        func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) },
		NewOpaque: func() string {
			n++
			return "opaque" + string(rune('0'+n))
		},
	}
}

// sendUpload writes the ReadMeta frame plus body on one end of a pipe and
// returns the status read back on that same end. The body is written from
// its own goroutine, because the handler may answer (for example
// QUEUE_FULL) without reading the body, and the pipe is unbuffered.
func sendUpload(t *testing.T, h *Handler, filename string, body []byte, declaredSize int64) domain.Status {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- h.Handle(context.Background(), server)
	}()

	if err := wire.WriteString(client, filename); err != nil {
		t.Fatalf("write filename: %v", err)
	}
	if err := wire.WriteInt64(client, declaredSize); err != nil {
		t.Fatalf("write size: %v", err)
	}
	bodyErr := make(chan error, 1)
	go func() {
		if len(body) == 0 {
			bodyErr <- nil
			return
		}
		_, err := client.Write(body)
		bodyErr <- err
	}()

	status, err := wire.ReadString(client)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	<-done
	client.Close()
	if err := <-bodyErr; err != nil && !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("write body: %v", err)
	}
	return domain.Status(status)
}

func TestHandleSuccessPath(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{})

	body := []byte("small video content")
	status := sendUpload(t, h, "my video.mp4", body, int64(len(body)))

	if status != domain.StatusSuccess {
		t.Fatalf("status = %q, want SUCCESS", status)
	}
	if len(q.offered) != 1 {
		t.Fatalf("expected exactly one offered handle, got %d", len(q.offered))
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "vid-") {
			t.Fatalf("temp file leaked: %s", e.Name())
		}
	}
	if !strings.Contains(q.offered[0].Path, "my_video.mp4") {
		t.Fatalf("finalized path %q does not contain sanitized name", q.offered[0].Path)
	}
}

func TestHandleQueueFullPreCheck(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{full: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{})

	status := sendUpload(t, h, "x.mp4", []byte("data"), 4)
	if status != domain.StatusQueueFull {
		t.Fatalf("status = %q, want QUEUE_FULL", status)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files created on pre-queue rejection, got %d", len(entries))
	}
}

func TestHandleDuplicateDetected(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{dup: true}, fakeTranscoder{})

	status := sendUpload(t, h, "dup.mp4", []byte("content"), 7)
	if status != domain.StatusDuplicateFile {
		t.Fatalf("status = %q, want DUPLICATE_FILE", status)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected temp file to be cleaned up, got %d entries", len(entries))
	}
	if len(q.offered) != 0 {
		t.Fatalf("duplicate must never be admitted to the queue")
	}
}

func TestHandleCompressionFailure(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{err: domain.ErrTranscodeFailed})

	oversized := domain.CompressionThreshold + 1
	status := sendUpload(t, h, "big.mp4", bytes.Repeat([]byte("a"), int(oversized)), oversized)

	if status != domain.StatusCompressionFailed {
		t.Fatalf("status = %q, want COMPRESSION_FAILED", status)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected temp file to be cleaned up after compression failure, got %d entries", len(entries))
	}
}

func TestHandleCompressionSuccessAdoptsOutput(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	compressedPath := filepath.Join(dir, "compressed_stand-in.mp4")
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{outPath: compressedPath})

	oversized := domain.CompressionThreshold + 1
	status := sendUpload(t, h, "big.mp4", bytes.Repeat([]byte("a"), int(oversized)), oversized)

	if status != domain.StatusSuccess {
		t.Fatalf("status = %q, want SUCCESS", status)
	}
	if len(q.offered) != 1 {
		t.Fatalf("expected exactly one offered handle")
	}
	if _, err := os.Stat(compressedPath); !os.IsNotExist(err) {
		t.Fatalf("expected compressed temp output to have been renamed away, stat err = %v", err)
	}
}

func TestHandleAdmitRejectedUndoesFinalize(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: false}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{})

	status := sendUpload(t, h, "x.mp4", []byte("data"), 4)
	if status != domain.StatusQueueFull {
		t.Fatalf("status = %q, want QUEUE_FULL", status)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected finalized file to be removed after admission rejection, got %d entries", len(entries))
	}
}

func TestHandleNegativeDeclaredSize(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{})

	status := sendUpload(t, h, "x.mp4", nil, -1)
	if status != domain.StatusTransferError {
		t.Fatalf("status = %q, want TRANSFER_ERROR", status)
	}
}

func TestHandleShortBodyIsTransferError(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{}, fakeTranscoder{})

	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- h.Handle(context.Background(), server)
	}()

	wire.WriteString(client, "x.mp4")
	wire.WriteInt64(client, 100)
	client.Write([]byte("short"))
	client.Close()

	// The client end is closed, so the status cannot be read back; the
	// failed status write reports which status the handler chose.
	handleErr := <-done
	if handleErr == nil || !strings.Contains(handleErr.Error(), string(domain.StatusTransferError)) {
		t.Fatalf("Handle error = %v, want a failed write of %s", handleErr, domain.StatusTransferError)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup after short body, got %d entries", len(entries))
	}
}

func TestHandleDupIndexErrorIsInternalError(t *testing.T) {
	dir := t.TempDir()
	q := &fakeQueue{offerOK: true}
	h := newHandler(dir, q, fakeHasher{}, fakeDupIndex{err: errors.New("disk error")}, fakeTranscoder{})

	status := sendUpload(t, h, "x.mp4", []byte("data"), 4)
	if status != domain.StatusInternalError {
		t.Fatalf("status = %q, want INTERNAL_ERROR", status)
	}
}
