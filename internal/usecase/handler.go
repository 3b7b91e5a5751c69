// Package usecase implements the Connection Handler: the per-connection
// state machine that drives receive -> hash -> deduplicate -> conditionally
// compress -> finalize -> enqueue and returns exactly one terminal status
// to the producer.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"videoingest/internal/domain"
	"videoingest/internal/domain/ports"
	"videoingest/internal/metrics"
	"videoingest/internal/telemetry"
	"videoingest/internal/wire"
)

var tracer = telemetry.Tracer(telemetry.PipelineTracerName)

// HashLocker acquires the per-hash mutex described in §3 and returns a
// release function. Satisfied by *hashlock.Table.
type HashLocker interface {
	Acquire(hash string) (release func())
}

// Handler wires together the collaborators a Connection Handler needs.
// Fields are public, in the teacher's usecase style, so tests can
// construct one directly with fakes.
type Handler struct {
	UploadsDir string
	Hasher     ports.Hasher
	DupIndex   ports.DuplicateIndex
	Transcoder ports.Transcoder
	Queue      ports.Queue[domain.VideoHandle]
	Locks      HashLocker
	Log        *slog.Logger

	// Now and NewOpaque are overridable for deterministic tests.
	Now       func() time.Time
	NewOpaque func() string
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) newOpaque() string {
	if h.NewOpaque != nil {
		return h.NewOpaque()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (h *Handler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// Handle runs one connection end to end, writing exactly one terminal
// status to conn before returning. The returned error is for logging at
// the caller; it does not change the wire contract.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) error {
	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	start := time.Now()
	status, handleErr := h.run(ctx, conn)
	elapsed := time.Since(start).Seconds()

	metrics.UploadsTotal.WithLabelValues(string(status)).Inc()
	metrics.UploadDuration.WithLabelValues(string(status)).Observe(elapsed)

	if handleErr != nil {
		h.logger().Warn("upload failed", "remote", conn.RemoteAddr(), "status", status, "error", handleErr)
	} else {
		h.logger().Info("upload finished", "remote", conn.RemoteAddr(), "status", status)
	}

	if writeErr := wire.WriteString(conn, string(status)); writeErr != nil {
		return fmt.Errorf("write terminal status %s: %w", status, writeErr)
	}
	return handleErr
}

// run executes the state machine and returns the terminal status to send,
// plus the underlying error (nil on success) for logging.
func (h *Handler) run(ctx context.Context, conn net.Conn) (domain.Status, error) {
	ctx, span := tracer.Start(ctx, "upload")
	defer span.End()

	_, metaSpan := tracer.Start(ctx, "read_meta")
	originalName, declaredSize, err := h.readMeta(conn)
	metaSpan.End()
	if err != nil {
		return domain.StatusFor(err), err
	}

	if h.Queue.IsFull() {
		metrics.QueueRejectionsTotal.Inc()
		return domain.StatusQueueFull, nil
	}

	tempPath, tempFile, opaque, err := h.createTemp()
	if err != nil {
		return domain.StatusFor(err), err
	}

	workingPath := tempPath
	cleanupTemp := func() {
		if workingPath != "" {
			os.Remove(workingPath)
		}
	}

	_, receiveSpan := tracer.Start(ctx, "receive")
	receiveErr := receiveExactly(tempFile, conn, declaredSize)
	receiveSpan.End()
	if receiveErr != nil {
		tempFile.Close()
		cleanupTemp()
		return domain.StatusFor(receiveErr), receiveErr
	}
	metrics.BytesReceivedTotal.Add(float64(declaredSize))
	if err := tempFile.Close(); err != nil {
		cleanupTemp()
		err = domain.WrapInternal(err)
		return domain.StatusFor(err), err
	}

	hashCtx, hashSpan := tracer.Start(ctx, "hash")
	hash, err := h.Hasher.HashFile(hashCtx, tempPath)
	hashSpan.End()
	if err != nil {
		cleanupTemp()
		return domain.StatusFor(err), err
	}

	release := h.Locks.Acquire(hash)
	defer release()

	dupCtx, dupSpan := tracer.Start(ctx, "dup_check")
	dup, err := h.DupIndex.HasDuplicate(dupCtx, h.UploadsDir, hash, tempPath)
	dupSpan.End()
	if err != nil {
		cleanupTemp()
		return domain.StatusFor(domain.WrapInternal(err)), err
	}
	if dup {
		cleanupTemp()
		return domain.StatusDuplicateFile, nil
	}

	if declaredSize > domain.CompressionThreshold {
		compressCtx, compressSpan := tracer.Start(ctx, "maybe_compress")
		compressedPath, cerr := h.Transcoder.Transcode(compressCtx, workingPath)
		compressSpan.End()
		if cerr != nil {
			cleanupTemp()
			return domain.StatusFor(cerr), cerr
		}
		os.Remove(workingPath)
		workingPath = compressedPath
	}

	_, finalizeSpan := tracer.Start(ctx, "finalize")
	sanitized := SanitizeFilename(originalName)
	finalName := FinalName(h.now(), opaque, sanitized)
	finalPath := filepath.Join(h.UploadsDir, finalName)

	renameErr := os.Rename(workingPath, finalPath)
	finalizeSpan.End()
	if renameErr != nil {
		os.Remove(workingPath)
		err := domain.WrapInternal(fmt.Errorf("rename %s to %s: %w", workingPath, finalPath, renameErr))
		return domain.StatusFor(err), err
	}

	_, admitSpan := tracer.Start(ctx, "admit")
	handle := domain.VideoHandle{Path: finalPath, Hash: hash, CreatedAt: h.now()}
	accepted := h.Queue.Offer(handle)
	admitSpan.End()
	if !accepted {
		os.Remove(finalPath)
		metrics.QueueRejectionsTotal.Inc()
		return domain.StatusQueueFull, nil
	}

	return domain.StatusSuccess, nil
}

func (h *Handler) readMeta(conn net.Conn) (name string, size int64, err error) {
	name, err = wire.ReadString(conn)
	if err != nil {
		return "", 0, domain.WrapTransfer(err)
	}
	size, err = wire.ReadInt64(conn)
	if err != nil {
		return "", 0, domain.WrapTransfer(err)
	}
	if size < 0 {
		return "", 0, domain.WrapTransfer(fmt.Errorf("negative declared size %d", size))
	}
	return name, size, nil
}

func (h *Handler) createTemp() (path string, f *os.File, opaque string, err error) {
	opaque = h.newOpaque()
	path = filepath.Join(h.UploadsDir, TempName(opaque))

	f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", nil, "", domain.WrapInternal(fmt.Errorf("create temp file %s: %w", path, err))
	}
	return path, f, opaque, nil
}
