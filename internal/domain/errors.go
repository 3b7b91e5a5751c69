package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per row of the error taxonomy. Callers compare with
// errors.Is; the usecase layer is the only place that maps these back to a
// wire Status.
var (
	ErrQueueFull         = errors.New("queue full")
	ErrDuplicate         = errors.New("duplicate content")
	ErrTranscodeTimeout  = errors.New("transcode timed out")
	ErrTranscodeFailed   = errors.New("transcode failed")
	ErrTranscodeSpawn    = errors.New("transcode spawn failed")
	ErrTransfer          = errors.New("transfer error")
	ErrInternal          = errors.New("internal error")
)

// StatusFor maps a pipeline error to the producer-facing terminal status.
// Unrecognized errors map to StatusInternalError.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrQueueFull):
		return StatusQueueFull
	case errors.Is(err, ErrDuplicate):
		return StatusDuplicateFile
	case errors.Is(err, ErrTranscodeTimeout), errors.Is(err, ErrTranscodeFailed), errors.Is(err, ErrTranscodeSpawn):
		return StatusCompressionFailed
	case errors.Is(err, ErrTransfer):
		return StatusTransferError
	default:
		return StatusInternalError
	}
}

func wrap(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// WrapTransfer wraps an I/O error as a transfer error (short read, size
// mismatch, socket failure during receive).
func WrapTransfer(cause error) error { return wrap(ErrTransfer, cause) }

// WrapInternal wraps an unexpected filesystem or rename error.
func WrapInternal(cause error) error { return wrap(ErrInternal, cause) }
