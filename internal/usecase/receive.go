package usecase

import (
	"fmt"
	"io"
	"os"

	"videoingest/internal/domain"
)

// receiveExactly copies exactly n bytes from r into dst, then verifies the
// written size matches n. An early EOF or short write fails with a
// transfer error; dst is not truncated or removed here, that is the
// caller's responsibility on the error path.
func receiveExactly(dst *os.File, r io.Reader, n int64) error {
	copied, err := io.CopyN(dst, r, n)
	if err != nil {
		return domain.WrapTransfer(fmt.Errorf("copied %d of %d bytes: %w", copied, n, err))
	}

	info, err := dst.Stat()
	if err != nil {
		return domain.WrapInternal(fmt.Errorf("stat temp file: %w", err))
	}
	if info.Size() != n {
		return domain.WrapTransfer(fmt.Errorf("on-disk size %d does not match declared size %d", info.Size(), n))
	}
	return nil
}
