package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var disallowed = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename NFC-normalizes the original name, drops `.`/`..`
// path segments and any leading root, and replaces every run of
// characters outside [A-Za-z0-9._-] with a single underscore. Path
// separators and traversal segments collapse to underscores rather
// than discarding everything but the final component, so
// "../../etc/passwd" sanitizes to "etc_passwd", not "passwd". NFC
// normalization only changes behavior for non-ASCII input; ASCII
// filenames sanitize byte-for-byte as spec.md §4.5 step 1 describes.
func SanitizeFilename(original string) string {
	normalized := norm.NFC.String(original)
	segments := strings.Split(normalized, "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		kept = append(kept, seg)
	}
	joined := strings.Join(kept, "_")
	return disallowed.ReplaceAllString(joined, "_")
}

// TempName returns a name matching vid-<opaque>.tmp, where opaque is
// unique within the process.
func TempName(opaque string) string {
	return fmt.Sprintf("vid-%s.tmp", opaque)
}

// FinalName computes YYYYMMDD_HHMMSSsss_<suffix>_<sanitized>, using local
// wall-clock time at millisecond precision.
func FinalName(now time.Time, suffix, sanitized string) string {
	ts := now.Format("20060102_150405") + fmt.Sprintf("%03d", now.Nanosecond()/1e6)
	return fmt.Sprintf("%s_%s_%s", ts, suffix, sanitized)
}
