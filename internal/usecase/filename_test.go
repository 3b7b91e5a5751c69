package usecase

import (
	"testing"
	"time"
)

func TestSanitizeFilenameCollapsesTraversalAndSeparators(t *testing.T) {
	got := SanitizeFilename("../../etc/passwd")
	if got != "etc_passwd" {
		t.Fatalf("SanitizeFilename() = %q, want %q", got, "etc_passwd")
	}
}

func TestSanitizeFilenameReplacesDisallowedRuns(t *testing.T) {
	got := SanitizeFilename("my video (final)!!.mp4")
	want := "my_video_final_.mp4"
	if got != want {
		t.Fatalf("SanitizeFilename() = %q, want %q", got, want)
	}
}

func TestSanitizeFilenamePreservesASCIIAllowList(t *testing.T) {
	got := SanitizeFilename("Movie-2026_final.mp4")
	if got != "Movie-2026_final.mp4" {
		t.Fatalf("SanitizeFilename() = %q, want unchanged", got)
	}
}

func TestSanitizeFilenameNFCNormalizesCombiningMarks(t *testing.T) {
	decomposed := "café.mp4" // "café.mp4" as e + combining acute accent
	composed := "café.mp4"

	got := SanitizeFilename(decomposed)
	want := SanitizeFilename(composed)
	if got != want {
		t.Fatalf("decomposed and composed forms sanitized differently: %q vs %q", got, want)
	}
}

func TestTempNameMatchesPattern(t *testing.T) {
	got := TempName("abc123")
	want := "vid-abc123.tmp"
	if got != want {
		t.Fatalf("TempName() = %q, want %q", got, want)
	}
}

func TestFinalNameFormat(t *testing.T) {
	ts := time.Date(2026, 3, 5, 14, 30, 1, 234_000_000, time.Local)
	got := FinalName(ts, "a1b2c3d4", "movie.mp4")
	want := "20260305_143001234_a1b2c3d4_movie.mp4"
	if got != want {
		t.Fatalf("FinalName() = %q, want %q", got, want)
	}
}
