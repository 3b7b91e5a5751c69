package domain

// CompressionThreshold is the declared file size, in bytes, above which
// MaybeCompress invokes the Transcoder instead of finalizing the upload
// as-is.
const CompressionThreshold int64 = 50 * 1 << 20
