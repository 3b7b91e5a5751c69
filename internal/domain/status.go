package domain

// Status is the terminal, wire-visible outcome of a single upload connection.
type Status string

const (
	StatusSuccess           Status = "SUCCESS"
	StatusQueueFull         Status = "QUEUE_FULL"
	StatusDuplicateFile     Status = "DUPLICATE_FILE"
	StatusCompressionFailed Status = "COMPRESSION_FAILED"
	StatusTransferError     Status = "TRANSFER_ERROR"
	StatusInternalError     Status = "INTERNAL_ERROR"
)
