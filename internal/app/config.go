// Package app wires together process configuration: CLI positional
// arguments, environment variables, the process logger, and the optional
// dynamic transcode-settings manager.
package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultWorkers and DefaultQueueCapacity are used when the corresponding
// CLI positional argument is omitted.
const (
	DefaultWorkers       = 4
	DefaultQueueCapacity = 10
)

// Config holds everything main needs to assemble the ingestion pipeline.
type Config struct {
	Workers       int
	QueueCapacity int

	IngestAddr  string
	UploadsDir  string
	FFMPEGPath  string
	LogLevel    string
	LogFormat   string
	MongoURI    string
	MongoDB     string
	MetricsAddr string
}

// Usage is the text printed to stderr, and returned as an error, when the
// CLI positional arguments are invalid.
const Usage = "usage: videoingest [worker-count] [queue-capacity]  (both positive integers)"

// ParseArgs validates the optional <C> <Q> positional arguments per
// spec.md §6. Zero, negative, non-numeric arguments, or more than two
// positional arguments, are a usage error; the caller is expected to
// print err.Error() to stderr and exit 1.
func ParseArgs(args []string) (workers, queueCapacity int, err error) {
	workers, queueCapacity = DefaultWorkers, DefaultQueueCapacity

	if len(args) > 2 {
		return 0, 0, fmt.Errorf("%s (got %d extra argument(s): %v)", Usage, len(args)-2, args[2:])
	}

	if len(args) >= 1 {
		workers, err = positiveInt(args[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%s (worker-count: %v)", Usage, err)
		}
	}
	if len(args) >= 2 {
		queueCapacity, err = positiveInt(args[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%s (queue-capacity: %v)", Usage, err)
		}
	}
	return workers, queueCapacity, nil
}

func positiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%q is not a positive integer", raw)
	}
	return n, nil
}

// LoadConfig reads everything outside the producer-facing CLI contract
// from the environment. Call ParseArgs separately for Workers/QueueCapacity.
func LoadConfig() Config {
	return Config{
		IngestAddr:  getEnv("INGEST_ADDR", ":9090"),
		UploadsDir:  getEnv("UPLOADS_DIR", "./uploads"),
		FFMPEGPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDB:     getEnv("MONGO_DATABASE", "videoingest"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9091"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
