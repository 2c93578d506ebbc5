package workspace

import (
	"path/filepath"
	"strings"
)

// Error classification buckets, checked in order; the first substring match
// wins and everything else lands in "unknown".
var errorBuckets = []struct {
	bucket  string
	needles []string
}{
	{"timeout", []string{"timeout", "timed out", "deadline exceeded"}},
	{"memory", []string{"memory", "oom"}},
	{"connection", []string{"connection", "network", "unreachable"}},
	{"file_not_found", []string{"not found", "no such file"}},
	{"permission", []string{"permission", "access denied"}},
}

// ErrorBucketUnknown is the catch-all failure category.
const ErrorBucketUnknown = "unknown"

// classifyError maps a failure message to one coarse bucket.
func classifyError(message string) string {
	lowered := strings.ToLower(message)
	for _, candidate := range errorBuckets {
		for _, needle := range candidate.needles {
			if strings.Contains(lowered, needle) {
				return candidate.bucket
			}
		}
	}
	return ErrorBucketUnknown
}

// recordTiming feeds one processing-time sample into the running
// statistics. n is the completed count after this sample (post-increment).
// The mean is maintained in integer milliseconds and truncates on each
// update; readers of the document get whole-millisecond values.
func (s *BatchStatistics) recordTiming(n int, sampleMs int64) {
	times := &s.ProcessingTimes
	if n <= 1 {
		times.AverageMs = sampleMs
		times.FastestMs = sampleMs
		times.SlowestMs = sampleMs
		return
	}
	count := int64(n)
	times.AverageMs = ((times.AverageMs * (count - 1)) + sampleMs) / count
	if sampleMs < times.FastestMs {
		times.FastestMs = sampleMs
	}
	if sampleMs > times.SlowestMs {
		times.SlowestMs = sampleMs
	}
}

// recordError classifies the message, increments its bucket, and returns
// the bucket name.
func (s *BatchStatistics) recordError(message string) string {
	if s.Errors == nil {
		s.Errors = map[string]int{}
	}
	bucket := classifyError(message)
	s.Errors[bucket]++
	return bucket
}

// fileTypeKey derives the files_by_type key for a source file.
func fileTypeKey(file string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	if ext == "" {
		return ErrorBucketUnknown
	}
	return ext
}
