// Package ffprobe shells out to the ffprobe binary to inspect audio
// artifacts. The pipeline and metadata cache use it to measure chapter and
// track durations.
package ffprobe
