// Package ffprobe provides a typed wrapper around ffprobe JSON output and a
// tag reader built on it.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Format: container-level metadata including the tag dictionary
//   - Reader: reads an audio file's tags as ordered fields
//
// ffprobe reports tags as a JSON object, so Reader sorts keys to keep record
// columns deterministic. It only reads; writing tags always goes through
// metaflac.
package ffprobe
