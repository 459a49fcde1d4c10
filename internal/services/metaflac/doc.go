// Package metaflac mediates access to the metaflac CLI that reads and
// replaces FLAC Vorbis comments.
//
// Tags leave metaflac through --export-tags-to=- and return through
// --remove-all-tags --import-tags-from=-, so a write is always a full replace
// of the file's tag set. Command execution sits behind Executor so the
// pipeline can be tested without the binary.
package metaflac
