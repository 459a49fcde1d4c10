// Package collector discovers audio files and loads their tags into a
// registry.Registry.
//
// Paths given on the command line are visited in order. Directories are walked
// recursively with children in sorted name order, so record ids come out the
// same for the same tree on every run. Only regular files whose names end with
// the configured suffix become records; anything else is skipped with a
// warning. Tags come from a TagReader (metaflac or ffprobe) and any reader
// failure aborts collection.
package collector
