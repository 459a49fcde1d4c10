// Package tagblock encodes and decodes the textual key=value block exchanged
// with external tag tools.
//
// metaflac's --export-tags-to and --import-tags-from speak this format: one
// tag per line, the key separated from the value by the first '=', no
// escaping, and a trailing newline. Keys starting with "__" are reserved for
// pipeline bookkeeping and are never emitted.
package tagblock
