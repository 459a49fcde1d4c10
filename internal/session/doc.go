// Package session runs one editing pass over a set of audio files.
//
// A Session moves through a fixed sequence of stages: collect, render, edit,
// parse, export, write_tags, rename, done. Each stage runs only after the
// previous one succeeded and the first failure ends the run; nothing already
// written or moved is rolled back. Rename targets are planned during export so
// template and collision problems surface before any file is touched.
//
// A file lock under the state directory keeps two sessions from editing at
// once. Every run gets a UUID that tags its log lines, names its table file,
// and keys its journal entries.
package session
