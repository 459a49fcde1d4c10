// Package main hosts the viflac CLI entrypoint and command graph.
//
// The root command runs an editing session over the given files: tags are
// collected into a table, the table is opened in an editor, and the edited
// values are written back and used to rename files. Subcommands cover
// configuration scaffolding, preflight checks, read-only tag listing and the
// run journal.
//
// Keep this package lean: the session, codec and renamer live in internal
// packages and this layer only wires them to flags and terminal output.
package main
