// Package editor launches the user's interactive text editor on the table
// artifact and waits for it to exit.
//
// The command comes from configuration, then $EDITOR, then nano. The editor
// inherits the terminal; nothing is captured.
package editor
