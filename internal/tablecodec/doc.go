// Package tablecodec renders a registry as an aligned, pipe-delimited text
// table and parses an edited table back into an Edit.
//
// The first row is a header naming the columns: __id, __filename, then every
// tag key in first-seen order. Each following row is one record. Cells are
// left-justified and padded to the widest value of their column so the file
// reads well in an ordinary text editor. Parsing trims cells, so padding
// changes made while editing are harmless.
package tablecodec
