// Package renamer turns each record's path template into a target path and
// moves the file there.
//
// Templates are plain paths with {KEY} placeholders filled from the record's
// own tags. {{ and }} produce literal braces and {KEY:SPEC} applies a small
// format spec such as {TRACKNUMBER:02d}. After substitution every run of
// whitespace becomes a single underscore.
//
// Plan computes every target before anything moves so collisions are caught
// up front. Execute is not transactional: a failure leaves earlier moves in
// place.
package renamer
