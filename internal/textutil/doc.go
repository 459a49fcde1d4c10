// Package textutil provides small string transforms used when tag values are
// turned into path segments.
//
// CollapseWhitespace folds every run of Unicode whitespace into one
// replacement string. SanitizeSegment strips characters that cannot appear
// in a single path segment on common filesystems.
package textutil
