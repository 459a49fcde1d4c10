// Package reconcile moves edits between the parsed table, the registry, and
// the files on disk.
//
// Apply merges a tablecodec.Edit into the registry. Export turns each record
// back into a metaflac tag block. Write hands those blocks to a TagWriter one
// file at a time and stops at the first failure; files written before the
// failure keep their new tags.
package reconcile
