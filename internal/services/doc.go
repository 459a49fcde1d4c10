// Package services defines shared utilities consumed by the session stages
// and the external tool integrations beneath it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and record IDs for
//     logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     stage and operation that produced them and can be classified for the
//     run journal.
//
// Subpackages wrap the external collaborators (metaflac, the text editor)
// behind small interfaces so the pipeline can be exercised without them.
package services
