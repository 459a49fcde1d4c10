// Package registry holds the in-memory model of one editing run.
//
// A Registry owns the Records collected from disk, assigns their ids in
// discovery order, and tracks the union of tag keys as an order-preserving
// column set so rendered tables come out the same on every run. Records keep
// their source path fixed and expose an editable path template plus an
// ordered tag map. Construct a fresh Registry per run and pass it explicitly;
// there is no package-level state.
package registry
