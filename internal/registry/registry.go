package registry

import (
	"fmt"
	"sort"

	"viflac/internal/tagblock"
)

// HeaderID is the id of the synthetic header row. It never belongs to a
// Registry.
const HeaderID = 0

// Record is one audio file and its tags.
type Record struct {
	ID           int
	SourcePath   string
	PathTemplate string
	Tags         *Tags
}

// IsHeader reports whether r is the synthetic header pseudo-record.
func (r *Record) IsHeader() bool {
	return r != nil && r.ID == HeaderID
}

// TagText returns the text of key, or "" when the tag is absent.
func (r *Record) TagText(key string) string {
	v, _ := r.Tags.Get(key)
	return v.Text
}

// Fields returns the record's tags as tag block fields in insertion order.
func (r *Record) Fields() []tagblock.Field {
	fields := make([]tagblock.Field, 0, r.Tags.Len())
	r.Tags.Each(func(key string, value Value) bool {
		fields = append(fields, tagblock.Field{Key: key, Value: value.Text})
		return true
	})
	return fields
}

// HeaderRecord builds the id 0 pseudo-record whose tags map every column name
// to itself. It carries column names through the row rendering path.
func HeaderRecord(pathColumn string, columns []string) *Record {
	tags := NewTags()
	for _, col := range columns {
		tags.Set(col, StringValue(col))
	}
	return &Record{ID: HeaderID, PathTemplate: pathColumn, Tags: tags}
}

// Registry holds the records of one run plus the union of their tag keys.
type Registry struct {
	records map[int]*Record
	columns *ColumnSet
	nextID  int
}

// New returns an empty registry whose first record gets id 1.
func New() *Registry {
	return &Registry{
		records: make(map[int]*Record),
		columns: NewColumnSet(),
		nextID:  1,
	}
}

// Add creates a record for sourcePath with the given fields. Repeated keys
// resolve last-wins. The record's template starts as the source path.
func (r *Registry) Add(sourcePath string, fields []tagblock.Field) *Record {
	rec := &Record{
		ID:           r.nextID,
		SourcePath:   sourcePath,
		PathTemplate: sourcePath,
		Tags:         NewTags(),
	}
	r.nextID++
	for _, f := range fields {
		rec.Tags.Set(f.Key, StringValue(f.Value))
		r.columns.Observe(f.Key)
	}
	r.records[rec.ID] = rec
	return rec
}

// Record returns the record with id.
func (r *Registry) Record(id int) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Records returns all records in ascending id order.
func (r *Registry) Records() []*Record {
	ids := r.IDs()
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id])
	}
	return out
}

// IDs returns the record ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Columns returns every observed tag key in first-seen order.
func (r *Registry) Columns() []string {
	return r.columns.Names()
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// SetTag stores value under key on record id and records key as a column.
// It reports whether the stored text changed.
func (r *Registry) SetTag(id int, key string, value Value) (bool, error) {
	rec, ok := r.records[id]
	if !ok {
		return false, fmt.Errorf("set tag %q: no record with id %d", key, id)
	}
	prev, existed := rec.Tags.Get(key)
	rec.Tags.Set(key, value)
	r.columns.Observe(key)
	return !existed || !prev.Equal(value), nil
}
