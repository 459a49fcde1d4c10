package registry

// Tags is a key to value mapping that remembers first insertion order.
// Overwriting a key keeps its original position.
type Tags struct {
	keys   []string
	values map[string]Value
}

// NewTags returns an empty tag map.
func NewTags() *Tags {
	return &Tags{values: make(map[string]Value)}
}

// Set stores value under key. It reports whether the key was new.
func (t *Tags) Set(key string, value Value) bool {
	if t.values == nil {
		t.values = make(map[string]Value)
	}
	_, exists := t.values[key]
	if !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
	return !exists
}

// Get returns the value for key and whether it was present.
func (t *Tags) Get(key string) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	v, ok := t.values[key]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (t *Tags) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Len returns the number of tags.
func (t *Tags) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Each calls fn for every tag in insertion order until fn returns false.
func (t *Tags) Each(fn func(key string, value Value) bool) {
	if t == nil {
		return
	}
	for _, key := range t.keys {
		if !fn(key, t.values[key]) {
			return
		}
	}
}
