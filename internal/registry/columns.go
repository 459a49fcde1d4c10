package registry

// ColumnSet is an order-preserving set of tag keys. Keys keep the position in
// which they were first observed so table layouts are reproducible.
type ColumnSet struct {
	order []string
	seen  map[string]struct{}
}

// NewColumnSet returns an empty set.
func NewColumnSet() *ColumnSet {
	return &ColumnSet{seen: make(map[string]struct{})}
}

// Observe adds key if it has not been seen. It reports whether key was new.
func (c *ColumnSet) Observe(key string) bool {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	return true
}

// Contains reports whether key has been observed.
func (c *ColumnSet) Contains(key string) bool {
	_, ok := c.seen[key]
	return ok
}

// Names returns the observed keys in first-seen order.
func (c *ColumnSet) Names() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of observed keys.
func (c *ColumnSet) Len() int {
	return len(c.order)
}
