// Package table implements typed, UUID-keyed record collections and their
// schema-driven CSV codec.
//
// A Collection is an immutable value: every transform returns a new
// collection and never touches the receiver. Appends share storage with the
// receiver when the receiver is the newest view of that storage, so building
// a collection one row at a time does not copy it on every step.
package table

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ajitpratap0/gridkit/internal/models"
)

// AnyCollection is the type-erased view of a Collection used wherever
// collections of different record types are handled together.
type AnyCollection interface {
	EntityType() models.EntityType
	Len() int
	UUIDs() []uuid.UUID
	Contains(id uuid.UUID) bool
	Label(id uuid.UUID) (string, bool)
	EachRef(fn func(row uuid.UUID, ref models.Ref))
	Header() []string
	Records() [][]string
	Record(id uuid.UUID) (map[string]string, bool)
	WriteCSV(path string, opts WriteOptions) (bool, error)
}

// arena is append-only row storage shared by collections derived from one
// another through Append. A collection sees the first n rows.
type arena[T any] struct {
	mu    sync.RWMutex
	rows  []T
	index map[uuid.UUID]int
}

func newArena[T any](s *Schema[T], rows []T) *arena[T] {
	a := &arena[T]{
		rows:  rows,
		index: make(map[uuid.UUID]int, len(rows)),
	}
	for i := range rows {
		a.index[s.Key(&rows[i])] = i
	}
	return a
}

// Collection is an ordered set of records of one type, keyed by UUID.
type Collection[T any] struct {
	schema *Schema[T]
	store  *arena[T]
	n      int
	extra  []string
}

// Empty returns a collection with no rows that honors the full schema.
func Empty[T any](s *Schema[T]) *Collection[T] {
	return &Collection[T]{schema: s, store: newArena(s, nil)}
}

// New builds a collection from rows. Keys must be unique and non-nil and
// every row must pass the schema's validation.
func New[T any](s *Schema[T], rows ...T) (*Collection[T], error) {
	return Empty(s).Append(rows...)
}

// Schema returns the schema of the collection.
func (c *Collection[T]) Schema() *Schema[T] { return c.schema }

// EntityType returns the entity type of the collection's records.
func (c *Collection[T]) EntityType() models.EntityType { return c.schema.entityType }

// Len returns the number of rows.
func (c *Collection[T]) Len() int { return c.n }

// IsEmpty reports whether the collection has no rows.
func (c *Collection[T]) IsEmpty() bool { return c.n == 0 }

// Rows returns a copy of the rows in collection order. Pointer and map fields
// of the returned records are shared and must be treated as read-only.
func (c *Collection[T]) Rows() []T {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]T, c.n)
	copy(out, c.store.rows[:c.n])
	return out
}

// Get returns the row with the given key.
func (c *Collection[T]) Get(id uuid.UUID) (T, bool) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	pos, ok := c.store.index[id]
	if !ok || pos >= c.n {
		var zero T
		return zero, false
	}
	return c.store.rows[pos], true
}

// Contains reports whether a row with the given key exists.
func (c *Collection[T]) Contains(id uuid.UUID) bool {
	_, ok := c.Get(id)
	return ok
}

// UUIDs returns the keys in collection order.
func (c *Collection[T]) UUIDs() []uuid.UUID {
	rows := c.Rows()
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = c.schema.Key(&rows[i])
	}
	return ids
}

// Label returns the human-readable label of the row with the given key.
func (c *Collection[T]) Label(id uuid.UUID) (string, bool) {
	r, ok := c.Get(id)
	if !ok {
		return "", false
	}
	if c.schema.label == nil {
		return "", true
	}
	return c.schema.label(&r), true
}

// EachRef calls fn for every reference held by every row.
func (c *Collection[T]) EachRef(fn func(row uuid.UUID, ref models.Ref)) {
	if c.schema.refs == nil {
		return
	}
	rows := c.Rows()
	for i := range rows {
		key := c.schema.Key(&rows[i])
		for _, ref := range c.schema.refs(&rows[i]) {
			fn(key, ref)
		}
	}
}

// Append returns a new collection with rows added after the existing ones.
// The receiver is left unchanged.
func (c *Collection[T]) Append(rows ...T) (*Collection[T], error) {
	if len(rows) == 0 {
		return c, nil
	}
	for i := range rows {
		if err := c.checkRow(&rows[i]); err != nil {
			return nil, err
		}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	st := c.store
	if len(st.rows) != c.n {
		// Another collection already extended this storage; fork our prefix.
		prefix := make([]T, c.n, c.n+len(rows))
		copy(prefix, st.rows[:c.n])
		st = newArena(c.schema, prefix)
	}

	batch := make(models.UUIDSet, len(rows))
	for i := range rows {
		key := c.schema.Key(&rows[i])
		if _, dup := st.index[key]; dup || batch.Has(key) {
			return nil, &SchemaError{
				EntityType: c.schema.entityType,
				Column:     KeyColumn,
				UUID:       key,
				Reason:     "duplicate uuid",
			}
		}
		batch.Add(key)
	}

	for i := range rows {
		st.index[c.schema.Key(&rows[i])] = len(st.rows)
		st.rows = append(st.rows, rows[i])
	}

	return &Collection[T]{
		schema: c.schema,
		store:  st,
		n:      len(st.rows),
		extra:  c.extra,
	}, nil
}

func (c *Collection[T]) checkRow(r *T) error {
	key := c.schema.Key(r)
	if key == uuid.Nil {
		return &SchemaError{
			EntityType: c.schema.entityType,
			Column:     KeyColumn,
			Reason:     "missing uuid",
		}
	}
	if err := c.schema.check(r); err != nil {
		return &SchemaError{
			EntityType: c.schema.entityType,
			UUID:       key,
			Reason:     "invalid record",
			Err:        err,
		}
	}
	return nil
}

// derive builds a collection of the same schema from rows already known to
// be unique and valid.
func (c *Collection[T]) derive(rows []T) *Collection[T] {
	return &Collection[T]{
		schema: c.schema,
		store:  newArena(c.schema, rows),
		n:      len(rows),
		extra:  c.extra,
	}
}

// Filter returns the rows for which keep returns true.
func (c *Collection[T]) Filter(keep func(T) bool) *Collection[T] {
	match, _ := c.Partition(keep)
	return match
}

// Partition splits the collection into the rows matching pred and the rest.
// Together the two halves hold every row exactly once.
func (c *Collection[T]) Partition(pred func(T) bool) (*Collection[T], *Collection[T]) {
	var match, rest []T
	for _, r := range c.Rows() {
		if pred(r) {
			match = append(match, r)
		} else {
			rest = append(rest, r)
		}
	}
	return c.derive(match), c.derive(rest)
}

// Subset returns the rows whose key is in ids.
func (c *Collection[T]) Subset(ids models.UUIDSet) *Collection[T] {
	in, _ := c.SubsetSplit(ids)
	return in
}

// SubsetSplit returns the rows whose key is in ids and the rows whose key is not.
func (c *Collection[T]) SubsetSplit(ids models.UUIDSet) (*Collection[T], *Collection[T]) {
	return c.Partition(func(r T) bool {
		return ids.Has(c.schema.Key(&r))
	})
}

// FilterByNodes returns the rows holding at least one reference into nodes.
// Records without references never match.
func (c *Collection[T]) FilterByNodes(nodes models.UUIDSet) *Collection[T] {
	if c.schema.refs == nil {
		return c.derive(nil)
	}
	return c.Filter(func(r T) bool {
		for _, ref := range c.schema.refs(&r) {
			if nodes.Has(ref.UUID) {
				return true
			}
		}
		return false
	})
}

// Header returns the columns written for this collection: the declared
// columns followed by any pass-through columns.
func (c *Collection[T]) Header() []string {
	return append(c.schema.Columns(), c.extraColumns()...)
}

// extraColumns returns the pass-through columns in the order they were read,
// followed by any other pass-through keys found on rows, sorted.
func (c *Collection[T]) extraColumns() []string {
	known := make(map[string]bool, len(c.extra))
	cols := make([]string, 0, len(c.extra))
	for _, name := range c.extra {
		known[name] = true
		cols = append(cols, name)
	}
	var more []string
	for _, r := range c.Rows() {
		for name := range c.schema.row(&r).Extra {
			if !known[name] {
				known[name] = true
				more = append(more, name)
			}
		}
	}
	sort.Strings(more)
	return append(cols, more...)
}

// Records encodes every row as CSV cells in Header order.
func (c *Collection[T]) Records() [][]string {
	extra := c.extraColumns()
	rows := c.Rows()
	out := make([][]string, len(rows))
	for i := range rows {
		out[i] = c.encode(&rows[i], extra)
	}
	return out
}

// Record returns the encoded cells of one row keyed by column name.
func (c *Collection[T]) Record(id uuid.UUID) (map[string]string, bool) {
	r, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	header := c.Header()
	cells := c.encode(&r, header[len(c.schema.columns)+1:])
	out := make(map[string]string, len(header))
	for i, name := range header {
		out[name] = cells[i]
	}
	return out, true
}

func (c *Collection[T]) encode(r *T, extra []string) []string {
	rec := make([]string, 0, len(c.schema.columns)+len(extra)+1)
	rec = append(rec, c.schema.Key(r).String())
	for i := range c.schema.columns {
		rec = append(rec, c.schema.columns[i].encode(r))
	}
	values := c.schema.row(r).Extra
	for _, name := range extra {
		rec = append(rec, values[name])
	}
	return rec
}
