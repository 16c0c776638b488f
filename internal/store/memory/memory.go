// Package memory is an in-process document store driver. Operations on a collection
// are serialized by a mutex; documents keep insertion order unless a sort is given.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventboard/backend/internal/store"
)

type entry struct {
	id     string
	raw    []byte
	fields map[string]any
}

// Collection is a store.Collection held in memory. Entries are never modified once
// stored; Update swaps in new ones, so a reader may keep using entries it matched
// after releasing the lock.
type Collection[T any] struct {
	mu     sync.RWMutex
	name   string
	docs   []*entry
	unique []string
}

// Option configures a Collection.
type Option func(*collectionOptions)

type collectionOptions struct {
	unique []string
}

// Unique rejects an Insert or Update that would give two documents the same
// non-null value of field, with store.ErrDuplicate.
func Unique(field string) Option {
	return func(o *collectionOptions) { o.unique = append(o.unique, field) }
}

// NewCollection creates an empty collection.
func NewCollection[T any](name string, opts ...Option) *Collection[T] {
	var o collectionOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{name: name, unique: o.unique}
}

// Len returns the number of stored documents.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Find implements store.Collection.
func (c *Collection[T]) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	matched := c.match(filter)
	c.mu.RUnlock()

	if opts.Sort != nil {
		field, desc := opts.Sort.Field, opts.Sort.Desc
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i].fields[field], matched[j].fields[field])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]*T, 0, len(matched))
	for _, e := range matched {
		doc, err := store.Decode[T](e.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// FindOne implements store.Collection.
func (c *Collection[T]) FindOne(ctx context.Context, filter store.Filter) (*T, error) {
	docs, err := c.Find(ctx, filter, store.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0], nil
}

// Insert implements store.Collection.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	e, err := newEntry(id, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	c.mu.Lock()
	if err := c.checkUnique(e, nil); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.docs = append(c.docs, e)
	c.mu.Unlock()

	return store.Decode[T](e.raw)
}

// Update implements store.Collection.
func (c *Collection[T]) Update(ctx context.Context, filter store.Filter, doc *T) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Every replacement carries the same document, so one of them stands for all
	// in the uniqueness check.
	replaced := make(map[int]*entry)
	var next *entry
	for i, old := range c.docs {
		if !matches(old.fields, filter) {
			continue
		}
		e, err := newEntry(old.id, doc)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", c.name, err)
		}
		replaced[i] = e
		next = e
	}
	if next == nil {
		return 0, nil
	}
	if len(replaced) > 1 && c.hasUniqueValue(next) {
		return 0, fmt.Errorf("%s: %w", c.name, store.ErrDuplicate)
	}
	if err := c.checkUnique(next, replaced); err != nil {
		return 0, err
	}
	for i, e := range replaced {
		c.docs[i] = e
	}
	return int64(len(replaced)), nil
}

// checkUnique reports store.ErrDuplicate when e shares a unique field value with a
// stored entry. Entries at the indexes in skip are about to be replaced and do not
// count. Must be called with c.mu held.
func (c *Collection[T]) checkUnique(e *entry, skip map[int]*entry) error {
	for _, field := range c.unique {
		v, ok := e.fields[field]
		if !ok || v == nil {
			continue
		}
		for i, other := range c.docs {
			if _, replacing := skip[i]; replacing {
				continue
			}
			if ov, ok := other.fields[field]; ok && ov != nil && compareValues(ov, v) == 0 {
				return fmt.Errorf("%s: %s: %w", c.name, field, store.ErrDuplicate)
			}
		}
	}
	return nil
}

func (c *Collection[T]) hasUniqueValue(e *entry) bool {
	for _, field := range c.unique {
		if v, ok := e.fields[field]; ok && v != nil {
			return true
		}
	}
	return false
}

// match must be called with c.mu held.
func (c *Collection[T]) match(filter store.Filter) []*entry {
	var out []*entry
	for _, e := range c.docs {
		if matches(e.fields, filter) {
			out = append(out, e)
		}
	}
	return out
}

func newEntry(id string, doc any) (*entry, error) {
	raw, err := store.EncodeWithID(doc, id)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return &entry{id: id, raw: raw, fields: fields}, nil
}

func matches(fields map[string]any, filter store.Filter) bool {
	for _, cond := range filter {
		cmp, ok := compareTo(fields[cond.Field], cond.Value)
		if !ok {
			return false
		}
		switch cond.Op {
		case store.OpEq:
			if cmp != 0 {
				return false
			}
		case store.OpGt:
			if cmp <= 0 {
				return false
			}
		case store.OpLt:
			if cmp >= 0 {
				return false
			}
		}
	}
	return true
}

// compareTo compares a decoded document value with a filter value. ok is false when
// the two cannot be compared, which never matches.
func compareTo(have, want any) (int, bool) {
	switch w := want.(type) {
	case time.Time:
		s, ok := have.(string)
		if !ok {
			return 0, false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, false
		}
		return t.Compare(w), true
	case string:
		s, ok := have.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, w), true
	case bool:
		b, ok := have.(bool)
		if !ok {
			return 0, false
		}
		return compareBool(b, w), true
	}
	wf, ok := toFloat(want)
	if !ok {
		return 0, false
	}
	hf, ok := have.(float64)
	if !ok {
		return 0, false
	}
	return compareFloat(hf, wf), true
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// compareValues orders two decoded JSON values: missing < numbers < strings < booleans
// < everything else.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case float64:
		return compareFloat(av, b.(float64))
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		return compareBool(av, b.(bool))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bool:
		return 3
	}
	return 4
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
