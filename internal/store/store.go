// Package store defines the document collection abstraction the repositories persist
// through. Documents are JSON objects keyed by a generated "_id"; the adapter only stores
// and retrieves them and never enforces entity invariants.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/eventboard/backend/pkg/apperrors"
)

// IDField is the document key that holds the generated identifier.
const IDField = "_id"

// Collection names.
const (
	Events        = "events"
	Organizations = "organizations"
	Users         = "users"
	Reservations  = "reservations"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = fmt.Errorf("document %w", apperrors.ErrNotFound)
	// ErrInvalidField is returned when a filter or sort names a field that is not a
	// plain identifier.
	ErrInvalidField = errors.New("invalid field name")
	// ErrDuplicate is returned by Insert and Update when a document would repeat a
	// value the collection keeps unique.
	ErrDuplicate = errors.New("duplicate document")
)

// Collection is a named set of documents of one entity type.
type Collection[T any] interface {
	// Find returns the documents matching filter, ordered, skipped and limited per opts.
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]*T, error)
	// FindOne returns the first matching document or ErrNotFound.
	FindOne(ctx context.Context, filter Filter) (*T, error)
	// Insert stores doc under a new id and returns the stored document.
	Insert(ctx context.Context, doc *T) (*T, error)
	// Update replaces every matching document with doc, keeping each one's id, and
	// returns how many were replaced.
	Update(ctx context.Context, filter Filter, doc *T) (int64, error)
}

// Op is a comparison operator of a filter condition.
type Op string

const (
	OpEq Op = "="
	OpGt Op = ">"
	OpLt Op = "<"
)

// Condition compares one document field against a value. Value may be a string,
// bool, integer, float or time.Time.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. An empty filter matches every document.
type Filter []Condition

// Eq matches documents whose field equals v.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Value: v} }

// Gt matches documents whose field is greater than v.
func Gt(field string, v any) Condition { return Condition{Field: field, Op: OpGt, Value: v} }

// Lt matches documents whose field is less than v.
func Lt(field string, v any) Condition { return Condition{Field: field, Op: OpLt, Value: v} }

// ByID matches the document with the given id.
func ByID(id string) Filter { return Filter{Eq(IDField, id)} }

// Between matches documents whose time field lies strictly between start and end.
func Between(field string, start, end time.Time) Filter {
	return Filter{Gt(field, start), Lt(field, end)}
}

// Sort orders results by one field.
type Sort struct {
	Field string
	Desc  bool
}

// FindOptions shapes a Find result. A zero Limit means no limit.
type FindOptions struct {
	Sort  *Sort
	Skip  int
	Limit int
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidField reports whether name can be used in a filter or sort.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// Validate checks every field name and operator in f.
func (f Filter) Validate() error {
	for _, c := range f {
		if !ValidField(c.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, c.Field)
		}
		switch c.Op {
		case OpEq, OpGt, OpLt:
		default:
			return fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	return nil
}

// Validate checks the sort field, if any.
func (o FindOptions) Validate() error {
	if o.Sort != nil && !ValidField(o.Sort.Field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, o.Sort.Field)
	}
	return nil
}

// EncodeWithID marshals doc to a JSON object and sets its "_id" to id. An empty id
// removes the key.
func EncodeWithID(doc any, id string) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("document is not an object: %w", err)
	}
	if obj == nil {
		obj = map[string]json.RawMessage{}
	}
	if id == "" {
		delete(obj, IDField)
	} else {
		quoted, _ := json.Marshal(id)
		obj[IDField] = quoted
	}
	return json.Marshal(obj)
}

// Decode unmarshals a stored document.
func Decode[T any](raw []byte) (*T, error) {
	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
