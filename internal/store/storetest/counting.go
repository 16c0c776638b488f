// Package storetest holds helpers for tests that exercise store.Collection users.
package storetest

import (
	"context"
	"sync/atomic"

	"github.com/eventboard/backend/internal/store"
)

// Counting wraps a collection and counts the calls made through it.
type Counting[T any] struct {
	Inner store.Collection[T]

	finds   atomic.Int64
	findOne atomic.Int64
	inserts atomic.Int64
	updates atomic.Int64
}

// NewCounting wraps inner.
func NewCounting[T any](inner store.Collection[T]) *Counting[T] {
	return &Counting[T]{Inner: inner}
}

func (c *Counting[T]) Find(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]*T, error) {
	c.finds.Add(1)
	return c.Inner.Find(ctx, filter, opts)
}

func (c *Counting[T]) FindOne(ctx context.Context, filter store.Filter) (*T, error) {
	c.findOne.Add(1)
	return c.Inner.FindOne(ctx, filter)
}

func (c *Counting[T]) Insert(ctx context.Context, doc *T) (*T, error) {
	c.inserts.Add(1)
	return c.Inner.Insert(ctx, doc)
}

func (c *Counting[T]) Update(ctx context.Context, filter store.Filter, doc *T) (int64, error) {
	c.updates.Add(1)
	return c.Inner.Update(ctx, filter, doc)
}

// Calls returns the total number of calls of any kind.
func (c *Counting[T]) Calls() int64 {
	return c.finds.Load() + c.findOne.Load() + c.inserts.Load() + c.updates.Load()
}

// Inserts returns the number of Insert calls.
func (c *Counting[T]) Inserts() int64 { return c.inserts.Load() }

// Updates returns the number of Update calls.
func (c *Counting[T]) Updates() int64 { return c.updates.Load() }

// Failing is a collection whose every call returns Err.
type Failing[T any] struct {
	Err error
}

func (f Failing[T]) Find(context.Context, store.Filter, store.FindOptions) ([]*T, error) {
	return nil, f.Err
}

func (f Failing[T]) FindOne(context.Context, store.Filter) (*T, error) { return nil, f.Err }

func (f Failing[T]) Insert(context.Context, *T) (*T, error) { return nil, f.Err }

func (f Failing[T]) Update(context.Context, store.Filter, *T) (int64, error) { return 0, f.Err }
