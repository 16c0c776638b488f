package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventboard/backend/internal/store"
)

type doc struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Seats int    `json:"seats,omitempty"`
	Date  string `json:"date,omitempty"`
	Open  bool   `json:"open"`
}

func seed(t *testing.T, docs ...doc) *Collection[doc] {
	t.Helper()
	c := NewCollection[doc]("docs")
	for i := range docs {
		_, err := c.Insert(context.Background(), &docs[i])
		require.NoError(t, err)
	}
	return c
}

func TestInsert_AssignsIDAndIgnoresClientID(t *testing.T) {
	c := NewCollection[doc]("docs")
	got, err := c.Insert(context.Background(), &doc{ID: "client", Name: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.NotEqual(t, "client", got.ID)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 1, c.Len())
}

func TestFind_InsertionOrderSkipLimit(t *testing.T) {
	c := seed(t, doc{Name: "a"}, doc{Name: "b"}, doc{Name: "c"}, doc{Name: "d"})
	ctx := context.Background()

	all, err := c.Find(ctx, nil, store.FindOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].Name)
	assert.Equal(t, "d", all[3].Name)

	page, err := c.Find(ctx, nil, store.FindOptions{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Name)
	assert.Equal(t, "c", page[1].Name)

	none, err := c.Find(ctx, nil, store.FindOptions{Skip: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFind_SortAndFilters(t *testing.T) {
	c := seed(t,
		doc{Name: "b", Seats: 5, Date: "2024-03-01T00:00:00.000Z", Open: true},
		doc{Name: "a", Seats: 9, Date: "2024-01-01T00:00:00.000Z"},
		doc{Name: "c", Seats: 1, Date: "2024-06-01T00:00:00.000Z", Open: true},
	)
	ctx := context.Background()

	sorted, err := c.Find(ctx, nil, store.FindOptions{Sort: &store.Sort{Field: "seats", Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(sorted))

	byName, err := c.Find(ctx, nil, store.FindOptions{Sort: &store.Sort{Field: "name"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(byName))

	between := store.Between("date",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	ranged, err := c.Find(ctx, between, store.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(ranged))

	open, err := c.Find(ctx, store.Filter{store.Eq("open", true), store.Gt("seats", 2)}, store.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(open))
}

func TestFind_RejectsInvalidField(t *testing.T) {
	c := seed(t, doc{Name: "a"})
	_, err := c.Find(context.Background(), store.Filter{store.Eq("$where", "x")}, store.FindOptions{})
	assert.ErrorIs(t, err, store.ErrInvalidField)

	_, err = c.Find(context.Background(), nil, store.FindOptions{Sort: &store.Sort{Field: "a.b"}})
	assert.ErrorIs(t, err, store.ErrInvalidField)
}

func TestFindOne_ByIDAndNotFound(t *testing.T) {
	c := NewCollection[doc]("docs")
	ctx := context.Background()
	created, err := c.Insert(ctx, &doc{Name: "x"})
	require.NoError(t, err)

	got, err := c.FindOne(ctx, store.ByID(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = c.FindOne(ctx, store.ByID("missing"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdate_ReplacesAndKeepsID(t *testing.T) {
	c := seed(t, doc{Name: "a", Seats: 3})
	ctx := context.Background()
	all, err := c.Find(ctx, nil, store.FindOptions{})
	require.NoError(t, err)
	id := all[0].ID

	n, err := c.Update(ctx, store.ByID(id), &doc{ID: "other", Name: "renamed"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := c.FindOne(ctx, store.ByID(id))
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Zero(t, got.Seats)

	n, err = c.Update(ctx, store.ByID("missing"), &doc{Name: "z"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFind_CanceledContext(t *testing.T) {
	c := seed(t, doc{Name: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Find(ctx, nil, store.FindOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func names(docs []*doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

// Run with -race: sorted reads must not observe entries that Update is replacing.
func TestFindWithSort_ConcurrentUpdate(t *testing.T) {
	docs := make([]doc, 50)
	for i := range docs {
		docs[i] = doc{Name: fmt.Sprintf("doc-%02d", i), Seats: i}
	}
	c := seed(t, docs...)
	all, err := c.Find(context.Background(), nil, store.FindOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			got, err := c.Find(context.Background(), nil, store.FindOptions{
				Sort: &store.Sort{Field: "seats", Desc: true},
			})
			assert.NoError(t, err)
			assert.Len(t, got, 50)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			target := all[i%len(all)]
			_, err := c.Update(context.Background(), store.ByID(target.ID), &doc{Name: target.Name, Seats: 1000 + i})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestUpdate_KeepsPreviouslyReadDocuments(t *testing.T) {
	c := seed(t, doc{Name: "a", Seats: 1})
	before, err := c.Find(context.Background(), nil, store.FindOptions{})
	require.NoError(t, err)

	_, err = c.Update(context.Background(), store.ByID(before[0].ID), &doc{Name: "b", Seats: 2})
	require.NoError(t, err)

	assert.Equal(t, "a", before[0].Name)
	after, err := c.FindOne(context.Background(), store.ByID(before[0].ID))
	require.NoError(t, err)
	assert.Equal(t, "b", after.Name)
}

func TestUnique(t *testing.T) {
	c := NewCollection[doc]("docs", Unique("name"))
	first, err := c.Insert(context.Background(), &doc{Name: "a"})
	require.NoError(t, err)
	second, err := c.Insert(context.Background(), &doc{Name: "b"})
	require.NoError(t, err)

	_, err = c.Insert(context.Background(), &doc{Name: "a"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = c.Update(context.Background(), store.ByID(second.ID), &doc{Name: "a"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	n, err := c.Update(context.Background(), store.ByID(first.ID), &doc{Name: "a", Seats: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 2, c.Len())
}

func TestUnique_ConcurrentInserts(t *testing.T) {
	c := NewCollection[doc]("docs", Unique("name"))

	var wg sync.WaitGroup
	var inserted atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Insert(context.Background(), &doc{Name: "same"}); err == nil {
				inserted.Add(1)
			} else {
				assert.ErrorIs(t, err, store.ErrDuplicate)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, inserted.Load())
	assert.Equal(t, 1, c.Len())
}
