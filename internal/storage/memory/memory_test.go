package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"
)

func ball() types.Toy {
	return types.Toy{Name: "Ball", Descr: types.DefaultDescr, Age: 3, Price: 9.99, Features: []string{}}
}

func TestSequenceNeverRepeats(t *testing.T) {
	var seq Sequence
	assert.Equal(t, "1", seq.Next())
	assert.Equal(t, "2", seq.Next())
	assert.Equal(t, "3", seq.Next())
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Insert(ctx, ball())
	require.NoError(t, err)
	second, err := s.Insert(ctx, ball())
	require.NoError(t, err)

	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, _ := s.Insert(ctx, ball())
	require.NoError(t, s.DeleteByID(ctx, id))

	next, _ := s.Insert(ctx, ball())
	assert.NotEqual(t, id, next)
}

func TestGetByIDAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.Insert(ctx, ball())

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Ball", got.Name)

	_, err = s.GetByID(ctx, "42")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUnknownID(t *testing.T) {
	err := New().DeleteByID(context.Background(), "1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReplaceByID(t *testing.T) {
	ctx := context.Background()
	s := New()

	orig := ball()
	orig.Features = []string{"bouncy"}
	id, _ := s.Insert(ctx, orig)

	repl := ball()
	repl.ID = "ignored"
	repl.Age = 4
	got, err := s.ReplaceByID(ctx, id, repl)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 4, got.Age)
	assert.Empty(t, got.Features)

	_, err = s.ReplaceByID(ctx, "99", repl)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"a", "b", "c"} {
		toy := ball()
		toy.Name = name
		_, _ = s.Insert(ctx, toy)
	}
	require.NoError(t, s.DeleteByID(ctx, "2"))

	toys, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, toys, 2)
	assert.Equal(t, "a", toys[0].Name)
	assert.Equal(t, "c", toys[1].Name)
}

func TestListEmptyIsNotNil(t *testing.T) {
	toys, err := New().List(context.Background(), types.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, toys)
	assert.Empty(t, toys)
}

func TestListFiltersByStringForm(t *testing.T) {
	ctx := context.Background()
	s := New()

	cheap := ball()
	_, _ = s.Insert(ctx, cheap)

	kite := ball()
	kite.Name = "Kite"
	kite.Age = 6
	kite.Price = 12
	kite.Features = []string{"tail"}
	_, _ = s.Insert(ctx, kite)

	tests := []struct {
		name   string
		filter types.Filter
		want   []string
	}{
		{"by name", types.Filter{"name": "Kite"}, []string{"Kite"}},
		{"by id", types.Filter{"id": "1"}, []string{"Ball"}},
		{"by age", types.Filter{"age": "3"}, []string{"Ball"}},
		{"by price exact", types.Filter{"price": "9.99"}, []string{"Ball"}},
		{"whole price prints without decimals", types.Filter{"price": "12"}, []string{"Kite"}},
		{"price is not numeric", types.Filter{"price": "12.0"}, nil},
		{"conjunction", types.Filter{"name": "Ball", "age": "3"}, []string{"Ball"}},
		{"conjunction mismatch", types.Filter{"name": "Ball", "age": "6"}, nil},
		{"unknown key", types.Filter{"colour": "red"}, nil},
		{"features", types.Filter{"features": "[tail]"}, []string{"Kite"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toys, err := s.List(ctx, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, toy := range toys {
				names = append(names, toy.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	toy := ball()
	toy.Features = []string{"bouncy"}
	id, _ := s.Insert(ctx, toy)

	got, _ := s.GetByID(ctx, id)
	got.Features[0] = "flat"

	again, _ := s.GetByID(ctx, id)
	assert.Equal(t, []string{"bouncy"}, again.Features)
}

func TestConcurrentInsertsGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := s.Insert(ctx, ball())
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
