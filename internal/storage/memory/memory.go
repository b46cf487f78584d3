// Package memory provides an in-process implementation of the
// storage.Storage interface.
//
// The collection lives in a map owned by a Store value that is created
// in main and handed to the handlers. There is no package-level state,
// so every test can build its own isolated Store.
//
// FILTERING
// ─────────
// List compares the STRING FORM of each field with the raw query value.
// "price=19.99" only matches if the stored price prints as "19.99";
// this is not a numeric comparison and differs from the typed equality
// the persistent backends use.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aanand-mishra/toys-api/internal/storage"
	"github.com/aanand-mishra/toys-api/internal/types"
)

// Store is the in-memory toys collection. A single RWMutex guards the
// map, the insertion order and the id sequence, so a Store is safe for
// concurrent use by multiple request goroutines.
type Store struct {
	mu    sync.RWMutex
	seq   Sequence
	toys  map[string]types.Toy
	order []string // ids in insertion order
}

// New returns an empty Store.
func New() *Store {
	return &Store{toys: make(map[string]types.Toy)}
}

func (s *Store) Insert(_ context.Context, toy types.Toy) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq.Next()
	toy.ID = id
	s.toys[id] = clone(toy)
	s.order = append(s.order, id)

	return id, nil
}

func (s *Store) List(_ context.Context, filter types.Filter) ([]types.Toy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	toys := make([]types.Toy, 0, len(s.order))
	for _, id := range s.order {
		toy := s.toys[id]
		if matches(toy, filter) {
			toys = append(toys, clone(toy))
		}
	}

	return toys, nil
}

func (s *Store) GetByID(_ context.Context, id string) (types.Toy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	toy, ok := s.toys[id]
	if !ok {
		return types.Toy{}, fmt.Errorf("no toy found with id %q: %w", id, storage.ErrNotFound)
	}

	return clone(toy), nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.toys[id]; !ok {
		return fmt.Errorf("no toy found with id %q: %w", id, storage.ErrNotFound)
	}

	delete(s.toys, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return nil
}

// ReplaceByID keeps the record's position in the listing order.
func (s *Store) ReplaceByID(_ context.Context, id string, toy types.Toy) (types.Toy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.toys[id]; !ok {
		return types.Toy{}, fmt.Errorf("no toy found with id %q: %w", id, storage.ErrNotFound)
	}

	toy.ID = id
	s.toys[id] = clone(toy)

	return clone(toy), nil
}

// matches reports whether every filter key equals the string form of the
// corresponding field. Keys that are not toy fields never match.
func matches(toy types.Toy, filter types.Filter) bool {
	for key, want := range filter {
		got, ok := fieldString(toy, key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// fieldString renders a field the way it is compared against a query
// value: age in base 10, price in its shortest form (12.0 reads "12"),
// features through fmt.Sprint (["tail"] reads "[tail]").
func fieldString(toy types.Toy, key string) (string, bool) {
	switch key {
	case "id":
		return toy.ID, true
	case "name":
		return toy.Name, true
	case "descr":
		return toy.Descr, true
	case "age":
		return strconv.Itoa(toy.Age), true
	case "price":
		return strconv.FormatFloat(toy.Price, 'f', -1, 64), true
	case "features":
		return fmt.Sprint(toy.Features), true
	default:
		return "", false
	}
}

// clone copies the features slice so callers never share backing arrays
// with the stored record.
func clone(toy types.Toy) types.Toy {
	toy.Features = append([]string{}, toy.Features...)
	return toy
}
