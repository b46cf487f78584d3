// Package storage defines the Storage interface, the contract that any
// backend must satisfy to hold the toys collection.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which backend they are
// talking to. Three implementations exist:
//
//   - memory: a map owned by the process (ids "1", "2", ...)
//   - mongo:  a MongoDB collection (ids are ObjectID hex strings)
//   - sqlite: a single-file SQL database (ids are row ids)
//
// Writing tests = pass the memory store. No real database needed.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/toys-api/internal/types"
)

// Store errors. Anything else returned by a Storage is unexpected.
var (
	// ErrNotFound means no record exists under the given id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID means the id cannot be parsed into the backend's
	// native identifier type. It is distinct from ErrNotFound here;
	// the HTTP layer reports both as 404.
	ErrInvalidID = errors.New("invalid id")
)

// Storage is the toys collection contract.
type Storage interface {
	// Insert stores a new toy and returns the id issued for it.
	// Any ID already set on toy is ignored.
	Insert(ctx context.Context, toy types.Toy) (string, error)

	// List returns the toys matching every key of filter, or all toys
	// when filter is empty. Returns an empty slice (not nil) when
	// nothing matches.
	List(ctx context.Context, filter types.Filter) ([]types.Toy, error)

	// GetByID fetches a single toy.
	GetByID(ctx context.Context, id string) (types.Toy, error)

	// DeleteByID removes a toy permanently.
	DeleteByID(ctx context.Context, id string) error

	// ReplaceByID overwrites every field of an existing toy and returns
	// the stored record. The id itself never changes.
	ReplaceByID(ctx context.Context, id string, toy types.Toy) (types.Toy, error)
}
