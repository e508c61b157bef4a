/*
store.go - Persistence interface for the three record collections

PURPOSE:
  Defines the boundary between the registry and durable storage.
  Implementations keep each collection as an independent keyed namespace.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:      SQLite, one table per collection
  - registry/store/memory.go:    In-memory, for tests and throwaway sessions

CONTRACT:
  Initialize is idempotent: the first call creates the collections and their
  secondary indexes, later calls find them in place and change nothing.

  Create validates required fields (ValidationError) and assigns the next id
  when the record has none. Ids are never reused, not even after Delete.

  Get, Put and Delete fail with NotFoundError for unknown ids.
  Put is a full replace of an existing record.

  Every call is atomic and durable once it returns. Stores do not check
  references between collections; that is the Guard's job.

SEE ALSO:
  - guard.go: Reference checks run before Store mutations
  - projection.go: The sorted cache built from GetAll
*/
package registry

import "context"

// Store persists records of all three collections.
type Store interface {
	// Initialize opens or creates the collections. Safe to call more than once.
	Initialize(ctx context.Context) error

	// Create persists a new record and returns its id.
	Create(ctx context.Context, rec Record) (ID, error)

	// Get returns the record with id in collection c.
	Get(ctx context.Context, c Collection, id ID) (Record, error)

	// GetAll returns every record of collection c, in key order.
	GetAll(ctx context.Context, c Collection) ([]Record, error)

	// Put replaces an existing record.
	Put(ctx context.Context, rec Record) error

	// Delete removes the record with id from collection c.
	Delete(ctx context.Context, c Collection, id ID) error

	// Close releases the underlying resources.
	Close() error
}
