// Package store holds the persistence surface for records and its
// Postgres, Mongo and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/Bijush/Avoter/models"
)

// ErrNotFound is returned when no record exists for a requested identifier.
var ErrNotFound = errors.New("record not found")

// RecordStore is the single-key persistence surface for records. Every
// implementation provides atomic per-record read/write/delete; concurrent
// writers to the same identifier race with last-write-wins semantics.
type RecordStore interface {
	// List returns every stored record. A missing or empty backing
	// collection is not an error; it yields an empty slice.
	List(ctx context.Context) ([]models.Record, error)
	// Get returns one record by identifier, or ErrNotFound.
	Get(ctx context.Context, id string) (models.Record, error)
	// Create persists a new record under its identifier.
	Create(ctx context.Context, rec models.Record) error
	// Update replaces the stored record for rec.ID.
	Update(ctx context.Context, rec models.Record) error
	// UpdateRemark overwrites only the remark field; a missing
	// identifier is a no-op.
	UpdateRemark(ctx context.Context, id, remark string) error
	// SetAttachments replaces the record's attachment address list.
	SetAttachments(ctx context.Context, id string, addrs []string) error
	// Delete removes the record; a missing identifier is a no-op.
	Delete(ctx context.Context, id string) error
	// Ping checks connectivity with the backing service.
	Ping(ctx context.Context) error
	// Name identifies the backend in the health probe response.
	Name() string
}
