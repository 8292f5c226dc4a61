// Package store defines the transactional persistence contract shared by
// the memory, MongoDB and PostgreSQL backends.
package store

import (
	"context"
	"errors"
	"time"

	"go-crm-core/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("record was modified concurrently")
	ErrDuplicate = errors.New("duplicate key")
)

// Store opens transactions. WithTx commits when fn returns nil and rolls
// back otherwise. A ctx that already carries a transaction of the same
// store joins it instead of opening a new one.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of operations available inside one transaction.
type Tx interface {
	// Insert persists a new record with Version 1.
	Insert(ctx context.Context, rec models.Record) error
	// Get returns the record regardless of soft deletion.
	Get(ctx context.Context, kind models.Kind, id string) (models.Record, error)
	// Update writes rec if the stored version equals rec's version, then
	// bumps the version on both. ErrConflict otherwise.
	Update(ctx context.Context, rec models.Record) error
	// SoftDelete stamps deleted_at/deleted_by. Deleting twice is ErrNotFound.
	SoftDelete(ctx context.Context, kind models.Kind, id string, at time.Time, by string) error
	// List returns live records of kind matching all conds in creation order.
	List(ctx context.Context, kind models.Kind, conds ...models.Condition) ([]models.Record, error)
	// Reassign moves every live child of kind from one parent to another.
	Reassign(ctx context.Context, kind models.Kind, from, to models.Ref, at time.Time) (int64, error)
}
