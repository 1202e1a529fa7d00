package obligation

import "context"

// Repository defines the operations for persisting and retrieving Obligation
// definitions. Obligations are never deleted by the engine, only paused.
type Repository interface {
	Create(ctx context.Context, ob *Obligation) error
	GetByID(ctx context.Context, id int64) (*Obligation, error)
	Update(ctx context.Context, ob *Obligation) error
	// ListActive returns obligations in StateActive.
	ListActive(ctx context.Context) ([]*Obligation, error)
	ListAll(ctx context.Context) ([]*Obligation, error)
}
