package store

import (
	"context"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Store is the persistence interface for the report collection.
// Implementations: *Local over a sqlite or redis slot, and *postgres.Store (remote).
type Store interface {
	// LoadAll returns the full collection. Local backends merge seed reports first.
	LoadAll(ctx context.Context) ([]models.Report, error)
	// SaveAll overwrites the persisted collection. Callers always pass the complete collection.
	SaveAll(ctx context.Context, reports []models.Report) error
	// InsertOne persists a new report and returns its identity.
	InsertOne(ctx context.Context, r models.Report) (string, error)

	// Kind names the backend ("sqlite", "redis", "postgres").
	Kind() string
	// Remote reports whether the backend is the hosted relational store.
	Remote() bool
	Close() error
}
