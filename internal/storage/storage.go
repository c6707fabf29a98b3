// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"grepbot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	ListGreps(ctx context.Context) ([]model.Grep, error)
	CreateGrep(ctx context.Context, g model.Grep) error
	DeleteGrep(ctx context.Context, g model.Grep) error
	ReplaceGreps(ctx context.Context, greps []model.Grep) error

	Close() error
}
