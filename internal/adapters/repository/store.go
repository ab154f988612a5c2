// Package repository holds innings logs in memory and persists them.
package repository

import (
	"context"
	"io"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
)

// Store provides access to every innings known to the service.
type Store interface {
	// GetOrCreate returns the innings for key, creating it when unknown.
	GetOrCreate(ctx context.Context, key model.InningsKey) *innings.Innings

	// Get returns the innings for key or ErrNotFound.
	Get(ctx context.Context, key model.InningsKey) (*innings.Innings, error)

	// List returns every known key ordered by match then innings number.
	List(ctx context.Context) []model.InningsKey

	// Count returns the number of innings held.
	Count(ctx context.Context) int

	// Save writes every innings to w. Restore replaces the contents with what
	// was previously saved.
	Save(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) error
}
