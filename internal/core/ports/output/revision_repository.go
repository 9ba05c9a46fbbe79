package ports

import (
	"context"

	"model-promotion-service/internal/core/domain"
)

// RevisionFilter defines filter options for listing revisions
type RevisionFilter struct {
	Environment domain.Environment
	ModelName   string
	Limit       int
	Offset      int
}

// Paging limits for revision listings
const (
	DefaultRevisionLimit = 20
	MaxRevisionLimit     = 100
)

// Paged returns the filter with its limit clamped to
// [1, MaxRevisionLimit] and a non-negative offset. A zero limit becomes
// DefaultRevisionLimit.
func (f RevisionFilter) Paged() RevisionFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultRevisionLimit
	}
	if f.Limit > MaxRevisionLimit {
		f.Limit = MaxRevisionLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RevisionRepository persists the history of accepted records.
type RevisionRepository interface {
	// Record stores rev as the current revision and supersedes the previous
	// one in the same transaction. It assigns rev.Revision.
	Record(ctx context.Context, rev *domain.ConfigRevision) error
	Current(ctx context.Context, env domain.Environment, modelName string) (*domain.ConfigRevision, error)
	GetByRevision(ctx context.Context, env domain.Environment, modelName string, revision int) (*domain.ConfigRevision, error)
	History(ctx context.Context, filter RevisionFilter) ([]*domain.ConfigRevision, int, error)
}
