package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConfigRevision is one accepted revision of an Environment Configuration
// Record. Revisions are superseded, never deleted.
type ConfigRevision struct {
	ID           uuid.UUID          `json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	Environment  Environment        `json:"environment"`
	ModelName    string             `json:"model_name"`
	Revision     int                `json:"revision"`
	Config       *EnvironmentConfig `json:"config"`
	CommitSHA    string             `json:"commit_sha,omitempty"`
	Author       string             `json:"author,omitempty"`
	SupersededAt *time.Time         `json:"superseded_at,omitempty"`
}

// NewConfigRevision creates the next revision for a record. The revision
// number is assigned by the repository.
func NewConfigRevision(cfg *EnvironmentConfig, commitSHA, author string) *ConfigRevision {
	c := cfg.Clone()
	c.Normalize()
	return &ConfigRevision{
		ID:          uuid.New(),
		CreatedAt:   time.Now(),
		Environment: c.Environment,
		ModelName:   c.ModelName,
		Config:      c,
		CommitSHA:   commitSHA,
		Author:      author,
	}
}

// IsActive reports whether this revision is the current one.
func (r *ConfigRevision) IsActive() bool {
	return r.SupersededAt == nil
}
