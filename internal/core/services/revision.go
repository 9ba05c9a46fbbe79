package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// RevisionService exposes the history of accepted records and prepares
// rollbacks as new change proposals.
type RevisionService struct {
	repo      ports.RevisionRepository
	source    ports.RecordSource
	validator *ValidationService
}

// NewRevisionService creates a revision service. repo may be nil, in which
// case every call returns domain.ErrHistoryUnavailable.
func NewRevisionService(repo ports.RevisionRepository, source ports.RecordSource, validator *ValidationService) *RevisionService {
	return &RevisionService{repo: repo, source: source, validator: validator}
}

// History lists revisions, newest first
func (s *RevisionService) History(ctx context.Context, filter ports.RevisionFilter) ([]*domain.ConfigRevision, int, error) {
	if s.repo == nil {
		return nil, 0, domain.ErrHistoryUnavailable
	}
	if !filter.Environment.IsValid() {
		return nil, 0, domain.ErrInvalidEnvironment
	}
	return s.repo.History(ctx, filter.Paged())
}

// Current returns the active revision of a record
func (s *RevisionService) Current(ctx context.Context, env domain.Environment, modelName string) (*domain.ConfigRevision, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	return s.repo.Current(ctx, env, modelName)
}

// Get returns one revision of a record
func (s *RevisionService) Get(ctx context.Context, env domain.Environment, modelName string, revision int) (*domain.ConfigRevision, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	return s.repo.GetByRevision(ctx, env, modelName, revision)
}

// RollbackProposal is a record rewritten from history, ready to be committed
// and proposed for review.
type RollbackProposal struct {
	Path         string                    `json:"path"`
	FromRevision int                       `json:"from_revision"`
	Config       *domain.EnvironmentConfig `json:"config"`
	Changed      bool                      `json:"changed"`
}

// Rollback writes the record of an earlier revision back to its file. It
// does not touch the registry: the revert goes through review and the
// normal promotion pipeline like any other change.
func (s *RevisionService) Rollback(ctx context.Context, env domain.Environment, modelName string, revision int) (*RollbackProposal, error) {
	rev, err := s.Get(ctx, env, modelName, revision)
	if err != nil {
		return nil, err
	}

	path := s.source.PathFor(env, modelName)
	var current *domain.EnvironmentConfig
	current, err = s.source.LoadFile(ctx, path)
	if err != nil {
		// A missing or unreadable file is replaced wholesale.
		log.WithField("path", path).WithError(err).Debug("no readable record to roll back from")
		current = nil
	}

	cfg := rev.Config.Clone()
	decision := s.validator.Validate(cfg, current)
	if !decision.Accepted {
		return nil, fmt.Errorf("revision %d cannot be restored: %w", revision, decision.Err)
	}

	if err := s.source.Write(ctx, path, cfg); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"environment": env,
		"model":       modelName,
		"revision":    revision,
		"path":        path,
	}).Info("record restored, commit and open a pull request to roll back")

	return &RollbackProposal{
		Path:         path,
		FromRevision: revision,
		Config:       cfg,
		Changed:      current == nil || decision.Changed,
	}, nil
}
