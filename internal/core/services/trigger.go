package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// TriggerService runs the deployment stage for one environment after a
// change has been merged.
type TriggerService struct {
	source    ports.RecordSource
	revisions ports.RevisionRepository
	validator *ValidationService
	promoter  *PromotionService
}

// NewTriggerService creates a trigger service. revisions may be nil.
func NewTriggerService(
	source ports.RecordSource,
	revisions ports.RevisionRepository,
	validator *ValidationService,
	promoter *PromotionService,
) *TriggerService {
	return &TriggerService{
		source:    source,
		revisions: revisions,
		validator: validator,
		promoter:  promoter,
	}
}

// TriggerRequest contains parameters for a deployment run
type TriggerRequest struct {
	Environment domain.Environment
	CommitSHA   string
	Author      string
}

// TriggerReport lists the outcome of every record of the environment.
type TriggerReport struct {
	Environment domain.Environment        `json:"environment"`
	Decisions   []FileDecision            `json:"decisions"`
	Results     []*domain.PromotionResult `json:"results"`
}

// Run validates every record of the environment and, only if all are
// accepted, promotes them one by one in file order. A failing promotion does
// not stop the others; all failures are returned joined.
func (s *TriggerService) Run(ctx context.Context, req TriggerRequest) (*TriggerReport, error) {
	if !req.Environment.IsValid() {
		return nil, domain.ErrInvalidEnvironment
	}
	report := &TriggerReport{Environment: req.Environment}

	records, err := s.source.LoadEnvironment(ctx, req.Environment)
	if err != nil {
		return report, err
	}

	var rejectedErrs []error
	for _, rec := range records {
		decision := s.validator.Validate(rec, s.committed(ctx, rec))
		if decision.Accepted && rec.Environment != req.Environment {
			decision = rejected(domain.ErrEnvironmentMismatch)
		}
		fd := FileDecision{Path: rec.Source, Record: rec, Decision: decision}
		report.Decisions = append(report.Decisions, fd)
		logDecision(req.Environment, fd)
		if !decision.Accepted {
			rejectedErrs = append(rejectedErrs, fmt.Errorf("%s: %w", rec.Source, decision.Err))
		}
	}
	if len(rejectedErrs) > 0 {
		return report, errors.Join(rejectedErrs...)
	}

	var failures []error
	for _, rec := range records {
		log.WithField("path", rec.Source).Info("processing record")
		result, err := s.promoter.Promote(ctx, PromoteRequest{
			Config:    rec,
			CommitSHA: req.CommitSHA,
			Author:    req.Author,
		})
		report.Results = append(report.Results, result)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", rec.Source, err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	return report, errors.Join(failures...)
}

// committed returns the active revision of rec, or nil if there is none.
func (s *TriggerService) committed(ctx context.Context, rec *domain.EnvironmentConfig) *domain.EnvironmentConfig {
	if s.revisions == nil {
		return nil
	}
	rev, err := s.revisions.Current(ctx, rec.Environment, rec.ModelName)
	if err != nil {
		if !errors.Is(err, domain.ErrRevisionNotFound) {
			log.WithError(err).Warn("failed to read current revision, validating without history")
		}
		return nil
	}
	return rev.Config
}
