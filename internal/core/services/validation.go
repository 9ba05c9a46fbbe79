package services

import (
	"context"
	"errors"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// maxConcurrentValidations bounds the number of records validated at once.
const maxConcurrentValidations = 8

// ValidationService decides whether proposed records may be handed to the
// deployment stage.
type ValidationService struct {
	opts domain.ValidationOptions
}

// NewValidationService creates a validation service
func NewValidationService(allowedModels []string) *ValidationService {
	return &ValidationService{opts: domain.ValidationOptions{AllowedModels: allowedModels}}
}

// Options returns the validation options in effect.
func (s *ValidationService) Options() domain.ValidationOptions {
	return s.opts
}

// Validate checks one candidate against the previously committed record.
func (s *ValidationService) Validate(candidate, previous *domain.EnvironmentConfig) domain.Decision {
	return domain.ValidateChange(candidate, previous, s.opts)
}

// FileDecision is the decision for one record file of a proposed change.
type FileDecision struct {
	Path     string                    `json:"path"`
	Record   *domain.EnvironmentConfig `json:"record,omitempty"`
	Decision domain.Decision           `json:"decision"`
}

// ValidationReport summarizes the validation of an environment.
type ValidationReport struct {
	Environment domain.Environment `json:"environment"`
	Files       []FileDecision     `json:"files"`
}

// Accepted reports whether every file was accepted.
func (r *ValidationReport) Accepted() bool {
	return len(r.Rejected()) == 0
}

// Rejected returns the rejected files.
func (r *ValidationReport) Rejected() []FileDecision {
	var out []FileDecision
	for _, f := range r.Files {
		if !f.Decision.Accepted {
			out = append(out, f)
		}
	}
	return out
}

// ValidateEnvironment validates every record file of env in proposed against
// the file with the same name in base. base may be nil when there is no
// committed tree to compare with. Malformed files are reported as rejected
// rather than aborting the run.
func (s *ValidationService) ValidateEnvironment(
	ctx context.Context,
	env domain.Environment,
	proposed ports.RecordSource,
	base ports.RecordSource,
) (*ValidationReport, error) {
	if !env.IsValid() {
		return nil, domain.ErrInvalidEnvironment
	}

	paths, err := proposed.ListEnvironment(ctx, env)
	if err != nil {
		return nil, err
	}

	previousPaths := map[string]string{}
	if base != nil {
		committed, err := base.ListEnvironment(ctx, env)
		if err != nil {
			return nil, err
		}
		for _, p := range committed {
			previousPaths[filepath.Base(p)] = p
		}
	}

	report := &ValidationReport{
		Environment: env,
		Files:       make([]FileDecision, len(paths)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentValidations)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			var prevPath string
			if base != nil {
				prevPath = previousPaths[filepath.Base(path)]
			}
			fd, err := s.validateFile(gctx, env, path, proposed, prevPath, base)
			if err != nil {
				return err
			}
			report.Files[i] = fd
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *ValidationService) validateFile(
	ctx context.Context,
	env domain.Environment,
	path string,
	proposed ports.RecordSource,
	prevPath string,
	base ports.RecordSource,
) (FileDecision, error) {
	fd := FileDecision{Path: path}

	candidate, err := proposed.LoadFile(ctx, path)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedRecord) {
			return fd, err
		}
		fd.Decision = rejected(err)
		logDecision(env, fd)
		return fd, nil
	}
	fd.Record = candidate

	var previous *domain.EnvironmentConfig
	if prevPath != "" {
		// An unreadable committed record gives nothing to compare with.
		previous, err = base.LoadFile(ctx, prevPath)
		if err != nil && !errors.Is(err, domain.ErrMalformedRecord) {
			return fd, err
		}
	}

	fd.Decision = s.Validate(candidate, previous)

	// The directory decides the environment: a record filed under another
	// environment is rejected even if it is valid on its own.
	if fd.Decision.Accepted && candidate.Environment != env {
		fd.Decision = rejected(domain.ErrEnvironmentMismatch)
	}

	logDecision(env, fd)
	return fd, nil
}

func rejected(err error) domain.Decision {
	return domain.Decision{Accepted: false, Reason: err.Error(), Err: err}
}

func logDecision(env domain.Environment, fd FileDecision) {
	entry := log.WithFields(log.Fields{
		"environment": env,
		"path":        fd.Path,
		"accepted":    fd.Decision.Accepted,
		"changed":     fd.Decision.Changed,
	})
	if fd.Decision.Accepted {
		entry.Debug("record accepted")
		return
	}
	entry.WithField("reason", fd.Decision.Reason).Warn("record rejected")
}
