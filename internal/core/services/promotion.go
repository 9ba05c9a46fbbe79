package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// PromotionOptions configures a PromotionService
type PromotionOptions struct {
	// SettleDelay is how long to wait between setting an alias and reading
	// it back; the registry does not expose new aliases immediately.
	SettleDelay time.Duration

	// NamespaceFor maps an environment to its serving namespace.
	NamespaceFor func(env domain.Environment) string
}

// PromotionService promotes the model version named by a record to the
// baseline alias of the model registry, starts the A/B test described by its
// rollout, and optionally syncs the serving resources of the environment.
type PromotionService struct {
	registry  ports.RegistryClient
	revisions ports.RevisionRepository
	kserve    ports.KServeClient
	aiGateway ports.AIGatewayClient
	validator *ValidationService
	opts      PromotionOptions
}

// NewPromotionService creates a new promotion service. revisions, kserve and
// aiGateway may be nil.
func NewPromotionService(
	registry ports.RegistryClient,
	revisions ports.RevisionRepository,
	kserve ports.KServeClient,
	aiGateway ports.AIGatewayClient,
	validator *ValidationService,
	opts PromotionOptions,
) *PromotionService {
	if opts.NamespaceFor == nil {
		opts.NamespaceFor = func(env domain.Environment) string { return "model-serving-" + string(env) }
	}
	return &PromotionService{
		registry:  registry,
		revisions: revisions,
		kserve:    kserve,
		aiGateway: aiGateway,
		validator: validator,
		opts:      opts,
	}
}

// PromoteRequest contains parameters for promoting one record
type PromoteRequest struct {
	Config    *domain.EnvironmentConfig
	CommitSHA string
	Author    string
}

// Promote applies one accepted record. The returned result is never nil; on
// error its Status is failed and Rollback carries the pre-promotion state
// when the registry was already touched.
func (s *PromotionService) Promote(ctx context.Context, req PromoteRequest) (*domain.PromotionResult, error) {
	result := &domain.PromotionResult{Status: domain.PromotionFailed}
	if req.Config == nil {
		return result, domain.ErrMalformedRecord
	}

	cfg := req.Config.Clone()
	cfg.Normalize()
	result.Environment = cfg.Environment
	result.ModelName = cfg.ModelName
	result.Alias = cfg.EffectiveAlias()

	if decision := s.validator.Validate(cfg, nil); !decision.Accepted {
		return result, decision.Err
	}
	if cfg.HasRollout() && s.servingEnabled() && !s.gatewayEnabled() {
		return result, fmt.Errorf("%w: rollout %s needs the AI Gateway to split traffic", domain.ErrServingNotAvailable, cfg.Rollout.Experiment)
	}

	logger := log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"model":       cfg.ModelName,
		"alias":       cfg.EffectiveAlias(),
	})

	if cfg.Version == "" {
		latest, err := s.registry.GetLatestVersion(ctx, cfg.ModelName)
		if err != nil {
			return result, fmt.Errorf("resolve latest version of %s: %w", cfg.ModelName, err)
		}
		cfg.Version = latest.Version
		logger.WithField("version", cfg.Version).Info("resolved latest registered version")
	}
	result.Version = cfg.Version
	logger = logger.WithField("version", cfg.Version)

	// Kept to tell the operator how to roll back if something goes wrong.
	currentBaseline := s.getModelByAlias(ctx, cfg.ModelName, cfg.EffectiveAlias())
	target, err := s.registry.GetModelVersion(ctx, cfg.ModelName, cfg.Version)
	if err != nil {
		return result, fmt.Errorf("get model version %s/%s: %w", cfg.ModelName, cfg.Version, err)
	}
	plan := &domain.RollbackPlan{
		Environment:        cfg.Environment,
		ModelName:          cfg.ModelName,
		PreviousBaseline:   currentBaseline,
		PreviousChallenger: target,
	}

	baselineChanged := currentBaseline == nil || currentBaseline.Version != cfg.Version
	if !baselineChanged && !cfg.HasRollout() {
		logger.Info("baseline alias already points at this version, no changes needed")
		result.Status = domain.PromotionUnchanged
		result.Messages = append(result.Messages, "baseline already up to date")
		return result, nil
	}

	if baselineChanged {
		// A version becoming the baseline has concluded its A/B tests and
		// loses its challenger status.
		result.RemovedAliases = s.removeChallengerAliases(ctx, target)

		logger.Infof("promoting model to %s on %s environment", cfg.EffectiveAlias(), cfg.Environment)
		if err := s.addAlias(ctx, cfg.ModelName, cfg.Version, cfg.EffectiveAlias()); err != nil {
			result.Rollback = plan
			return result, err
		}
		logger.Info("alias set")
	}

	if cfg.HasRollout() {
		aliases, err := s.startChallengers(ctx, cfg)
		result.ChallengerAliases = aliases
		if err != nil {
			result.Rollback = plan
			return result, err
		}
	}

	if baselineChanged {
		if err := s.wait(ctx); err != nil {
			result.Rollback = plan
			return result, err
		}
		if err := s.verifyBaseline(ctx, cfg.ModelName, cfg.EffectiveAlias(), cfg.Version); err != nil {
			result.Rollback = plan
			logger.WithError(err).Error("verification failed")
			logger.Error(plan.Instructions())
			return result, err
		}
		logger.Info("verified that the baseline alias points at the promoted version")
	}

	endpoints, err := s.syncServing(ctx, cfg, target)
	result.Endpoints = endpoints
	if err != nil {
		result.Rollback = plan
		logger.WithError(err).Error("serving sync failed")
		logger.Error(plan.Instructions())
		return result, err
	}
	result.ServingSynced = s.servingEnabled()
	result.Status = domain.PromotionPromoted

	if s.revisions != nil {
		rev := domain.NewConfigRevision(cfg, req.CommitSHA, req.Author)
		if err := s.revisions.Record(ctx, rev); err != nil {
			// The registry already reflects the record; a missing history
			// entry must not fail the deployment.
			logger.WithError(err).Error("failed to record configuration revision")
			result.Messages = append(result.Messages, "revision history not updated: "+err.Error())
		} else {
			result.Revision = rev.Revision
		}
	}

	return result, nil
}

// getModelByAlias returns nil when the alias is not set or cannot be read.
func (s *PromotionService) getModelByAlias(ctx context.Context, name, alias string) *domain.RegistryModelVersion {
	mv, err := s.registry.GetModelVersionByAlias(ctx, name, alias)
	if err != nil {
		log.WithFields(log.Fields{"model": name, "alias": alias}).WithError(err).Debug("model alias lookup failed")
		return nil
	}
	return mv
}

func (s *PromotionService) addAlias(ctx context.Context, name, version, alias string) error {
	if err := s.registry.SetAlias(ctx, name, alias, version); err != nil {
		return fmt.Errorf("%w: alias %s on %s version %s: %v", domain.ErrAliasUpdateFailed, alias, name, version, err)
	}
	return nil
}

func (s *PromotionService) removeAlias(ctx context.Context, name, alias string) error {
	if err := s.registry.DeleteAlias(ctx, name, alias); err != nil {
		return fmt.Errorf("remove alias %s from %s: %w", alias, name, err)
	}
	return nil
}

// removeChallengerAliases strips challenger aliases from the version being
// promoted. Failures are logged and do not stop the promotion.
func (s *PromotionService) removeChallengerAliases(ctx context.Context, mv *domain.RegistryModelVersion) []string {
	var removed []string
	for _, alias := range mv.ChallengerAliases() {
		entry := log.WithFields(log.Fields{"model": mv.Name, "version": mv.Version, "alias": alias})
		entry.Info("removing challenger alias")
		if err := s.removeAlias(ctx, mv.Name, alias); err != nil {
			entry.WithError(err).Error("failed to remove challenger alias")
			continue
		}
		removed = append(removed, alias)
	}
	return removed
}

// startChallengers attaches one challenger alias per non-baseline variant.
func (s *PromotionService) startChallengers(ctx context.Context, cfg *domain.EnvironmentConfig) ([]string, error) {
	var aliases []string
	for _, v := range cfg.Rollout.Challengers(cfg.Version) {
		alias := cfg.Rollout.ChallengerAlias(v)
		current := s.getModelByAlias(ctx, cfg.ModelName, alias)
		if current != nil && current.Version == v.Version {
			aliases = append(aliases, alias)
			continue
		}
		if err := s.addAlias(ctx, cfg.ModelName, v.Version, alias); err != nil {
			return aliases, err
		}
		log.WithFields(log.Fields{
			"model":   cfg.ModelName,
			"version": v.Version,
			"alias":   alias,
			"weight":  v.Weight,
		}).Info("challenger alias set")
		aliases = append(aliases, alias)
	}
	return aliases, nil
}

// verifyBaseline checks that alias resolves to version and that the
// resolved version carries no challenger aliases.
func (s *PromotionService) verifyBaseline(ctx context.Context, name, alias, version string) error {
	found := s.getModelByAlias(ctx, name, alias)
	if found == nil {
		return fmt.Errorf("%w: no %s model found in the registry for %s", domain.ErrVerificationFailed, alias, name)
	}
	if found.Version != version {
		return fmt.Errorf("%w: %s of %s is version %s, expected %s",
			domain.ErrVerificationFailed, alias, name, found.Version, version)
	}
	if challengers := found.ChallengerAliases(); len(challengers) > 0 {
		return fmt.Errorf("%w: %s model %s version %s still has challenger aliases [%s]",
			domain.ErrVerificationFailed, alias, name, version, strings.Join(challengers, ", "))
	}
	return nil
}

func (s *PromotionService) wait(ctx context.Context) error {
	if s.opts.SettleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *PromotionService) servingEnabled() bool {
	return s.kserve != nil && s.kserve.IsAvailable()
}

func (s *PromotionService) gatewayEnabled() bool {
	return s.aiGateway != nil && s.aiGateway.IsAvailable()
}

// syncServing applies one InferenceService per served version and, for a
// rollout, the weighted route across them. It reports what the cluster
// returned for each applied resource.
func (s *PromotionService) syncServing(ctx context.Context, cfg *domain.EnvironmentConfig, target *domain.RegistryModelVersion) ([]domain.ServingEndpoint, error) {
	if !s.servingEnabled() {
		return nil, nil
	}
	namespace := s.opts.NamespaceFor(cfg.Environment)

	baseline := &ports.ServingDeployment{
		Name:        servingName(cfg.ModelName, ""),
		Namespace:   namespace,
		Environment: cfg.Environment,
		ModelName:   cfg.ModelName,
		Version:     cfg.Version,
		StorageURI:  storageURI(target),
	}
	status, err := s.kserve.Apply(ctx, baseline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServingSyncFailed, err)
	}
	endpoints := []domain.ServingEndpoint{newEndpoint(baseline, status)}

	if !cfg.HasRollout() {
		return endpoints, nil
	}

	backends := make([]ports.WeightedBackend, 0, len(cfg.Rollout.Variants))
	for _, v := range cfg.Rollout.Variants {
		name := baseline.Name
		if v.Version != cfg.Version {
			mv, err := s.registry.GetModelVersion(ctx, cfg.ModelName, v.Version)
			if err != nil {
				return endpoints, fmt.Errorf("%w: %v", domain.ErrServingSyncFailed, err)
			}
			deployment := &ports.ServingDeployment{
				Name:        servingName(cfg.ModelName, v.Name),
				Namespace:   namespace,
				Environment: cfg.Environment,
				ModelName:   cfg.ModelName,
				Version:     v.Version,
				StorageURI:  storageURI(mv),
				Variant:     v.Name,
			}
			status, err := s.kserve.Apply(ctx, deployment)
			if err != nil {
				return endpoints, fmt.Errorf("%w: %v", domain.ErrServingSyncFailed, err)
			}
			endpoints = append(endpoints, newEndpoint(deployment, status))
			name = deployment.Name
		}
		backends = append(backends, ports.WeightedBackend{Name: name, Weight: v.Weight, VariantTag: v.Name})
	}

	route := &ports.AIGatewayRoute{
		Name:      servingName(cfg.ModelName, cfg.Rollout.Experiment),
		Namespace: namespace,
		ModelName: cfg.ModelName,
		Backends:  backends,
		Labels: map[string]string{
			"model-promotion/environment": string(cfg.Environment),
			"model-promotion/experiment":  cfg.Rollout.Experiment,
		},
	}
	applied, err := s.aiGateway.ApplyRoute(ctx, route)
	if err != nil {
		return endpoints, fmt.Errorf("%w: %v", domain.ErrServingSyncFailed, err)
	}

	// Weights are reported as the gateway stored them.
	weights := make(map[string]int, len(backends))
	if applied != nil {
		backends = applied.Backends
	}
	for _, b := range backends {
		weights[b.Name] += b.Weight
	}
	for i := range endpoints {
		endpoints[i].Weight = weights[endpoints[i].Name]
	}
	return endpoints, nil
}

func newEndpoint(d *ports.ServingDeployment, status *ports.KServeStatus) domain.ServingEndpoint {
	ep := domain.ServingEndpoint{Name: d.Name, Variant: d.Variant, Version: d.Version}
	if status != nil {
		ep.URL = status.URL
		ep.Ready = status.Ready
		ep.Error = status.Error
	}
	return ep
}

// servingName derives a DNS-1123 resource name from a model and variant.
func servingName(model, variant string) string {
	name := strings.ToLower(strings.ReplaceAll(model, "_", "-"))
	if variant != "" {
		name += "-" + variant
	}
	if len(name) > 63 {
		name = strings.TrimRight(name[:63], "-")
	}
	return name
}

// storageURI prefers the artifact location recorded by the registry and
// falls back to the registry URI scheme.
func storageURI(mv *domain.RegistryModelVersion) string {
	if mv.Source != "" {
		return mv.Source
	}
	return fmt.Sprintf("models:/%s/%s", mv.Name, mv.Version)
}

// IsDeploymentFailure reports whether err happened after the registry was
// modified, i.e. the fix is to re-propose the previous record.
func IsDeploymentFailure(err error) bool {
	return errors.Is(err, domain.ErrAliasUpdateFailed) ||
		errors.Is(err, domain.ErrVerificationFailed) ||
		errors.Is(err, domain.ErrServingSyncFailed)
}
