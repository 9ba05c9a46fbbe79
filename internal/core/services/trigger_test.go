package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-promotion-service/internal/core/domain"
	"model-promotion-service/internal/testutil"
)

func namedRecord(model, version, source string) *domain.EnvironmentConfig {
	return &domain.EnvironmentConfig{
		Environment: domain.EnvironmentDev,
		ModelName:   model,
		Version:     version,
		Source:      source,
	}
}

func expectPromotion(registry *testutil.MockRegistryClient, model, from, to string) {
	registry.On("GetModelVersionByAlias", mock.Anything, model, "baseline").
		Return(&domain.RegistryModelVersion{Name: model, Version: from, Aliases: []string{"baseline"}}, nil).Once()
	registry.On("GetModelVersion", mock.Anything, model, to).Return(&domain.RegistryModelVersion{Name: model, Version: to}, nil)
	registry.On("SetAlias", mock.Anything, model, "baseline", to).Return(nil)
	registry.On("GetModelVersionByAlias", mock.Anything, model, "baseline").
		Return(&domain.RegistryModelVersion{Name: model, Version: to, Aliases: []string{"baseline"}}, nil)
}

func TestTriggerService_Run(t *testing.T) {
	source := new(testutil.MockRecordSource)
	registry := new(testutil.MockRegistryClient)
	validator := NewValidationService(nil)
	svc := NewTriggerService(source, nil, validator, newTestPromotionService(registry))

	source.On("LoadEnvironment", mock.Anything, domain.EnvironmentDev).Return([]*domain.EnvironmentConfig{
		namedRecord("ad_enrichment", "2", "dev/ad_enrichment.json"),
		namedRecord("buyers_embeddings", "5", "dev/buyers_embeddings.json"),
	}, nil)
	expectPromotion(registry, "ad_enrichment", "1", "2")
	expectPromotion(registry, "buyers_embeddings", "4", "5")

	report, err := svc.Run(context.Background(), TriggerRequest{Environment: domain.EnvironmentDev, CommitSHA: "abc"})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "ad_enrichment", report.Results[0].ModelName)
	assert.Equal(t, domain.PromotionPromoted, report.Results[1].Status)
}

func TestTriggerService_Run_RejectsBeforePromoting(t *testing.T) {
	source := new(testutil.MockRecordSource)
	registry := new(testutil.MockRegistryClient)
	svc := NewTriggerService(source, nil, NewValidationService(nil), newTestPromotionService(registry))

	source.On("LoadEnvironment", mock.Anything, domain.EnvironmentDev).Return([]*domain.EnvironmentConfig{
		namedRecord("ad_enrichment", "2", "dev/ad_enrichment.json"),
		namedRecord("", "5", "dev/broken.json"),
	}, nil)

	report, err := svc.Run(context.Background(), TriggerRequest{Environment: domain.EnvironmentDev})
	assert.ErrorIs(t, err, domain.ErrMissingModelReference)
	assert.Contains(t, err.Error(), "dev/broken.json")
	assert.Len(t, report.Decisions, 2)
	assert.Empty(t, report.Results)
	registry.AssertNotCalled(t, "SetAlias", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerService_Run_ComparesWithCurrentRevision(t *testing.T) {
	source := new(testutil.MockRecordSource)
	revisions := new(testutil.MockRevisionRepo)
	registry := new(testutil.MockRegistryClient)
	svc := NewTriggerService(source, revisions, NewValidationService(nil), newTestPromotionService(registry))

	moved := namedRecord("ad_enrichment", "2", "dev/ad_enrichment.json")
	source.On("LoadEnvironment", mock.Anything, domain.EnvironmentDev).Return([]*domain.EnvironmentConfig{moved}, nil)

	committed := domain.NewConfigRevision(namedRecord("ad_enrichment", "1", ""), "", "")
	committed.Config.Environment = domain.EnvironmentProduction
	revisions.On("Current", mock.Anything, domain.EnvironmentDev, "ad_enrichment").Return(committed, nil)

	_, err := svc.Run(context.Background(), TriggerRequest{Environment: domain.EnvironmentDev})
	assert.ErrorIs(t, err, domain.ErrEnvironmentMismatch)
}

func TestTriggerService_Run_ContinuesAfterFailure(t *testing.T) {
	source := new(testutil.MockRecordSource)
	registry := new(testutil.MockRegistryClient)
	svc := NewTriggerService(source, nil, NewValidationService(nil), newTestPromotionService(registry))

	source.On("LoadEnvironment", mock.Anything, domain.EnvironmentDev).Return([]*domain.EnvironmentConfig{
		namedRecord("ad_enrichment", "9", "dev/ad_enrichment.json"),
		namedRecord("buyers_embeddings", "5", "dev/buyers_embeddings.json"),
	}, nil)
	registry.On("GetModelVersionByAlias", mock.Anything, "ad_enrichment", "baseline").
		Return(&domain.RegistryModelVersion{Name: "ad_enrichment", Version: "1"}, nil)
	registry.On("GetModelVersion", mock.Anything, "ad_enrichment", "9").Return(nil, domain.ErrVersionNotFound)
	expectPromotion(registry, "buyers_embeddings", "4", "5")

	report, err := svc.Run(context.Background(), TriggerRequest{Environment: domain.EnvironmentDev})
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.PromotionFailed, report.Results[0].Status)
	assert.Equal(t, domain.PromotionPromoted, report.Results[1].Status)
}

func TestTriggerService_Run_LoadError(t *testing.T) {
	source := new(testutil.MockRecordSource)
	svc := NewTriggerService(source, nil, NewValidationService(nil), newTestPromotionService(new(testutil.MockRegistryClient)))

	loadErr := errors.New("disk gone")
	source.On("LoadEnvironment", mock.Anything, domain.EnvironmentDev).Return(nil, loadErr)

	_, err := svc.Run(context.Background(), TriggerRequest{Environment: domain.EnvironmentDev})
	assert.ErrorIs(t, err, loadErr)
}

func TestTriggerService_Run_InvalidEnvironment(t *testing.T) {
	svc := NewTriggerService(nil, nil, NewValidationService(nil), nil)

	_, err := svc.Run(context.Background(), TriggerRequest{Environment: "staging"})
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)
}
