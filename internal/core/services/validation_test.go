package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"model-promotion-service/internal/core/domain"
	"model-promotion-service/internal/testutil"
)

func TestValidationService_Validate(t *testing.T) {
	svc := NewValidationService([]string{"ad_enrichment"})

	assert.True(t, svc.Validate(devRecord("1"), nil).Accepted)

	other := devRecord("1")
	other.ModelName = "sellers_embeddings"
	d := svc.Validate(other, nil)
	assert.False(t, d.Accepted)
	assert.ErrorIs(t, d.Err, domain.ErrModelNotAllowed)
	assert.Equal(t, []string{"ad_enrichment"}, svc.Options().AllowedModels)
}

func TestValidationService_ValidateEnvironment(t *testing.T) {
	svc := NewValidationService(nil)
	proposed := new(testutil.MockRecordSource)
	base := new(testutil.MockRecordSource)

	moved := devRecord("3")
	moved.Environment = domain.EnvironmentProduction

	proposed.On("ListEnvironment", mock.Anything, domain.EnvironmentDev).
		Return([]string{"head/dev/a.json", "head/dev/b.json", "head/dev/c.json", "head/dev/d.json"}, nil)
	proposed.On("LoadFile", mock.Anything, "head/dev/a.json").Return(devRecord("2"), nil)
	proposed.On("LoadFile", mock.Anything, "head/dev/b.json").Return(nil, fmt.Errorf("head/dev/b.json: %w", domain.ErrMalformedRecord))
	proposed.On("LoadFile", mock.Anything, "head/dev/c.json").Return(moved, nil)
	proposed.On("LoadFile", mock.Anything, "head/dev/d.json").Return(devRecord("1"), nil)

	renamed := devRecord("1")
	renamed.ModelName = "buyers_embeddings"
	base.On("ListEnvironment", mock.Anything, domain.EnvironmentDev).Return([]string{"base/dev/a.json", "base/dev/d.json"}, nil)
	base.On("LoadFile", mock.Anything, "base/dev/a.json").Return(devRecord("1"), nil)
	base.On("LoadFile", mock.Anything, "base/dev/d.json").Return(renamed, nil)

	report, err := svc.ValidateEnvironment(context.Background(), domain.EnvironmentDev, proposed, base)
	require.NoError(t, err)
	require.Len(t, report.Files, 4)

	assert.Equal(t, "head/dev/a.json", report.Files[0].Path)
	assert.True(t, report.Files[0].Decision.Accepted)
	assert.True(t, report.Files[0].Decision.Changed)

	assert.ErrorIs(t, report.Files[1].Decision.Err, domain.ErrMalformedRecord)
	assert.Nil(t, report.Files[1].Record)
	assert.ErrorIs(t, report.Files[2].Decision.Err, domain.ErrEnvironmentMismatch)
	assert.ErrorIs(t, report.Files[3].Decision.Err, domain.ErrModelMismatch)

	assert.False(t, report.Accepted())
	assert.Len(t, report.Rejected(), 3)
}

func TestValidationService_ValidateEnvironment_WithoutBase(t *testing.T) {
	svc := NewValidationService(nil)
	proposed := new(testutil.MockRecordSource)

	proposed.On("ListEnvironment", mock.Anything, domain.EnvironmentDev).Return([]string{"dev/a.json"}, nil)
	proposed.On("LoadFile", mock.Anything, "dev/a.json").Return(devRecord("2"), nil)

	report, err := svc.ValidateEnvironment(context.Background(), domain.EnvironmentDev, proposed, nil)
	require.NoError(t, err)
	assert.True(t, report.Accepted())
}

func TestValidationService_ValidateEnvironment_Empty(t *testing.T) {
	svc := NewValidationService(nil)
	proposed := new(testutil.MockRecordSource)
	proposed.On("ListEnvironment", mock.Anything, domain.EnvironmentPreProd).Return([]string{}, nil)

	report, err := svc.ValidateEnvironment(context.Background(), domain.EnvironmentPreProd, proposed, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.True(t, report.Accepted())
}

func TestValidationService_ValidateEnvironment_InvalidEnvironment(t *testing.T) {
	svc := NewValidationService(nil)

	_, err := svc.ValidateEnvironment(context.Background(), "staging", new(testutil.MockRecordSource), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidEnvironment)
}

func TestValidationService_ValidateEnvironment_ReadError(t *testing.T) {
	svc := NewValidationService(nil)
	proposed := new(testutil.MockRecordSource)
	readErr := errors.New("permission denied")

	proposed.On("ListEnvironment", mock.Anything, domain.EnvironmentDev).Return([]string{"dev/a.json"}, nil)
	proposed.On("LoadFile", mock.Anything, "dev/a.json").Return(nil, readErr)

	_, err := svc.ValidateEnvironment(context.Background(), domain.EnvironmentDev, proposed, nil)
	assert.ErrorIs(t, err, readErr)
}
