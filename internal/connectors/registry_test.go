package connectors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/core/ports/driven"
)

func TestNewRegistry_RegistersShippedAdapters(t *testing.T) {
	r := NewRegistry()
	assert.ElementsMatch(t, []string{"jira", "filesystem"}, r.SupportedTypes())
}

func TestRegistry_DefaultConfiguration_Filesystem(t *testing.T) {
	r := NewRegistry()
	defaults, ok := r.DefaultConfiguration("filesystem")
	require.True(t, ok)
	assert.Contains(t, defaults, "root_path")
}

func TestRegistry_DefaultConfiguration_UnknownType(t *testing.T) {
	r := NewRegistry()
	_, ok := r.DefaultConfiguration("does-not-exist")
	assert.False(t, ok)
}

func TestRegistry_Build_UnknownTypeReturnsNotSupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Build(context.Background(), "does-not-exist", nil)
	assert.ErrorIs(t, err, domain.ErrServiceTypeNotSupported)
}

func TestRegistry_Build_Filesystem(t *testing.T) {
	r := NewRegistry()
	adapter, err := r.Build(context.Background(), "filesystem", map[string]any{"root_path": "/tmp"})
	require.NoError(t, err)
	require.NotNil(t, adapter)
	assert.NoError(t, adapter.Close())
}

func TestRegistry_Register_OverwritesExisting(t *testing.T) {
	r := NewRegistry()
	sentinel := errors.New("overwritten adapter")
	r.Register("filesystem", func(ctx context.Context, config map[string]any) (driven.SourceAdapter, error) {
		return nil, sentinel
	})

	_, err := r.Build(context.Background(), "filesystem", nil)
	assert.ErrorIs(t, err, sentinel)
}
