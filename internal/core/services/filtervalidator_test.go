package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

func TestBasicRuleValidator_ValidRules(t *testing.T) {
	v := BasicRuleValidator{}
	result, err := v.ValidateFiltering(context.Background(), domain.Filter{
		Rules: []map[string]any{
			{"field": "project", "rule": "equals", "value": "ENG", "policy": "include"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationStateValid, result.State)
	assert.Empty(t, result.Errors)
}

func TestBasicRuleValidator_MissingFields(t *testing.T) {
	v := BasicRuleValidator{}
	result, err := v.ValidateFiltering(context.Background(), domain.Filter{
		Rules: []map[string]any{
			{"field": "project"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationStateInvalid, result.State)
	assert.Len(t, result.Errors, 3)
}

func TestBasicRuleValidator_NoRulesIsValid(t *testing.T) {
	v := BasicRuleValidator{}
	result, err := v.ValidateFiltering(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, domain.ValidationStateValid, result.State)
}
