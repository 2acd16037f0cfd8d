package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

func TestMemory_IndexAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Index(ctx, domain.ConnectorsIndex, domain.RawDoc{"service_type": "jira"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Get(ctx, domain.ConnectorsIndex, id)
	require.NoError(t, err)
	assert.Equal(t, "jira", doc["service_type"])
}

func TestMemory_Get_NotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), domain.ConnectorsIndex, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_Update_StructuralMerge(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Index(ctx, domain.ConnectorsIndex, domain.RawDoc{
		"status":        "created",
		"configuration": domain.RawDoc{"host_url": domain.RawDoc{"value": "a"}},
	})
	require.NoError(t, err)

	err = m.Update(ctx, domain.ConnectorsIndex, id, domain.RawDoc{
		"status":        "configured",
		"configuration": domain.RawDoc{"api_token": domain.RawDoc{"value": "b"}},
	}, domain.RetryOnConflict)
	require.NoError(t, err)

	doc, err := m.Get(ctx, domain.ConnectorsIndex, id)
	require.NoError(t, err)
	assert.Equal(t, "configured", doc["status"])

	cfg, ok := doc["configuration"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, cfg, "host_url")
	assert.Contains(t, cfg, "api_token")
}

func TestMemory_Update_NotFound(t *testing.T) {
	m := NewMemory()
	err := m.Update(context.Background(), domain.ConnectorsIndex, "missing", domain.RawDoc{}, domain.RetryOnConflict)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_Query_PredicateAndSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id1, _ := m.Index(ctx, domain.ConnectorsIndex, domain.RawDoc{"is_native": true})
	_, _ = m.Index(ctx, domain.ConnectorsIndex, domain.RawDoc{"is_native": false})

	stream, err := m.Query(ctx, domain.ConnectorsIndex, domain.QueryFilter{
		Predicate: func(_ string, doc domain.RawDoc) bool {
			v, _ := doc["is_native"].(bool)
			return v
		},
	})
	require.NoError(t, err)
	defer stream.Close()

	var ids []string
	for stream.Next(ctx) {
		id, _ := stream.Doc()
		ids = append(ids, id)
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []string{id1}, ids)
}

func TestMemory_DeleteByQuery(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, _ = m.Index(ctx, domain.SyncJobsIndex, domain.RawDoc{"connector_id": "orphan"})
	_, _ = m.Index(ctx, domain.SyncJobsIndex, domain.RawDoc{"connector_id": "alive"})

	n, err := m.DeleteByQuery(ctx, domain.SyncJobsIndex, domain.QueryFilter{
		Predicate: func(_ string, doc domain.RawDoc) bool {
			return doc["connector_id"] == "orphan"
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := m.Count(ctx, domain.SyncJobsIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemory_Get_ReturnsCopyNotAlias(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, _ := m.Index(ctx, domain.ConnectorsIndex, domain.RawDoc{"status": "created"})

	doc, _ := m.Get(ctx, domain.ConnectorsIndex, id)
	doc["status"] = "mutated"

	fresh, _ := m.Get(ctx, domain.ConnectorsIndex, id)
	assert.Equal(t, "created", fresh["status"])
}
