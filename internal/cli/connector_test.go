package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/connectord/internal/core/domain"
	"github.com/custodia-labs/connectord/internal/gateway"
)

func setupTestGateway(t *testing.T) domain.IndexGateway {
	t.Helper()
	gw := gateway.NewMemory()
	SetGatewayForTesting(gw)
	t.Cleanup(func() { SetGatewayForTesting(nil) })
	return gw
}

func execRoot(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		// cobra keeps parsed flag values between Execute calls.
		createServiceType, createIndexName, createIsNative = "", "", true
	})
	return buf, rootCmd.Execute()
}

func TestConnectorCmd_Use(t *testing.T) {
	assert.Equal(t, "connector", connectorCmd.Use)
}

func TestConnectorListCmd_NoConnectors(t *testing.T) {
	setupTestGateway(t)
	buf, err := execRoot(t, "connector", "list")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no connectors found")
}

func TestConnectorListCmd_PrintsEachConnector(t *testing.T) {
	gw := setupTestGateway(t)
	_, err := gw.Index(context.Background(), domain.ConnectorsIndex, domain.RawDoc{
		"service_type": "jira",
		"status":       "connected",
	})
	require.NoError(t, err)

	buf, err := execRoot(t, "connector", "list")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "jira")
	assert.Contains(t, buf.String(), "connected")
}

func TestConnectorShowCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestGateway(t)
	_, err := execRoot(t, "connector", "show")
	assert.Error(t, err)
}

func TestConnectorShowCmd_PrintsDocumentFields(t *testing.T) {
	gw := setupTestGateway(t)
	id, err := gw.Index(context.Background(), domain.ConnectorsIndex, domain.RawDoc{
		"service_type": "filesystem",
		"status":       "connected",
		"is_native":    true,
		"index_name":   "docs",
	})
	require.NoError(t, err)

	buf, err := execRoot(t, "connector", "show", id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "filesystem")
	assert.Contains(t, buf.String(), "docs")
}

func TestConnectorShowCmd_UnknownIDErrors(t *testing.T) {
	setupTestGateway(t)
	_, err := execRoot(t, "connector", "show", "missing")
	assert.Error(t, err)
}

func TestConnectorCreateCmd_RequiresServiceType(t *testing.T) {
	setupTestGateway(t)
	_, err := execRoot(t, "connector", "create", "--index-name", "docs")
	assert.Error(t, err)
}

func TestConnectorCreateCmd_RequiresIndexName(t *testing.T) {
	setupTestGateway(t)
	_, err := execRoot(t, "connector", "create", "--service-type", "jira")
	assert.Error(t, err)
}

func TestConnectorCreateCmd_CreatesDocument(t *testing.T) {
	gw := setupTestGateway(t)
	buf, err := execRoot(t, "connector", "create", "--service-type", "jira", "--index-name", "docs")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "created connector")

	count, err := gw.Count(context.Background(), domain.ConnectorsIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
