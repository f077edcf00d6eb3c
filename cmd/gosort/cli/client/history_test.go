package client

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryMigrateAndRollback(t *testing.T) {
	setupGroups(t)
	viper.Set("metadata.type", "sqlite")
	viper.Set("metadata.sqlite.path", filepath.Join(t.TempDir(), "history.db"))

	result, err := runHistory(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, result, "Index moves by target directory")
	assert.NotContains(t, result, "pending")

	result, err = runHistory(t, "migrate", "--rollback")
	require.NoError(t, err)
	assert.Contains(t, result, "Rolled back")
	assert.Contains(t, result, "pending")

	result, err = runHistory(t, "migrate")
	require.NoError(t, err)
	assert.NotContains(t, result, "pending")
}

func TestHistoryRequiresMetadata(t *testing.T) {
	setupGroups(t)

	_, err := runHistory(t, "migrate")
	assert.ErrorContains(t, err, "history is disabled")
}
