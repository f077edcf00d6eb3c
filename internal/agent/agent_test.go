package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/internal/groupstore"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.BaseServerConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetServerDefault()
	cfg.Log.Level = "ERROR"
	cfg.Groups.Path = filepath.Join(dir, "groups.json")
	cfg.Lock.Path = filepath.Join(dir, "gosort.lock")
	cfg.Metadata.Type = "none"
	return &cfg
}

func saveGroups(t *testing.T, path string, groups ...*group.Group) {
	t.Helper()
	require.NoError(t, groupstore.New(afero.NewOsFs(), path, nil).Save(groups))
}

func extensionGroup(t *testing.T, watch, target string, exts ...string) *group.Group {
	t.Helper()

	r, err := rule.NewExtensionRule(exts...)
	require.NoError(t, err)

	g := group.New([]string{watch}, target)
	g.AddRule(r)
	return g
}

func TestServeRefusesSecondInstance(t *testing.T) {
	cfg := testConfig(t)

	held := flock.New(cfg.Lock.Path)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	err = NewAgent(cfg).Serve(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestReloadReplacesGroups(t *testing.T) {
	cfg := testConfig(t)
	watch := t.TempDir()

	saveGroups(t, cfg.Groups.Path, extensionGroup(t, watch, "/out/images", "png"))

	a := NewAgent(cfg)
	require.NoError(t, a.setupServices(context.Background()))
	assert.Equal(t, 1, a.registry.Len())

	saveGroups(t, cfg.Groups.Path,
		extensionGroup(t, watch, "/out/images", "png"),
		extensionGroup(t, watch, "/out/docs", "pdf"),
		// Same rules and watch directory as the first group, different target
		extensionGroup(t, watch, "/out/elsewhere", "png"),
	)

	require.NoError(t, a.Reload())
	assert.Equal(t, 2, a.registry.Len())
}

func TestReloadKeepsGroupsOnMalformedDocument(t *testing.T) {
	cfg := testConfig(t)
	watch := t.TempDir()

	saveGroups(t, cfg.Groups.Path, extensionGroup(t, watch, "/out/images", "png"))

	a := NewAgent(cfg)
	require.NoError(t, a.setupServices(context.Background()))

	require.NoError(t, afero.WriteFile(afero.NewOsFs(), cfg.Groups.Path, []byte("not json"), 0o644))

	err := a.Reload()
	require.ErrorIs(t, err, groupstore.ErrMalformedDocument)
	assert.Equal(t, 1, a.registry.Len())
}

func TestWatchOptions(t *testing.T) {
	opts := WatchOptions(config.WatchServerConfig{
		PollInterval: "2s",
		ScanInterval: "invalid",
		Debounce:     "300ms",
		WatchDelete:  true,
	})

	assert.Equal(t, 2*time.Second, opts.PollInterval)
	assert.Equal(t, 5*time.Second, opts.ScanInterval)
	assert.Equal(t, time.Second, opts.JoinTimeout)
	assert.Equal(t, 300*time.Millisecond, opts.Debounce)
	assert.True(t, opts.WatchDelete)
	assert.Empty(t, opts.Ignore)

	opts = WatchOptions(config.GetServerDefault().Watch)
	assert.Equal(t, config.DefaultIgnorePatterns(), opts.Ignore)
}
