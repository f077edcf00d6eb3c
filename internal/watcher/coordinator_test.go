package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mutex sync.Mutex
	paths []string
}

func (c *collector) Process(path string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.paths = append(c.paths, path)
}

func (c *collector) seen(path string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return slices.Contains(c.paths, path)
}

func testLogger() log.LoggerService {
	return log.NewWriterLogger("test", config.LogServerConfig{Level: "DEBUG"}, io.Discard)
}

func testOptions() Options {
	return Options{
		PollInterval: 20 * time.Millisecond,
		ScanInterval: 50 * time.Millisecond,
		JoinTimeout:  time.Second,
	}
}

func registryWatching(t *testing.T, target string, dirs ...string) *group.Registry {
	t.Helper()

	r, err := rule.NewExtensionRule("txt")
	require.NoError(t, err)

	g := group.New(dirs, target)
	g.AddRule(r)

	registry := group.NewRegistry()
	require.NoError(t, registry.Add(g))
	return registry
}

func TestStartWithoutDirectoriesFails(t *testing.T) {
	root := t.TempDir()
	registry := registryWatching(t, filepath.Join(root, "out"), filepath.Join(root, "missing"))
	recorder := event.NewRecorder()

	c := NewCoordinator(afero.NewOsFs(), registry, &collector{}, recorder, testLogger(), testOptions())

	err := c.Start(context.Background())
	require.ErrorIs(t, err, ErrNoWatchDirectories)
	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, 1, recorder.Count(event.WatchSkipped))
}

func TestStartSkipsMissingDirectories(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	missing := filepath.Join(root, "missing")
	require.NoError(t, os.MkdirAll(in, 0o755))

	registry := registryWatching(t, filepath.Join(root, "out"), in, missing)
	recorder := event.NewRecorder()

	c := NewCoordinator(afero.NewOsFs(), registry, &collector{}, recorder, testLogger(), testOptions())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.Equal(t, Running, c.State())
	assert.Equal(t, []string{in}, c.Directories())

	skipped := recorder.Kind(event.WatchSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, missing, skipped[0].Path)
}

func TestStartTwiceFails(t *testing.T) {
	in := t.TempDir()
	registry := registryWatching(t, filepath.Join(in, "out"), in)

	c := NewCoordinator(afero.NewOsFs(), registry, &collector{}, nil, testLogger(), testOptions())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)
}

func TestScanPicksUpExistingFiles(t *testing.T) {
	in := t.TempDir()
	existing := filepath.Join(in, "existing.txt")
	require.NoError(t, os.WriteFile(existing, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "download.part"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "nested"), 0o755))

	opts := testOptions()
	opts.Ignore = config.DefaultIgnorePatterns()

	handler := &collector{}
	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(in, "out"), in), handler, nil, testLogger(), opts)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	require.Eventually(t, func() bool {
		return handler.seen(existing)
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, handler.seen(filepath.Join(in, "download.part")))
	assert.False(t, handler.seen(filepath.Join(in, "nested")))
}

func TestScanForwardsEveryFileWithoutIgnorePatterns(t *testing.T) {
	in := t.TempDir()
	scratch := filepath.Join(in, "scratch.tmp")
	partial := filepath.Join(in, "movie.part")
	require.NoError(t, os.WriteFile(scratch, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(partial, []byte("x"), 0o644))

	opts := testOptions()
	opts.Ignore = []string{}

	handler := &collector{}
	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(in, "out"), in), handler, nil, testLogger(), opts)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	require.Eventually(t, func() bool {
		return handler.seen(scratch) && handler.seen(partial)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchForwardsNewFiles(t *testing.T) {
	in := t.TempDir()

	opts := testOptions()
	opts.ScanInterval = time.Hour

	handler := &collector{}
	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(in, "out"), in), handler, nil, testLogger(), opts)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	created := filepath.Join(in, "created.txt")
	require.NoError(t, os.WriteFile(created, []byte("hello"), 0o644))

	require.Eventually(t, func() bool {
		return handler.seen(created)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPendingDirectoryIsRegisteredOnceCreated(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	later := filepath.Join(root, "later")
	require.NoError(t, os.MkdirAll(in, 0o755))

	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(root, "out"), in, later), &collector{}, nil, testLogger(), testOptions())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	require.NoError(t, os.MkdirAll(later, 0o755))

	require.Eventually(t, func() bool {
		return slices.Contains(c.Directories(), later)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefreshFollowsRegistry(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))

	registry := registryWatching(t, filepath.Join(root, "out"), a)
	c := NewCoordinator(afero.NewOsFs(), registry, &collector{}, nil, testLogger(), testOptions())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	r, err := rule.NewExtensionRule("md")
	require.NoError(t, err)
	g := group.New([]string{b}, filepath.Join(root, "notes"))
	g.AddRule(r)

	registry.Clear()
	require.NoError(t, registry.Add(g))
	c.Refresh()

	assert.Equal(t, []string{b}, c.Directories())
}

func TestStopReturnsToStopped(t *testing.T) {
	in := t.TempDir()

	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(in, "out"), in), &collector{}, nil, testLogger(), testOptions())
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Stop())
	assert.Equal(t, Stopped, c.State())
	assert.Empty(t, c.Directories())

	// Stopping twice is harmless and the coordinator can be restarted
	require.NoError(t, c.Stop())
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop())
}

func TestStopTimesOutOnBlockedHandler(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "slow.txt"), []byte("x"), 0o644))

	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	entered := make(chan struct{}, 1)
	handler := handlerFunc(func(string) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})

	opts := testOptions()
	opts.JoinTimeout = 50 * time.Millisecond

	c := NewCoordinator(afero.NewOsFs(), registryWatching(t, filepath.Join(in, "out"), in), handler, nil, testLogger(), opts)
	require.NoError(t, c.Start(context.Background()))

	<-entered
	assert.ErrorIs(t, c.Stop(), ErrStopTimeout)

	// The old loops are still alive, a restart must wait for them
	assert.Equal(t, Stopping, c.State())
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	unblock()
	require.Eventually(t, func() bool {
		return c.State() == Stopped
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop())
}

type handlerFunc func(path string)

func (f handlerFunc) Process(path string) {
	f(path)
}
