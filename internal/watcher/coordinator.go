package watcher

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/spf13/afero"
)

var (
	ErrNoWatchDirectories = errors.New("no watch directory could be registered")
	ErrStopTimeout        = errors.New("watch loops did not stop in time")
	ErrAlreadyRunning     = errors.New("coordinator is already running")
)

type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// Handler receives every regular file discovered in a watched directory.
type Handler interface {
	Process(path string)
}

type Options struct {
	// PollInterval bounds how long the watch loop waits before retrying
	// directories that could not be registered.
	PollInterval time.Duration
	ScanInterval time.Duration
	JoinTimeout  time.Duration
	// Debounce delays forwarding of watch events per path. Zero forwards
	// immediately.
	Debounce    time.Duration
	WatchDelete bool
	// Ignore lists glob patterns of files never forwarded. Empty forwards
	// every regular file.
	Ignore []string
}

func DefaultOptions() Options {
	return Options{
		PollInterval: time.Second,
		ScanInterval: 5 * time.Second,
		JoinTimeout:  time.Second,
		Ignore:       config.DefaultIgnorePatterns(),
	}
}

// Coordinator runs the event-driven watch loop and the periodic fallback
// scan over the union of all watch directories of a registry.
type Coordinator struct {
	mutex sync.Mutex
	state State

	fs       afero.Fs
	registry *group.Registry
	handler  Handler
	sink     event.Sink
	log      log.LoggerService
	opts     Options
	filter   *FileFilter

	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	watched   map[string]struct{}
	pending   map[string]struct{}
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewCoordinator(fs afero.Fs, registry *group.Registry, handler Handler, sink event.Sink, logger log.LoggerService, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = defaults.ScanInterval
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = defaults.JoinTimeout
	}
	if sink == nil {
		sink = event.Discard
	}

	return &Coordinator{
		fs:       fs,
		registry: registry,
		handler:  handler,
		sink:     sink,
		log:      logger,
		opts:     opts,
		filter:   NewFileFilter(opts.Ignore),
		watched:  make(map[string]struct{}),
		pending:  make(map[string]struct{}),
	}
}

func (c *Coordinator) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.state
}

// Directories returns the currently registered watch directories.
func (c *Coordinator) Directories() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return slices.Sorted(maps.Keys(c.watched))
}

// Start registers a watch for every directory of the registry and starts both
// loops. Directories that cannot be watched are skipped and retried on every
// poll interval.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != Stopped {
		return ErrAlreadyRunning
	}
	c.state = Starting

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.state = Stopped
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	c.watcher = watcher
	c.watched = make(map[string]struct{})
	c.pending = make(map[string]struct{})

	for _, dir := range c.registry.WatchDirectories() {
		c.register(dir)
	}

	if len(c.watched) == 0 {
		watcher.Close()
		c.watcher = nil
		c.state = Stopped
		return ErrNoWatchDirectories
	}

	if c.opts.Debounce > 0 {
		c.debouncer = NewDebouncer(c.opts.Debounce, c.handler.Process)
	} else {
		c.debouncer = nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.watchLoop(loopCtx, watcher)
	}()
	go func() {
		defer wg.Done()
		c.scanLoop(loopCtx)
	}()
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(c.done)

	c.state = Running
	c.log.Info("Watching %d directories", len(c.watched))
	return nil
}

// Stop cancels both loops and waits up to the join timeout for them to exit.
// On timeout the coordinator stays in Stopping until the loops return.
func (c *Coordinator) Stop() error {
	c.mutex.Lock()
	if c.state != Running {
		c.mutex.Unlock()
		return nil
	}
	c.state = Stopping

	c.cancel()
	if err := c.watcher.Close(); err != nil {
		c.log.Warn("Failed to close file watcher: %v", err)
	}
	if c.debouncer != nil {
		c.debouncer.CancelAll()
	}
	done := c.done
	c.mutex.Unlock()

	select {
	case <-done:
	case <-time.After(c.opts.JoinTimeout):
		// Start is refused until the loops have exited
		go c.finishStop(done)
		return ErrStopTimeout
	}

	c.finishStop(done)
	return nil
}

func (c *Coordinator) finishStop(done <-chan struct{}) {
	<-done

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.watcher = nil
	c.watched = make(map[string]struct{})
	c.pending = make(map[string]struct{})
	c.state = Stopped
}

// Refresh reconciles the registered watches with the registry. It is a no-op
// unless the coordinator is running.
func (c *Coordinator) Refresh() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != Running {
		return
	}

	desired := make(map[string]struct{})
	for _, dir := range c.registry.WatchDirectories() {
		desired[dir] = struct{}{}
	}

	for dir := range c.watched {
		if _, ok := desired[dir]; !ok {
			if err := c.watcher.Remove(dir); err != nil {
				c.log.Debug("Failed to remove watch for '%s': %v", dir, err)
			}
			delete(c.watched, dir)
		}
	}
	for dir := range c.pending {
		if _, ok := desired[dir]; !ok {
			delete(c.pending, dir)
		}
	}
	for dir := range desired {
		if _, ok := c.watched[dir]; !ok {
			c.register(dir)
		}
	}

	if len(c.watched) == 0 {
		c.log.Warn("No watch directory is currently registered")
	}
}

// register must be called with the mutex held.
func (c *Coordinator) register(dir string) {
	info, err := c.fs.Stat(dir)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("'%s' is not a directory", dir)
	}
	if err == nil {
		err = c.watcher.Add(dir)
	}

	if err != nil {
		if _, retrying := c.pending[dir]; !retrying {
			c.sink.Emit(event.New(event.WatchSkipped, dir, err.Error()))
		}
		c.pending[dir] = struct{}{}
		return
	}

	delete(c.pending, dir)
	c.watched[dir] = struct{}{}
	c.log.Debug("Registered watch for '%s'", dir)
}

func (c *Coordinator) retryPending() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.state != Running {
		return
	}
	for dir := range c.pending {
		c.register(dir)
	}
}

func (c *Coordinator) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.sink.Emit(event.New(event.WatchFailed, "", err.Error()))
		case <-ticker.C:
			c.retryPending()
		}
	}
}

func (c *Coordinator) handleEvent(ev fsnotify.Event) {
	if ev.Has(fsnotify.Remove) && c.opts.WatchDelete {
		c.log.Info("File '%s' was removed", ev.Name)
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if !c.accept(ev.Name) {
		return
	}

	c.mutex.Lock()
	debouncer := c.debouncer
	c.mutex.Unlock()

	if debouncer != nil {
		debouncer.Add(ev.Name)
		return
	}
	c.handler.Process(ev.Name)
}

func (c *Coordinator) scanLoop(ctx context.Context) {
	c.scan(ctx)

	ticker := time.NewTicker(c.opts.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.scan(ctx)
		}
	}
}

// scan forwards every regular file found directly inside a watched directory.
func (c *Coordinator) scan(ctx context.Context) {
	for _, dir := range c.Directories() {
		entries, err := afero.ReadDir(c.fs, dir)
		if err != nil {
			c.log.Warn("Failed to scan '%s': %v", dir, err)
			continue
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			if !entry.Mode().IsRegular() {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if c.filter.ShouldIgnore(path) {
				continue
			}
			c.handler.Process(path)
		}
	}
}

func (c *Coordinator) accept(path string) bool {
	if c.filter.ShouldIgnore(path) {
		return false
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
