package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/mwantia/fabric/pkg/container"
	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/internal/groupstore"
	"github.com/mwantia/gosort/internal/processor"
	"github.com/mwantia/gosort/internal/watcher"
	"github.com/mwantia/gosort/pkg/db/store"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
)

var ErrAlreadyRunning = errors.New("another agent holds the lock")

type GoSortAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg  *config.BaseServerConfig
	sc   *container.ServiceContainer
	log  log.LoggerService
	lock *flock.Flock

	sink        event.Sink
	history     store.MetadataStore
	groups      *groupstore.Store
	registry    *group.Registry
	processor   *processor.Processor
	coordinator *watcher.Coordinator
}

func NewAgent(cfg *config.BaseServerConfig) *GoSortAgent {
	return &GoSortAgent{
		cfg:  cfg,
		sc:   container.NewServiceContainer(),
		log:  log.NewLoggerService("gosort", cfg.Log),
		lock: flock.New(cfg.Lock.Path),
	}
}

// Serve runs the agent until the context is cancelled or the process
// receives an interrupt. SIGHUP reloads the group document.
func (gsa *GoSortAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	locked, err := gsa.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock '%s': %w", gsa.cfg.Lock.Path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, gsa.cfg.Lock.Path)
	}
	defer func() {
		if err := gsa.lock.Unlock(); err != nil {
			gsa.log.Warn("Failed to release lock: %v", err)
		}
	}()

	gsa.mutex.Lock()

	if err := gsa.setupServices(ctx); err != nil {
		gsa.mutex.Unlock()
		gsa.closeHistory()
		return err
	}

	if err := gsa.coordinator.Start(ctx); err != nil {
		gsa.mutex.Unlock()
		gsa.closeHistory()
		return fmt.Errorf("failed to start watching: %w", err)
	}

	gsa.mutex.Unlock()
	gsa.log.Info("Agent started with %d groups", gsa.registry.Len())

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	gsa.wait.Add(1)
	go func() {
		defer gsa.wait.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-reload:
				if err := gsa.Reload(); err != nil {
					gsa.log.Error("Failed to reload groups: %v", err)
				}
			}
		}
	}()

	<-ctx.Done()
	gsa.log.Info("Shutting down agent...")

	return gsa.shutdown()
}

func (gsa *GoSortAgent) shutdown() error {
	if err := gsa.coordinator.Stop(); err != nil {
		if !errors.Is(err, watcher.ErrStopTimeout) {
			return err
		}
		gsa.log.Warn("Watch loops did not stop within %s", gsa.cfg.Watch.JoinTimeout)
	}

	timeout := config.ParseDuration(gsa.cfg.ShutdownTimeout, 60*time.Second)

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := gsa.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	gsa.wait.Wait()
	gsa.closeHistory()
	return nil
}

func (gsa *GoSortAgent) closeHistory() {
	if gsa.history == nil {
		return
	}
	if err := gsa.history.Close(); err != nil {
		gsa.log.Warn("Failed to close history store: %v", err)
	}
}
