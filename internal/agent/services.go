package agent

import (
	"context"
	"fmt"

	"github.com/mwantia/fabric/pkg/container"
	config "github.com/mwantia/gosort/internal/config/server"
	"github.com/mwantia/gosort/internal/groupstore"
	"github.com/mwantia/gosort/internal/processor"
	"github.com/mwantia/gosort/internal/watcher"
	"github.com/mwantia/gosort/pkg/db/store"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/extract"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/mwantia/gosort/pkg/rule"
	"github.com/spf13/afero"
)

func (gsa *GoSortAgent) setupServices(ctx context.Context) error {
	fs := afero.NewOsFs()

	sinks := []event.Sink{event.NewLogSink(gsa.log.Named("events"))}
	if gsa.cfg.Metadata.Enabled() {
		history, err := OpenHistory(ctx, gsa.cfg.Metadata)
		if err != nil {
			return err
		}
		gsa.history = history
		sinks = append(sinks, store.NewHistorySink(history, gsa.log.Named("history")))
	}
	gsa.sink = event.Multi(sinks...)

	gsa.groups = groupstore.New(fs, gsa.cfg.Groups.Path, gsa.sink)
	gsa.registry = group.NewRegistry()

	groups, err := gsa.groups.Load()
	if err != nil {
		gsa.log.Error("Failed to load groups, starting without any: %v", err)
	}
	gsa.apply(groups)

	env := rule.NewEnv(extract.NewDefault(fs))
	env.MaxContentSize = gsa.cfg.Content.MaxFileSize

	gsa.processor = processor.NewProcessor(fs, gsa.registry, env, gsa.sink, gsa.log.Named("processor"))
	gsa.coordinator = watcher.NewCoordinator(fs, gsa.registry, gsa.processor, gsa.sink, gsa.log.Named("watcher"), WatchOptions(gsa.cfg.Watch))

	errs := container.Errors{}

	gsa.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](gsa.sc,
		container.With[log.LoggerService](),
		container.WithInstance(gsa.log)))

	gsa.log.Debug("Registering 'Registry'...")
	errs.Add(container.Register[group.Registry](gsa.sc,
		container.WithInstance(gsa.registry)))

	gsa.log.Debug("Registering 'Processor'...")
	errs.Add(container.Register[processor.Processor](gsa.sc,
		container.With[watcher.Handler](),
		container.WithInstance(gsa.processor)))

	gsa.log.Debug("Registering 'Coordinator'...")
	errs.Add(container.Register[watcher.Coordinator](gsa.sc,
		container.WithInstance(gsa.coordinator)))

	if gsa.history != nil {
		gsa.log.Debug("Registering 'MetadataStore'...")
		errs.Add(container.Register[store.SQLiteStore](gsa.sc,
			container.With[store.MetadataStore](),
			container.WithInstance(gsa.history)))
	}

	return errs.Errors()
}

// OpenHistory connects to and migrates the configured history store.
func OpenHistory(ctx context.Context, cfg config.MetadataServerConfig) (*store.SQLiteStore, error) {
	history, err := ConnectHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := history.Migrate(ctx); err != nil {
		history.Close()
		return nil, fmt.Errorf("failed to migrate history store: %w", err)
	}

	return history, nil
}

// ConnectHistory connects to the configured history store without touching
// its schema.
func ConnectHistory(ctx context.Context, cfg config.MetadataServerConfig) (*store.SQLiteStore, error) {
	if cfg.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported metadata type '%s'", cfg.Type)
	}

	history, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: cfg.SQLite.Path,
	})
	if err != nil {
		return nil, err
	}

	if err := history.Connect(ctx); err != nil {
		history.Close()
		return nil, fmt.Errorf("failed to connect history store: %w", err)
	}

	return history, nil
}

// WatchOptions converts the watch configuration into coordinator options.
func WatchOptions(cfg config.WatchServerConfig) watcher.Options {
	defaults := watcher.DefaultOptions()

	return watcher.Options{
		PollInterval: config.ParseDuration(cfg.PollInterval, defaults.PollInterval),
		ScanInterval: config.ParseDuration(cfg.ScanInterval, defaults.ScanInterval),
		JoinTimeout:  config.ParseDuration(cfg.JoinTimeout, defaults.JoinTimeout),
		Debounce:     config.ParseDuration(cfg.Debounce, 0),
		WatchDelete:  cfg.WatchDelete,
		Ignore:       cfg.Ignore,
	}
}
