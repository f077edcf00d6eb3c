package client

import (
	"fmt"
	"io"

	"github.com/mwantia/gosort/internal/groupstore"
	"github.com/mwantia/gosort/pkg/event"
	"github.com/mwantia/gosort/pkg/group"
	"github.com/mwantia/gosort/pkg/log"
	"github.com/spf13/afero"

	config "github.com/mwantia/gosort/internal/config/server"
)

type session struct {
	cfg   *config.BaseServerConfig
	log   log.LoggerService
	store *groupstore.Store
}

// newSession loads the configuration and opens the group document. Events
// raised while loading are logged to w.
func newSession(w io.Writer) (*session, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := log.NewWriterLogger("gosort", cfg.Log, w)

	return &session{
		cfg:   cfg,
		log:   logger,
		store: groupstore.New(afero.NewOsFs(), cfg.Groups.Path, event.NewLogSink(logger)),
	}, nil
}

// activate adds groups to a fresh registry in document order and returns
// the registry together with the error for every refused group.
func activate(groups []*group.Group) (*group.Registry, map[int]error) {
	registry := group.NewRegistry()
	rejected := make(map[int]error)

	for i, g := range groups {
		if err := registry.Add(g); err != nil {
			rejected[i] = err
		}
	}
	return registry, rejected
}
