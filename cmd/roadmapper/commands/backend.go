package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dyluth/roadmapper/internal/apiclient"
	"github.com/dyluth/roadmapper/internal/config"
	"github.com/dyluth/roadmapper/internal/localstore"
	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/reconcile"
	"github.com/dyluth/roadmapper/internal/session"
	"github.com/dyluth/roadmapper/internal/state"
	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// loadConfig reads roadmapper.yml (or the defaults) and applies --backend.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Error: %v", err),
			[]string{fmt.Sprintf("Check %s", path)},
		)
	}

	if backendFlag != "" {
		cfg.Backend = backendFlag
		if err := cfg.Validate(); err != nil {
			return nil, printer.Error(
				"invalid backend",
				fmt.Sprintf("Error: %v", err),
				[]string{"Valid backends: api, redis, sqlite"},
			)
		}
	}
	return cfg, nil
}

// syncLogger returns the logger handed to the reconciler. Sync activity is
// only shown with --verbose.
func syncLogger() *log.Logger {
	if verboseOutput {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// backend is an open connection to the configured store. Exactly one of
// api, redis and local is set.
type backend struct {
	kind  string
	api   *apiclient.Client
	redis *roadmap.Client
	local *localstore.Store
}

func openBackend(cfg *config.Config) (*backend, error) {
	b := &backend{kind: cfg.Backend}

	switch cfg.Backend {
	case config.BackendAPI:
		b.api = apiclient.New(cfg.API.URL, cfg.API.Timeout)

	case config.BackendRedis:
		client, err := roadmap.NewClientFromURL(cfg.Redis.URL)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"Redis connection failed",
				fmt.Sprintf("Error: %v", err),
				map[string]string{"URL": cfg.Redis.URL},
				[]string{"Check redis.url in roadmapper.yml or REDIS_URL"},
			)
		}
		b.redis = client

	case config.BackendSQLite:
		store, err := localstore.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, printer.ErrorWithContext(
				"failed to open local store",
				fmt.Sprintf("Error: %v", err),
				map[string]string{"Path": cfg.SQLite.Path},
				nil,
			)
		}
		b.local = store

	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}

	return b, nil
}

// remote returns the roadmap store the reconciler syncs with.
func (b *backend) remote() reconcile.Remote {
	switch {
	case b.api != nil:
		return b.api
	case b.redis != nil:
		return b.redis
	default:
		return b.local
	}
}

func (b *backend) Close() error {
	switch {
	case b.redis != nil:
		return b.redis.Close()
	case b.local != nil:
		return b.local.Close()
	}
	return nil
}

// currentProject returns --project, else the logged-in session's project.
func currentProject() (string, error) {
	if projectFlag != "" {
		return projectFlag, nil
	}

	s, err := session.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if id := s.ProjectID(); id != "" {
		return id, nil
	}

	return "", printer.Error(
		"no project selected",
		"Not logged in and no --project given.",
		[]string{
			"Log in:\n  roadmapper login --username <name> --project <id>",
			"Or pass the project explicitly:\n  roadmapper --project <id> board",
		},
	)
}

// roadmapSession is a loaded roadmap plus the reconciler syncing it.
type roadmapSession struct {
	cfg       *config.Config
	backend   *backend
	projectID string
	store     *state.Store
	rec       *reconcile.Reconciler
}

// openRoadmap loads the current project's roadmap into a fresh store. A
// project with no stored roadmap starts from the default one.
func openRoadmap(ctx context.Context) (*roadmapSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	projectID, err := currentProject()
	if err != nil {
		return nil, err
	}

	b, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	store := state.New(nil)
	rec := reconcile.New(store, b.remote(), reconcile.StaticProject(projectID), reconcile.Options{
		Debounce:     cfg.Sync.Debounce,
		PollInterval: cfg.Sync.PollInterval,
		Logger:       syncLogger(),
	})

	if err := rec.Load(ctx); err != nil {
		rec.Close()
		b.Close()
		return nil, printer.ErrorWithContext(
			"failed to load roadmap",
			fmt.Sprintf("Error: %v", err),
			map[string]string{"Project": projectID, "Backend": cfg.Backend},
			backendSuggestions(cfg),
		)
	}

	return &roadmapSession{
		cfg:       cfg,
		backend:   b,
		projectID: projectID,
		store:     store,
		rec:       rec,
	}, nil
}

// save pushes any pending change.
func (s *roadmapSession) save(ctx context.Context) error {
	if err := s.rec.Flush(ctx); err != nil {
		return printer.ErrorWithContext(
			"failed to save roadmap",
			fmt.Sprintf("Error: %v", err),
			map[string]string{"Project": s.projectID, "Backend": s.cfg.Backend},
			backendSuggestions(s.cfg),
		)
	}
	return nil
}

func (s *roadmapSession) Close() error {
	s.rec.Close()
	return s.backend.Close()
}

// withRoadmap loads the roadmap, runs fn and saves whatever fn changed.
func withRoadmap(fn func(s *roadmapSession) error) error {
	ctx := context.Background()

	s, err := openRoadmap(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	return s.save(ctx)
}

func backendSuggestions(cfg *config.Config) []string {
	switch cfg.Backend {
	case config.BackendAPI:
		return []string{
			fmt.Sprintf("Check the server is running:\n  roadmapper serve   (API at %s)", cfg.API.URL),
			"Or work offline:\n  roadmapper --backend sqlite ...",
		}
	case config.BackendRedis:
		return []string{fmt.Sprintf("Check Redis is reachable at %s", cfg.Redis.URL)}
	}
	return nil
}
