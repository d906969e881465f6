package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pders01/ytsweep/internal/auth"
	"github.com/pders01/ytsweep/internal/browser"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/engine"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/index"
	"github.com/pders01/ytsweep/internal/storage"
	"github.com/pders01/ytsweep/internal/validation"
	"github.com/spf13/cobra"
)

var (
	errNoSavedSearch = errors.New("no saved search; run ytsweep search first")
	errNoAuthConfig  = errors.New("no credentials configured: set auth.client_id in the config file or YTSWEEP_ACCESS_TOKEN")
)

// runtime is everything a command needs once the config is loaded.
type runtime struct {
	cfg      *config.Config
	paths    *validation.PathHandler
	store    *storage.Store
	bus      *events.Bus
	engine   *engine.Engine
	launcher *browser.Launcher
}

func (o *rootOptions) openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg := o.cfg
	paths := validation.NewSecurePathHandler()

	dbPath, err := paths.DBPath(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	dbCfg := cfg.Database
	dbCfg.Path = dbPath
	store, err := storage.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	launcher := browser.NewLauncher(cfg.Browser)
	provider, err := newProvider(cfg, store, launcher, cmd.ErrOrStderr())
	if err != nil {
		store.Close()
		return nil, err
	}

	bus := events.NewBus()
	return &runtime{
		cfg:      cfg,
		paths:    paths,
		store:    store,
		bus:      bus,
		engine:   engine.New(cfg, engine.Options{Provider: provider, Publisher: bus}),
		launcher: launcher,
	}, nil
}

func (rt *runtime) Close() {
	if err := rt.store.Close(); err != nil {
		debuglog.Warnf("closing database: %v", err)
	}
}

// newProvider prefers a configured access token over the OAuth flow. With
// neither, every acquisition fails with auth.ErrNoCredential.
func newProvider(cfg *config.Config, cache auth.TokenCache, opener auth.Opener, out io.Writer) (auth.Provider, error) {
	switch {
	case cfg.Auth.AccessToken != "":
		return auth.StaticProvider{Token: cfg.Auth.AccessToken}, nil
	case cfg.Auth.ClientID != "":
		p, err := auth.NewOAuthProvider(cfg.Auth, auth.OAuthOptions{Cache: cache, Opener: opener, Out: out})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return auth.StaticProvider{}, nil
	}
}

func authConfigured(cfg *config.Config) bool {
	return cfg.Auth.AccessToken != "" || cfg.Auth.ClientID != ""
}

// signalContext is cancelled on interrupt so long operations stop cleanly
// and still report what they finished.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (rt *runtime) lastSearch() (*storage.SavedSearch, error) {
	saved, err := rt.store.LastSearch()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errNoSavedSearch
	}
	return saved, err
}

// findSaved runs a free-text query over the saved matches. The on-disk
// index is rebuilt from the record first so it never serves stale hits.
func (rt *runtime) findSaved(saved *storage.SavedSearch, query string, limit int) ([]index.Hit, error) {
	path, err := rt.paths.IndexPath(rt.cfg.Database.SearchIndex)
	if err != nil {
		return nil, fmt.Errorf("invalid index path: %w", err)
	}
	searcher, err := index.New(path)
	if err != nil {
		debuglog.Warnf("search index unavailable, scanning instead: %v", err)
	}
	if c, ok := searcher.(io.Closer); ok {
		defer c.Close()
	}

	result := saved.Result
	if result == nil {
		result = comments.NewResult()
	}
	if err := searcher.Rebuild(result); err != nil {
		return nil, fmt.Errorf("indexing saved matches: %w", err)
	}
	return searcher.Find(query, limit)
}

// syncDeleted drops deleted ids from the saved search.
func (rt *runtime) syncDeleted(ids []string) {
	if len(ids) == 0 {
		return
	}
	err := rt.store.UpdateLastSearch(func(s *storage.SavedSearch) error {
		s.Result.Remove(ids...)
		return nil
	})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		debuglog.Warnf("updating saved search: %v", err)
	}
}
