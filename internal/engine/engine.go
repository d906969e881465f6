// Package engine coordinates the long-running work: logging in, searching a
// channel's comments and deleting comments in bulk. It owns the credential,
// the quota counter and the operation guard, and reports progress through
// an events.Publisher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/pders01/ytsweep/internal/auth"
	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/events"
	"github.com/pders01/ytsweep/internal/paginate"
	"github.com/pders01/ytsweep/internal/youtube"
)

var (
	ErrEmptyRequest = errors.New("no comment ids given")
	ErrEmptyKeyword = errors.New("keyword must not be empty")
	// ErrResolution means the channel or its uploads playlist could not be
	// found.
	ErrResolution = errors.New("could not resolve channel")
)

// API is the subset of the Data API the engine drives. *youtube.Client
// implements it.
type API interface {
	comments.Source
	MyChannel(ctx context.Context) (youtube.Channel, error)
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	PlaylistVideos(ctx context.Context, playlistID, cursor string) (paginate.Page[youtube.Video], error)
	DeleteComment(ctx context.Context, id string) error
}

type Options struct {
	Provider  auth.Provider
	Publisher events.Publisher // events are dropped when nil
	// API overrides the client built from cfg.API. The override does not
	// see the engine's credential or quota counter.
	API API
	// Source overrides the video source chosen by cfg.Search.VideoSource.
	Source     VideoSource
	HTTPClient *http.Client
}

type Engine struct {
	cfg      *config.Config
	provider auth.Provider
	pub      events.Publisher
	api      API
	source   VideoSource
	walker   *comments.Walker
	session  *session
	guard    Guard
	// authMu serialises login, logout and silent acquisition.
	authMu sync.Mutex
	log    *debuglog.FieldLogger
}

func New(cfg *config.Config, opts Options) *Engine {
	if cfg == nil {
		cfg = config.TestConfig()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = discard{}
	}

	e := &Engine{
		cfg:      cfg,
		provider: opts.Provider,
		pub:      pub,
		session:  newSession(pub),
		log:      debuglog.WithFields(map[string]any{"component": "engine"}),
	}
	if e.provider == nil {
		e.provider = auth.StaticProvider{Token: cfg.Auth.AccessToken}
	}

	e.api = opts.API
	if e.api == nil {
		apiOpts := youtube.OptionsFromConfig(cfg.API)
		if opts.HTTPClient != nil {
			apiOpts.HTTPClient = opts.HTTPClient
		}
		apiOpts.Credentials = e.session
		apiOpts.Quota = e.session
		e.api = youtube.NewClient(apiOpts)
	}

	e.source = opts.Source
	if e.source == nil {
		e.source = SourceFromConfig(cfg, e.api)
	}
	e.walker = comments.NewWalker(e.api)
	return e
}

type discard struct{}

func (discard) Publish(events.Event) {}

// State is a snapshot of the operation guard.
func (e *Engine) State() State { return e.guard.State() }

// Quota is the number of units charged since the last search started.
func (e *Engine) Quota() int64 { return e.session.quotaUsed() }

// Login acquires a credential interactively and proves it works by looking
// up the channel it belongs to. A credential that fails the check is
// invalidated again.
func (e *Engine) Login(ctx context.Context) (youtube.Channel, error) {
	e.authMu.Lock()
	defer e.authMu.Unlock()

	meta := events.NewMeta(events.OpLogin)
	e.pub.Publish(events.Started{Meta: meta})
	e.status(meta, "Waiting for authorization")

	fail := func(err error) (youtube.Channel, error) {
		e.log.Warnf("login failed: %v", err)
		e.pub.Publish(events.LoginFailed{Meta: meta, Err: err})
		return youtube.Channel{}, err
	}

	cred, err := e.provider.AcquireInteractive(ctx)
	if err != nil {
		return fail(fmt.Errorf("acquiring credential: %w", err))
	}
	e.session.setCredential(cred)

	e.status(meta, "Verifying channel access")
	ch, err := e.api.MyChannel(ctx)
	if err != nil {
		e.session.clearCredential()
		if invErr := e.provider.Invalidate(ctx, cred); invErr != nil {
			e.log.Warnf("invalidating rejected credential: %v", invErr)
		}
		return fail(fmt.Errorf("verifying credential: %w", resolutionErr(err)))
	}

	e.log.Infof("logged in as %s (%s)", ch.Title, ch.ID)
	e.pub.Publish(events.LoginSucceeded{Meta: meta, ChannelID: ch.ID, ChannelTitle: ch.Title})
	return ch, nil
}

// Logout forgets the credential first and then asks the provider to revoke
// it. The in-memory credential is gone even if revocation fails.
func (e *Engine) Logout(ctx context.Context) error {
	e.authMu.Lock()
	defer e.authMu.Unlock()

	meta := events.NewMeta(events.OpLogout)
	old := e.session.clearCredential()
	err := e.provider.Invalidate(ctx, old)
	if err != nil {
		e.log.Warnf("logout: %v", err)
	}
	e.pub.Publish(events.LoggedOut{Meta: meta})
	return err
}

// CurrentCredential returns the held credential or tries a silent
// acquisition. A failed silent acquisition leaves no credential behind.
func (e *Engine) CurrentCredential(ctx context.Context) (auth.Credential, error) {
	e.authMu.Lock()
	defer e.authMu.Unlock()
	return e.currentCredentialLocked(ctx)
}

func (e *Engine) currentCredentialLocked(ctx context.Context) (auth.Credential, error) {
	if cred, ok := e.session.credential(); ok {
		return cred, nil
	}
	cred, err := e.provider.AcquireSilent(ctx)
	if err != nil || !cred.Valid() {
		e.session.clearCredential()
		if err == nil {
			err = auth.ErrNoCredential
		}
		return auth.Credential{}, fmt.Errorf("%w: %w", youtube.ErrUnauthenticated, err)
	}
	e.session.setCredential(cred)
	return cred, nil
}

// Whoami resolves the channel of the current credential.
func (e *Engine) Whoami(ctx context.Context) (youtube.Channel, error) {
	if _, err := e.CurrentCredential(ctx); err != nil {
		return youtube.Channel{}, err
	}
	ch, err := e.api.MyChannel(ctx)
	if err != nil {
		return youtube.Channel{}, resolutionErr(err)
	}
	return ch, nil
}

func (e *Engine) ensureCredential(ctx context.Context) error {
	_, err := e.CurrentCredential(ctx)
	return err
}

func (e *Engine) status(meta events.Meta, format string, args ...any) {
	e.pub.Publish(events.Status{Meta: meta, Text: fmt.Sprintf(format, args...)})
}

// resolutionErr tags empty lookups with ErrResolution.
func resolutionErr(err error) error {
	if errors.Is(err, youtube.ErrNoItems) {
		return fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return err
}
