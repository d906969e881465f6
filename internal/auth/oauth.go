package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"golang.org/x/oauth2"
)

// Google's OAuth endpoints for installed applications.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Opener shows the consent page to the user.
type Opener interface {
	Open(url string) error
}

// OAuthProvider runs the installed-app loopback flow with PKCE and caches
// the resulting token so later runs can refresh silently.
type OAuthProvider struct {
	cfg       *oauth2.Config
	port      int
	revokeURL string
	cache     TokenCache
	opener    Opener
	// out receives the consent URL in case the browser cannot be opened.
	out  io.Writer
	http *http.Client
	log  *debuglog.FieldLogger
}

type OAuthOptions struct {
	Endpoint oauth2.Endpoint // GoogleEndpoint when empty
	Cache    TokenCache      // MemoryCache when nil
	Opener   Opener
	Out      io.Writer
	HTTP     *http.Client
}

func NewOAuthProvider(cfg config.AuthConfig, opts OAuthOptions) (*OAuthProvider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("auth.client_id is not set")
	}
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = GoogleEndpoint
	}
	if opts.Cache == nil {
		opts.Cache = &MemoryCache{}
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: 30 * time.Second}
	}

	return &OAuthProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
		port:      cfg.RedirectPort,
		revokeURL: cfg.RevokeURL,
		cache:     opts.Cache,
		opener:    opts.Opener,
		out:       opts.Out,
		http:      opts.HTTP,
		log:       debuglog.WithFields(map[string]any{"component": "auth"}),
	}, nil
}

type callbackResult struct {
	code string
	err  error
}

// AcquireInteractive opens the consent page and waits for Google to redirect
// back to a local listener.
func (p *OAuthProvider) AcquireInteractive(ctx context.Context) (Credential, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.port)))
	if err != nil {
		return Credential{}, fmt.Errorf("starting callback listener: %w", err)
	}
	defer ln.Close()

	redirect := fmt.Sprintf("http://%s/callback", ln.Addr().String())
	cfg := *p.cfg
	cfg.RedirectURL = redirect

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           p.callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(p.out, "Opening your browser to authorize ytsweep. If it does not open, visit:\n\n  %s\n\n", authURL)
	if p.opener != nil {
		if err := p.opener.Open(authURL); err != nil {
			p.log.Warnf("could not open browser: %v", err)
		}
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return Credential{}, res.err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, p.http)
	tok, err := cfg.Exchange(exchangeCtx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Credential{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := p.cache.SaveToken(tok); err != nil {
		p.log.Warnf("caching token: %v", err)
	}
	p.log.Infof("interactive login complete, token expires %s", tok.Expiry.Format(time.RFC3339))
	return fromToken(tok), nil
}

func (p *OAuthProvider) callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("authorization callback state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("authorization callback carried no code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "ytsweep is authorized. You can close this tab.")
		}
		select {
		case results <- res:
		default:
		}
	})
	return mux
}

// AcquireSilent refreshes the cached token if needed.
func (p *OAuthProvider) AcquireSilent(ctx context.Context) (Credential, error) {
	cached, err := p.cache.LoadToken()
	if err != nil || cached == nil {
		return Credential{}, fmt.Errorf("%w: nothing cached", ErrNoCredential)
	}

	refreshCtx := context.WithValue(ctx, oauth2.HTTPClient, p.http)
	tok, err := p.cfg.TokenSource(refreshCtx, cached).Token()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: refresh failed: %w", ErrNoCredential, err)
	}
	if tok.AccessToken != cached.AccessToken {
		if err := p.cache.SaveToken(tok); err != nil {
			p.log.Warnf("caching refreshed token: %v", err)
		}
		p.log.Debugf("access token refreshed")
	}
	return fromToken(tok), nil
}

// Invalidate revokes the token at Google and drops the cache. The cache is
// cleared even if revocation fails.
func (p *OAuthProvider) Invalidate(ctx context.Context, cred Credential) error {
	var revokeErr error
	if p.revokeURL != "" && cred.AccessToken != "" {
		revokeErr = p.revoke(ctx, cred.AccessToken)
		if revokeErr != nil {
			p.log.Warnf("revoking token: %v", revokeErr)
		}
	}
	return errors.Join(revokeErr, p.cache.DeleteToken())
}

func (p *OAuthProvider) revoke(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// Revoking an already expired token answers 400; nothing left to do.
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("revoke returned %s", resp.Status)
	}
	return nil
}
