package gclient

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"golang.org/x/oauth2"
)

// Authenticator obtains an authorized HTTP client for the Google APIs.
type Authenticator struct {
	Config *oauth2.Config
	Store  TokenStore
	Port   int
	Logger *contract.Logger

	// Prompt shows the consent URL to the operator. Defaults to printing on Out.
	Prompt func(authURL string)
	Out    io.Writer
}

// NewAuthenticator returns an authenticator listening on contract.DefaultAuthPort.
func NewAuthenticator(cfg *oauth2.Config, store TokenStore, logger *contract.Logger) *Authenticator {
	return &Authenticator{Config: cfg, Store: store, Port: contract.DefaultAuthPort, Logger: logger}
}

// HTTPClient returns a client whose requests carry the cached token, refreshing or
// re-running the consent flow when needed.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}
	ts := &savingTokenSource{
		base:   a.Config.TokenSource(ctx, tok),
		store:  a.Store,
		last:   tok.AccessToken,
		logger: a.Logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts)), nil
}

// Token returns a valid token from the cache, a refresh, or a new consent.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.Store.Load()
	if errors.Is(err, schema.ErrCredentialsMissing) {
		a.Logger.Infof("No valid credentials found. Re-authenticating...")
		return a.Login(ctx)
	}
	if err != nil {
		return nil, err
	}
	if tok.Valid() {
		return tok, nil
	}
	if tok.RefreshToken == "" {
		a.Logger.Infof("Cached token expired without refresh token. Re-authenticating...")
		return a.Login(ctx)
	}

	fresh, err := a.Config.TokenSource(ctx, tok).Token()
	if isInvalidGrant(err) {
		a.Logger.Warnf("Refresh token is invalid or expired. Deleting token and re-authenticating...")
		if err := a.Store.Delete(); err != nil {
			return nil, fmt.Errorf("failed to delete cached token: %w", err)
		}
		return a.Login(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if err := a.Store.Save(fresh); err != nil {
		return nil, fmt.Errorf("failed to cache refreshed token: %w", err)
	}
	a.Logger.Debugf("Refreshed token, valid until %s", fresh.Expiry.Format(time.RFC3339))
	return fresh, nil
}

// Login runs the installed-app consent flow on a loopback server and caches the token.
func (a *Authenticator) Login(ctx context.Context) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", a.Port, err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	cfg := *a.Config
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	state, err := randomState()
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	codes := make(chan string, 1)
	errs := make(chan error, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, codes, errs),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.prompt(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := a.Store.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to cache token: %w", err)
	}
	a.Logger.Infof("Authorization complete")
	return tok, nil
}

func (a *Authenticator) prompt(authURL string) {
	if a.Prompt != nil {
		a.Prompt(authURL)
		return
	}
	if a.Out != nil {
		_, _ = fmt.Fprintf(a.Out, "Open the following URL in your browser to authorize coursekit:\n\n%s\n\n", authURL)
	}
}

// callbackHandler accepts the first redirect carrying the expected state.
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if msg := q.Get("error"); msg != "" {
			http.Error(w, "authorization failed: "+msg, http.StatusForbidden)
			select {
			case errs <- fmt.Errorf("authorization denied: %s", msg):
			default:
			}
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "Authorization complete. You may close this window.\n")
		select {
		case codes <- code:
		default:
		}
	})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
