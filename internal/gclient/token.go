package gclient

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coursekit/coursekit/internal/contract"
	"github.com/coursekit/coursekit/schema"
	"golang.org/x/oauth2"
)

// TokenStore keeps the OAuth token as JSON in the cache store.
type TokenStore struct {
	cache contract.CacheStore
}

// NewTokenStore wraps a cache store. A nil cache behaves as an empty store.
func NewTokenStore(cache contract.CacheStore) TokenStore {
	return TokenStore{cache: cache}
}

// Load returns the cached token or schema.ErrCredentialsMissing.
func (s TokenStore) Load() (*oauth2.Token, error) {
	if s.cache == nil {
		return nil, schema.ErrCredentialsMissing
	}
	data, version, _, err := s.cache.Get(contract.TokenCacheKey)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && len(data) == 0) {
		return nil, schema.ErrCredentialsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached token: %w", err)
	}
	if version != contract.CacheVersion {
		return nil, schema.ErrCredentialsMissing
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &tok, nil
}

// Save writes the token to the cache store.
func (s TokenStore) Save(tok *oauth2.Token) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return s.cache.Set(contract.TokenCacheKey, data, contract.CacheVersion, time.Now().Unix())
}

// Delete removes the cached token.
func (s TokenStore) Delete() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(contract.TokenCacheKey)
}

// Status describes the cached token without contacting Google.
func (s TokenStore) Status() schema.TokenStatus {
	tok, err := s.Load()
	if err != nil {
		return schema.TokenStatus{}
	}
	return schema.TokenStatus{
		Present:         true,
		Valid:           tok.Valid(),
		Expiry:          tok.Expiry,
		HasRefreshToken: tok.RefreshToken != "",
	}
}

// savingTokenSource writes every newly issued token back to the store.
type savingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	store  TokenStore
	last   string
	logger *contract.Logger
}

// Token implements oauth2.TokenSource.
func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			s.logger.Warnf("Failed to cache refreshed token: %v", err)
		}
	}
	return tok, nil
}

// isInvalidGrant reports whether Google rejected the refresh token itself.
func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	if re.ErrorCode == "invalid_grant" {
		return true
	}
	return re.Response != nil && (re.Response.StatusCode == 400 || re.Response.StatusCode == 401)
}
