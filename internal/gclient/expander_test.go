package gclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExpander(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hop", http.StatusFound)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/forms/d/e/abc/viewform", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/forms/d/e/abc/viewform", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>form</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	expander := NewHTTPExpander(DefaultExpandTimeout)

	t.Run("follows redirects", func(t *testing.T) {
		got, err := expander.Expand(context.Background(), srv.URL+"/short")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/forms/d/e/abc/viewform", got)
	})

	t.Run("no redirect", func(t *testing.T) {
		got, err := expander.Expand(context.Background(), srv.URL+"/forms/d/e/abc/viewform")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/forms/d/e/abc/viewform", got)
	})

	t.Run("error status", func(t *testing.T) {
		_, err := expander.Expand(context.Background(), srv.URL+"/missing")
		assert.ErrorContains(t, err, "404")
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := expander.Expand(context.Background(), "://bad")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := expander.Expand(ctx, srv.URL+"/short")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPExpanderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := NewHTTPExpander(50*time.Millisecond).Expand(context.Background(), srv.URL)
	assert.Error(t, err)
}
