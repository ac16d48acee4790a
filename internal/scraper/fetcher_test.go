package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dzieciakowo-test", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept-Language"), "pl-PL")
		w.Write([]byte("<html>wydarzenia</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "dzieciakowo-test")
	body, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>wydarzenia</html>", string(body))
}

func TestHTTPFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, "dzieciakowo-test")
	_, err := f.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrSourceUnreachable)
}

func TestHTTPFetcher_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(time.Second, "dzieciakowo-test")
	_, err := f.Get(context.Background(), url)
	assert.ErrorIs(t, err, ErrSourceUnreachable)
}
