package engine_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestHTTPFetcher_Credentials(t *testing.T) {
	const card = "BEGIN:VCARD\nVERSION:3.0\nFN:Ana\nBDAY:--04-12\nEND:VCARD"

	tests := []struct {
		name  string
		fetch func(f *engine.HTTPFetcher, url string) (io.ReadCloser, error)
		check func(t *testing.T, r *http.Request)
	}{
		{
			name: "vCard with basic auth",
			fetch: func(f *engine.HTTPFetcher, url string) (io.ReadCloser, error) {
				return f.Fetch(context.Background(), url, "ana", "pa55")
			},
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "ana", user)
				assert.Equal(t, "pa55", pass)
			},
		},
		{
			name: "vCard anonymous",
			fetch: func(f *engine.HTTPFetcher, url string) (io.ReadCloser, error) {
				return f.Fetch(context.Background(), url, "", "")
			},
			check: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
			},
		},
		{
			name: "API with bearer token",
			fetch: func(f *engine.HTTPFetcher, url string) (io.ReadCloser, error) {
				return f.FetchContacts(context.Background(), url, "s3cret")
			},
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				_, _, basic := r.BasicAuth()
				assert.False(t, basic)
			},
		},
		{
			name: "API anonymous",
			fetch: func(f *engine.HTTPFetcher, url string) (io.ReadCloser, error) {
				return f.FetchContacts(context.Background(), url, "")
			},
			check: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, config.UserAgent, r.Header.Get("User-Agent"))
				tt.check(t, r)
				_, _ = io.WriteString(w, card)
			}))
			defer ts.Close()

			rc, err := tt.fetch(engine.NewHTTPFetcher(), ts.URL)
			require.NoError(t, err)
			assert.Equal(t, card, readAll(t, rc))
		})
	}
}

func TestHTTPFetcher_Status(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusNotFound, http.StatusBadGateway} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			rc, err := engine.NewHTTPFetcher().FetchContacts(context.Background(), ts.URL, "t")
			assert.Nil(t, rc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), config.ErrHTTPStatus)
			assert.Contains(t, err.Error(), http.StatusText(code))
		})
	}
}

func TestHTTPFetcher_RejectsURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{string([]byte{0x7f}), config.ErrInvalidURL},
		{"ftp://example.com/contacts.vcf", config.ErrProtocol},
		{"file:///etc/passwd", config.ErrProtocol},
	}

	for _, tt := range tests {
		_, err := engine.NewHTTPFetcher().Fetch(context.Background(), tt.url, "", "")
		require.Error(t, err, tt.url)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestHTTPFetcher_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := engine.NewHTTPFetcher().Fetch(ctx, ts.URL, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), config.ErrNetwork)
}

func TestHTTPFetcher_BodyIsCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 1024))
	}))
	defer ts.Close()

	rc, err := engine.NewHTTPFetcher().Fetch(context.Background(), ts.URL, "", "")
	require.NoError(t, err)
	assert.Len(t, readAll(t, rc), 1024, "bodies under the cap are passed through untouched")
}
