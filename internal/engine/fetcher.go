package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-celebrations/internal/config"
)

// VCardFetcher downloads a vCard collection (CardDAV/WebDAV export).
type VCardFetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// APIFetcher downloads the JSON contact list of the contacts API.
type APIFetcher interface {
	FetchContacts(ctx context.Context, url, token string) (io.ReadCloser, error)
}

// HTTPFetcher serves both source modes over net/http.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher whose client times out after config.HTTPTimeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: config.HTTPTimeout}}
}

// credentials decorates an outgoing request.
type credentials func(*http.Request)

func basicAuth(user, pass string) credentials {
	return func(req *http.Request) {
		if user != "" || pass != "" {
			req.SetBasicAuth(user, pass)
		}
	}
}

func bearer(token string) credentials {
	return func(req *http.Request) {
		req.Header.Set(config.HeaderAccept, config.MimeJSONAccept)
		if token != "" {
			req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+token)
		}
	}
}

// Fetch downloads a vCard stream, with HTTP Basic auth when credentials are set.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	return f.get(ctx, targetURL, basicAuth(user, pass))
}

// FetchContacts downloads the API contact list, with a bearer token when set.
func (f *HTTPFetcher) FetchContacts(ctx context.Context, targetURL, token string) (io.ReadCloser, error) {
	return f.get(ctx, targetURL, bearer(token))
}

// get issues the GET and hands back a body capped at config.MaxHTTPResponseSize.
// Only scheme, host and path are logged: query strings may carry tokens.
func (f *HTTPFetcher) get(ctx context.Context, targetURL string, auth credentials) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	log := slog.With(
		config.LogKeyComponent, config.CompFetcher,
		config.LogKeyURL, (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	auth(req)

	log.DebugContext(ctx, config.MsgFetchStart,
		config.LogKeyAuth, req.Header.Get(config.HeaderAuthorization) != "")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.WarnContext(ctx, config.MsgFetchStatus, config.LogKeyStatus, resp.StatusCode)
		return nil, fmt.Errorf("%s: %s", config.ErrHTTPStatus, resp.Status)
	}

	log.InfoContext(ctx, config.MsgFetchOK, config.LogKeyLength, resp.ContentLength)

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, config.MaxHTTPResponseSize), resp.Body}, nil
}
