package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

// cacheItem stores one rendered document and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	contentType  string
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// feedCache holds every document rendered from one snapshot, so a reader
// never mixes the calendar of one sync with the JSON of another.
type feedCache struct {
	calendar *cacheItem
	upcoming *cacheItem
}

// FeedServer serves the calendar feed and the upcoming events report.
type FeedServer struct {
	// cache is read on every request and written once per sync.
	cache atomic.Pointer[feedCache]
	Port  string
}

// NewFeedServer creates a new instance of the server.
func NewFeedServer(port string) *FeedServer {
	return &FeedServer{
		Port: port,
	}
}

// Handler returns the route table.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleCalendarRequest)
	mux.HandleFunc(config.RouteCalendar, s.handleCalendarRequest)
	mux.HandleFunc(config.RouteUpcoming, s.handleUpcomingRequest)
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update renders the snapshot and atomically replaces the served content.
// The previous content stays in place if rendering fails.
func (s *FeedServer) Update(snap *engine.Snapshot) error {
	report, err := json.Marshal(snap.Report())
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrEncodeResp, err)
	}

	lastMod := snap.GeneratedAt.UTC().Format(http.TimeFormat)
	if snap.GeneratedAt.IsZero() {
		lastMod = time.Now().UTC().Format(http.TimeFormat)
	}

	fc := &feedCache{
		calendar: newCacheItem(snap.ICS, config.MimeTextCalendar, lastMod),
		upcoming: newCacheItem(report, config.MimeJSON, lastMod),
	}
	s.cache.Store(fc)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(snap.ICS),
		config.LogKeyUpcoming, len(snap.Upcoming),
		config.LogKeyETag, fc.calendar.etag,
	)
	return nil
}

func newCacheItem(data []byte, contentType, lastModified string) *cacheItem {
	hash := sha256.Sum256(data)
	return &cacheItem{
		data:         data,
		contentType:  contentType,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: lastModified,
	}
}

func (s *FeedServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	// Only the exact root aliases the feed.
	if r.URL.Path != config.RouteRoot && r.URL.Path != config.RouteCalendar {
		http.NotFound(w, r)
		return
	}
	s.serve(w, r, func(fc *feedCache) *cacheItem { return fc.calendar })
}

func (s *FeedServer) handleUpcomingRequest(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(fc *feedCache) *cacheItem { return fc.upcoming })
}

// serve writes one cached document with HTTP caching support.
func (s *FeedServer) serve(w http.ResponseWriter, r *http.Request, pick func(*feedCache) *cacheItem) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	fc := s.cache.Load()
	if fc == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}
	item := pick(fc)

	w.Header().Set(config.HeaderContentType, item.contentType)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if notModified(r, item) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// notModified evaluates If-None-Match first, then If-Modified-Since.
func notModified(r *http.Request, item *cacheItem) bool {
	if match := r.Header.Values(config.HeaderIfNoneMatch); len(match) > 0 {
		return etagMatches(match, item.etag)
	}

	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	clientTime, err := time.Parse(http.TimeFormat, since)
	if err != nil {
		return false
	}
	serverTime, err := time.Parse(http.TimeFormat, item.lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}

// etagMatches applies the weak comparison of RFC 9110 to a list of
// If-None-Match header values.
func etagMatches(values []string, etag string) bool {
	current := strings.TrimPrefix(etag, config.ETagWeakPrefix)
	for _, v := range values {
		for _, candidate := range strings.Split(v, ",") {
			candidate = strings.TrimSpace(candidate)
			if candidate == config.ETagAny {
				return true
			}
			if strings.TrimPrefix(candidate, config.ETagWeakPrefix) == current {
				return true
			}
		}
	}
	return false
}
