package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-celebrations/internal/config"
	"github.com/tartampluch/go-celebrations/internal/engine"
)

func testSnapshot(ics string) *engine.Snapshot {
	generated := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	upcoming := []engine.UpcomingEvent{
		{ContactID: "c1", ContactName: "Ana", EventType: engine.EventBirthday,
			OccurrenceDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), DaysUntil: 0},
		{ContactID: "c2", ContactName: "Ben", EventType: engine.EventAnniversary,
			OccurrenceDate: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), DaysUntil: 3},
	}
	return &engine.Snapshot{
		GeneratedAt: generated,
		WindowDays:  30,
		Upcoming:    upcoming,
		Stats:       engine.Stats{TotalContacts: 5, WithDates: 2, Today: 1, Upcoming: upcoming},
		ICS:         []byte(ics),
	}
}

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	resp := w.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// -----------------------------------------------------------------------------
// Unit Tests (Handler Logic)
// -----------------------------------------------------------------------------

// TestHandler_ServingCalendar verifies headers and body on both feed routes.
func TestHandler_ServingCalendar(t *testing.T) {
	srv := NewFeedServer("0")
	expectedICS := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR"
	require.NoError(t, srv.Update(testSnapshot(expectedICS)))

	for _, route := range []string{"/", config.RouteCalendar} {
		t.Run(route, func(t *testing.T) {
			resp := do(t, srv.Handler(), http.MethodGet, route, nil)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
			assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
			assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
			assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
			assert.Equal(t, "Sun, 01 Jun 2025 08:00:00 GMT", resp.Header.Get(config.HeaderLastModified))

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, expectedICS, string(body))
		})
	}
}

// TestHandler_ServingUpcoming verifies the JSON report.
func TestHandler_ServingUpcoming(t *testing.T) {
	srv := NewFeedServer("0")
	require.NoError(t, srv.Update(testSnapshot("ICS")))

	resp := do(t, srv.Handler(), http.MethodGet, config.RouteUpcoming, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))

	var report struct {
		GeneratedAt time.Time `json:"generated_at"`
		WindowDays  int       `json:"window_days"`
		Stats       struct {
			TotalContacts int `json:"total_contacts"`
			WithDates     int `json:"with_dates"`
			Today         int `json:"today"`
		} `json:"stats"`
		Upcoming []struct {
			ContactID   string `json:"contact_id"`
			ContactName string `json:"contact_name"`
			EventType   string `json:"event_type"`
			Date        string `json:"date"`
			DaysUntil   int    `json:"days_until"`
		} `json:"upcoming"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

	assert.Equal(t, 30, report.WindowDays)
	assert.Equal(t, 5, report.Stats.TotalContacts)
	assert.Equal(t, 1, report.Stats.Today)
	require.Len(t, report.Upcoming, 2)
	assert.Equal(t, "c2", report.Upcoming[1].ContactID)
	assert.Equal(t, "anniversary", report.Upcoming[1].EventType)
	assert.Equal(t, "2025-06-04", report.Upcoming[1].Date)
	assert.Equal(t, 3, report.Upcoming[1].DaysUntil)
}

// TestHandler_Caching verifies ETag and Last-Modified revalidation.
func TestHandler_Caching(t *testing.T) {
	srv := NewFeedServer("0")
	require.NoError(t, srv.Update(testSnapshot("DATA_VERSION_1")))
	h := srv.Handler()

	etag := do(t, h, http.MethodGet, "/", nil).Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag, "Server must provide an ETag")

	resp := do(t, h, http.MethodGet, "/", map[string]string{config.HeaderIfNoneMatch: etag})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body, "Body must be empty on 304 Not Modified")

	resp = do(t, h, http.MethodGet, "/", map[string]string{config.HeaderIfNoneMatch: `"stale"`})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, h, http.MethodGet, "/", map[string]string{config.HeaderIfModifiedSince: "Mon, 02 Jun 2025 00:00:00 GMT"})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = do(t, h, http.MethodGet, "/", map[string]string{config.HeaderIfModifiedSince: "Sat, 31 May 2025 00:00:00 GMT"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A new snapshot changes the validator.
	require.NoError(t, srv.Update(testSnapshot("DATA_VERSION_2")))
	resp = do(t, h, http.MethodGet, "/", map[string]string{config.HeaderIfNoneMatch: etag})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestHandler_IfNoneMatchList accepts lists, weak validators and the wildcard.
func TestHandler_IfNoneMatchList(t *testing.T) {
	srv := NewFeedServer("0")
	require.NoError(t, srv.Update(testSnapshot("DATA")))
	h := srv.Handler()

	etag := do(t, h, http.MethodGet, config.RouteCalendar, nil).Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"exact", etag, http.StatusNotModified},
		{"list", `"other", ` + etag, http.StatusNotModified},
		{"list without spaces", `"a","b",` + etag, http.StatusNotModified},
		{"weak", "W/" + etag, http.StatusNotModified},
		{"wildcard", "*", http.StatusNotModified},
		{"no match", `"a", W/"b"`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, h, http.MethodGet, config.RouteCalendar, map[string]string{config.HeaderIfNoneMatch: tt.header})
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

// TestHandler_Head returns headers without a body.
func TestHandler_Head(t *testing.T) {
	srv := NewFeedServer("0")
	require.NoError(t, srv.Update(testSnapshot("BODY")))

	resp := do(t, srv.Handler(), http.MethodHead, config.RouteUpcoming, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

// TestHandler_MethodNotAllowed ensures strictly GET and HEAD are accepted.
func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := NewFeedServer("0")

	for _, route := range []string{"/", config.RouteCalendar, config.RouteUpcoming} {
		resp := do(t, srv.Handler(), http.MethodPost, route, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, route)
		assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
	}
}

// TestHandler_Initializing verifies the 503 behavior when data is not yet ready.
func TestHandler_Initializing(t *testing.T) {
	srv := NewFeedServer("0")

	for _, route := range []string{"/", config.RouteUpcoming} {
		resp := do(t, srv.Handler(), http.MethodGet, route, nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
	}
}

func TestHandler_UnknownPath(t *testing.T) {
	srv := NewFeedServer("0")
	require.NoError(t, srv.Update(testSnapshot("ICS")))

	resp := do(t, srv.Handler(), http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// -----------------------------------------------------------------------------
// Concurrency Tests (Race Detection)
// -----------------------------------------------------------------------------

// TestServer_RaceCondition runs writers and readers concurrently.
// Run this with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewFeedServer("0")
	h := srv.Handler()
	var wg sync.WaitGroup

	end := time.Now().Add(500 * time.Millisecond)

	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			i := 0
			for time.Now().Before(end) {
				if err := srv.Update(testSnapshot(fmt.Sprintf("VERSION:%d-%d", id, i))); err != nil {
					t.Errorf("update failed: %v", err)
					return
				}
				i++
				time.Sleep(1 * time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 20; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			route := "/"
			if r%2 == 0 {
				route = config.RouteUpcoming
			}
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, route, nil))

				if code := w.Code; code != http.StatusOK && code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", code)
				}
			}
		}(r)
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

// TestServer_Lifecycle spins up the actual TCP listener to verify network binding
// and graceful shutdown logic.
func TestServer_Lifecycle(t *testing.T) {
	const port = "18099"

	srv := NewFeedServer(port)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- srv.Start(ctx)
	}()

	url := "http://127.0.0.1:" + port + config.RouteCalendar

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "Server failed to bind/listen in time")

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	require.NoError(t, srv.Update(testSnapshot("BEGIN:VCALENDAR\nEND:VCALENDAR")))

	resp, err = http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shutdown gracefully without error")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_StartWithoutPort(t *testing.T) {
	err := NewFeedServer("").Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)
}
