package hockeyvictoria

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/platform/logging"
	"github.com/mentonehc/hvsync/internal/usecase"
)

const miniLadderHTML = `<html><body><table class="table">
<thead><tr>
<th>Team</th><th>Played</th><th>Wins</th><th>Draws</th><th>Losses</th><th>Byes</th>
<th>Goals For</th><th>Goals Against</th><th>Goal Diff</th><th>Points</th>
</tr></thead>
<tbody><tr>
<td>1. <a href="/games/team/22076/337089">Mentone Hockey Club</a></td>
<td>1</td><td>1</td><td>0</td><td>0</td><td>0</td><td>3</td><td>1</td><td>2</td><td>3</td>
</tr></tbody>
</table></body></html>`

func TestClientRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(miniLadderHTML))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	rows, err := client.FetchLadder(context.Background(), "22076", "37393")
	if err != nil {
		t.Fatalf("FetchLadder: %v", err)
	}
	if len(rows) != 1 || rows[0].TeamID != "337089" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("request count = %d, want 3", got)
	}
}

func TestClientRetriesRateLimitResponses(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(miniLadderHTML))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	if _, err := client.FetchLadder(context.Background(), "22076", "37393"); err != nil {
		t.Fatalf("FetchLadder: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("request count = %d, want 2", got)
	}
}

func TestClientStopsOnNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.FetchGameDetail(context.Background(), "999")
	if !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("request count = %d, want 1: a missing page is not retried", got)
	}
}

func TestClientStopsOnClientError(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	_, err := client.FetchLadder(context.Background(), "22076", "37393")
	if !errors.Is(err, usecase.ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("request count = %d, want 1: a refusal is not retried", got)
	}
}

func TestClientReportsUnavailableAfterRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	_, err := client.FetchLadder(context.Background(), "22076", "37393")
	if !errors.Is(err, usecase.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("request count = %d, want 2", got)
	}
}

func TestClientBreakerShortCircuits(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:          srv.URL,
		MaxRetries:       0,
		RetryBase:        time.Millisecond,
		RequestsPerSec:   1000,
		Timeout:          5 * time.Second,
		BreakerThreshold: 1,
		BreakerCoolOff:   time.Minute,
		Logger:           logging.NewNop(),
	})

	if _, err := client.FetchLadder(context.Background(), "22076", "37393"); !errors.Is(err, usecase.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if _, err := client.FetchLadder(context.Background(), "22076", "37393"); !errors.Is(err, usecase.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable from the open breaker", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("request count = %d, want 1: the open breaker must not reach the source", got)
	}
}

func TestClientEmptyCompetitionsIndexIsAParseError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Down for maintenance.</p></body></html>`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	_, err := client.FetchCompetitionsIndex(context.Background())
	if !errors.Is(err, usecase.ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestClientValidatesIdentifiers(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://127.0.0.1:0", 0)

	cases := []struct {
		name string
		call func() error
	}{
		{"ladder", func() error { _, err := client.FetchLadder(context.Background(), "", "37393"); return err }},
		{"round ids", func() error { _, err := client.FetchRound(context.Background(), "22076", "", 1); return err }},
		{"round number", func() error { _, err := client.FetchRound(context.Background(), "22076", "37393", 0); return err }},
		{"game", func() error { _, err := client.FetchGameDetail(context.Background(), ""); return err }},
		{"team stats", func() error { _, err := client.FetchTeamStats(context.Background(), "22076", ""); return err }},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, usecase.ErrInvalidInput) {
			t.Fatalf("%s: error = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:          baseURL,
		MaxRetries:       maxRetries,
		RetryBase:        time.Millisecond,
		RequestsPerSec:   1000,
		Timeout:          5 * time.Second,
		BreakerThreshold: 50,
		BreakerCoolOff:   time.Minute,
		Logger:           logging.NewNop(),
	})
}
