package hockeyvictoria

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/time/rate"

	"github.com/mentonehc/hvsync/internal/platform/logging"
	"github.com/mentonehc/hvsync/internal/platform/resilience"
	"github.com/mentonehc/hvsync/internal/usecase"
)

const (
	defaultBaseURL   = "https://www.hockeyvictoria.org.au"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTimeout   = 12 * time.Second
	defaultRetryBase = 2 * time.Second
	defaultRate      = 0.5
	maxBodyBytes     = 4 << 20
)

var errTransient = crerr.New("hockey victoria transient failure")

type ClientConfig struct {
	HTTPClient       *http.Client
	BaseURL          string
	UserAgent        string
	Timeout          time.Duration
	MaxRetries       int
	RetryBase        time.Duration
	RequestsPerSec   float64
	BreakerThreshold int
	BreakerCoolOff   time.Duration
	Logger           *logging.Logger
}

// Client fetches and parses Hockey Victoria pages. It paces requests, retries
// transient failures, and trips a breaker when the site stops responding.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	retryBase  time.Duration
	limiter    *rate.Limiter
	logger     *logging.Logger
	breaker    *resilience.Breaker
	flight     resilience.Flight
	loc        *time.Location
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = defaultRate
	}
	threshold := cfg.BreakerThreshold
	if threshold < 1 {
		threshold = 5
	}
	coolOff := cfg.BreakerCoolOff
	if coolOff <= 0 {
		coolOff = time.Minute
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		breaker:    resilience.NewBreaker(threshold, coolOff),
		loc:        melbourneLocation(),
	}
}

func (c *Client) FetchCompetitionsIndex(ctx context.Context) ([]usecase.ExternalCompetitionBlock, error) {
	doc, err := c.fetchDocument(ctx, competitionsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch competitions index: %w", err)
	}

	blocks, warnings := parseCompetitionsIndex(doc)
	c.logWarnings(ctx, competitionsPath, warnings)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: competitions index yielded no competition blocks", usecase.ErrParse)
	}
	return blocks, nil
}

func (c *Client) FetchLadder(ctx context.Context, compID, fixtureID string) ([]usecase.ExternalLadderRow, error) {
	if compID == "" || fixtureID == "" {
		return nil, fmt.Errorf("%w: comp and fixture ids are required", usecase.ErrInvalidInput)
	}

	path := pointscorePath(compID, fixtureID)
	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch ladder comp_id=%s fixture_id=%s: %w", compID, fixtureID, err)
	}

	rows, warnings := parseLadder(doc)
	c.logWarnings(ctx, path, warnings)
	return rows, nil
}

func (c *Client) FetchRound(ctx context.Context, compID, fixtureID string, round int) ([]usecase.ExternalGameCard, error) {
	if compID == "" || fixtureID == "" {
		return nil, fmt.Errorf("%w: comp and fixture ids are required", usecase.ErrInvalidInput)
	}
	if round < 1 {
		return nil, fmt.Errorf("%w: round must be positive", usecase.ErrInvalidInput)
	}

	path := roundPath(compID, fixtureID, round)
	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch round comp_id=%s fixture_id=%s round=%d: %w", compID, fixtureID, round, err)
	}

	cards, warnings := parseRound(doc, roundContext{
		CompID:    compID,
		FixtureID: fixtureID,
		Round:     round,
		Location:  c.loc,
	})
	c.logWarnings(ctx, path, warnings)
	return cards, nil
}

func (c *Client) FetchGameDetail(ctx context.Context, gameID string) (usecase.ExternalGameDetail, error) {
	if gameID == "" {
		return usecase.ExternalGameDetail{}, fmt.Errorf("%w: game id is required", usecase.ErrInvalidInput)
	}

	path := gamePath(gameID)
	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		return usecase.ExternalGameDetail{}, fmt.Errorf("fetch game game_id=%s: %w", gameID, err)
	}

	detail, warnings := parseGameDetail(doc)
	c.logWarnings(ctx, path, warnings)
	return detail, nil
}

func (c *Client) FetchTeamStats(ctx context.Context, compID, teamID string) (usecase.ExternalTeamStats, error) {
	if compID == "" || teamID == "" {
		return usecase.ExternalTeamStats{}, fmt.Errorf("%w: comp and team ids are required", usecase.ErrInvalidInput)
	}

	path := teamStatsPath(compID, teamID)
	doc, err := c.fetchDocument(ctx, path)
	if err != nil {
		return usecase.ExternalTeamStats{}, fmt.Errorf("fetch team stats comp_id=%s team_id=%s: %w", compID, teamID, err)
	}

	stats, warnings := parseTeamStats(doc, teamID)
	c.logWarnings(ctx, path, warnings)
	return stats, nil
}

func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "hockey victoria breaker rejected request", "state", c.breaker.State(), "path", path)
		return nil, fmt.Errorf("%w: source is cooling off", usecase.ErrUnavailable)
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if reqErr != nil && stderrors.Is(reqErr, errTransient) {
			c.breaker.Failure()
		} else {
			c.breaker.Success()
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, translateFetchError(err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: build document: %v", usecase.ErrParse, err)
	}
	return doc, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errTransient, err)
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", usecase.ErrNotFound, fullURL)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: source status=%d", errTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: source status=%d", usecase.ErrRejected, resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBase
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: request failed", errTransient)
	}
	c.logger.WarnContext(ctx, "hockey victoria request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// readBody drains a page through a pooled buffer. Fixture pages run to a
// few megabytes, so growing a fresh slice per request churns the heap.
func readBody(r io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(r, maxBodyBytes)); err != nil {
		return nil, err
	}

	return append([]byte(nil), buf.B...), nil
}

func (c *Client) logWarnings(ctx context.Context, path string, warnings []parseWarning) {
	for _, w := range warnings {
		c.logger.WarnContext(ctx, "skipped malformed record", "path", path, "reason", w.Reason, "fragment", w.Fragment)
	}
}

// parseWarning records a skipped record and the fragment that broke.
type parseWarning struct {
	Reason   string
	Fragment string
}

// 429 is the site telling us to slow down; retry it alongside server errors.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func translateFetchError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, usecase.ErrNotFound),
		stderrors.Is(err, usecase.ErrRejected),
		stderrors.Is(err, usecase.ErrUnavailable):
		return err
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, errTransient):
		return fmt.Errorf("%w: %v", usecase.ErrUnavailable, err)
	default:
		return err
	}
}

// Source instants are Melbourne wall-clock times. The fixed offset fallback
// only matters on hosts with no tz database.
func melbourneLocation() *time.Location {
	loc, err := time.LoadLocation("Australia/Melbourne")
	if err != nil {
		return time.FixedZone("AEST", 10*3600)
	}
	return loc
}
