package usecase

import "errors"

var (
	// ErrInvalidInput marks caller mistakes: bad ids, unknown modules,
	// malformed selectors.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized marks a missing or wrong pipeline trigger token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound marks a missing document or a 404 from the source site.
	ErrNotFound = errors.New("resource not found")

	// ErrRejected marks a non-404 4xx from the source site; retrying will
	// not help.
	ErrRejected = errors.New("request rejected by source")

	// ErrUnavailable marks transport failures, 5xx after retries, and an
	// open circuit breaker.
	ErrUnavailable = errors.New("source unavailable")

	// ErrParse marks a page that fetched fine but did not yield the
	// required fields.
	ErrParse = errors.New("page parse failed")

	// ErrStore marks storage backend failures.
	ErrStore = errors.New("store operation failed")

	// ErrCritical wraps a failed critical stage; the orchestrator aborts
	// the run when it sees it.
	ErrCritical = errors.New("critical stage failed")
)
