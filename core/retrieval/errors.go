package retrieval

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfiguration marks malformed weights or thresholds.
	// It is detected once at engine construction, never mid-query.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRetrievalUnavailable marks an unreachable or timed-out
	// candidate source. Callers may retry with backoff.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)

// joinErr attaches a sentinel to an underlying error so both survive
// errors.Is checks through the helper wrapper.
func joinErr(sentinel, err error) error {
	return errors.Join(sentinel, err)
}

// markTimeout attaches ErrRetrievalUnavailable to an expired deadline,
// wherever in the query path it fired. Plain cancellation is the
// caller's own doing and passes through unchanged.
func markTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrRetrievalUnavailable) {
		return joinErr(ErrRetrievalUnavailable, err)
	}
	return err
}
