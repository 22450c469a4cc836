// Package timesync estimates the offset between the local clock and network
// time. A failed sync is never fatal: callers log it and keep local time.
package timesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog/log"
)

// ErrNoServers is returned when a Syncer has nothing to query.
var ErrNoServers = errors.New("timesync: no servers configured")

// DefaultServers are queried when none are configured.
var DefaultServers = []string{"pool.ntp.org", "time.google.com", "time.cloudflare.com"}

const (
	DefaultAttempts = 3
	DefaultTimeout  = 2 * time.Second
	DefaultBackoff  = time.Second
)

// QueryFunc performs a single query against host and returns the offset of
// the local clock relative to it.
type QueryFunc func(host string, timeout time.Duration) (time.Duration, error)

// Syncer queries a list of servers with a bounded number of attempts.
type Syncer struct {
	Servers  []string
	Attempts int
	Timeout  time.Duration
	Backoff  time.Duration

	query QueryFunc
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Syncer that uses NTP. Zero values fall back to defaults.
func New(servers []string, attempts int, timeout, backoff time.Duration) *Syncer {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if backoff < 0 {
		backoff = 0
	}
	return &Syncer{
		Servers:  servers,
		Attempts: attempts,
		Timeout:  timeout,
		Backoff:  backoff,
		query:    queryNTP,
		sleep:    sleepContext,
	}
}

// WithQuery replaces the network query. Used in tests.
func (s *Syncer) WithQuery(q QueryFunc) *Syncer {
	s.query = q
	return s
}

// Sync returns the clock offset from the first server that answers with a
// valid response. Each attempt tries every server once; attempts are
// separated by Backoff. Sync gives up after Attempts rounds.
func (s *Syncer) Sync(ctx context.Context) (time.Duration, error) {
	if len(s.Servers) == 0 {
		return 0, ErrNoServers
	}
	query := s.query
	if query == nil {
		query = queryNTP
	}
	sleep := s.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := max(s.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		for _, server := range s.Servers {
			if err := ctx.Err(); err != nil {
				return 0, err
			}

			offset, err := queryContext(ctx, query, server, s.Timeout)
			if err == nil {
				log.Debug().
					Str("server", server).
					Dur("offset", offset).
					Int("attempt", attempt).
					Msg("Time sync succeeded")
				return offset, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			lastErr = fmt.Errorf("query %s: %w", server, err)
			log.Debug().Err(err).Str("server", server).Int("attempt", attempt).Msg("Time sync attempt failed")
		}

		if attempt < attempts {
			if err := sleep(ctx, s.Backoff); err != nil {
				return 0, err
			}
		}
	}

	return 0, fmt.Errorf("time sync failed after %d attempts: %w", attempts, lastErr)
}

type queryResult struct {
	offset time.Duration
	err    error
}

// queryContext runs query but returns as soon as ctx is done. An abandoned
// query finishes in the background within its own timeout.
func queryContext(ctx context.Context, query QueryFunc, host string, timeout time.Duration) (time.Duration, error) {
	done := make(chan queryResult, 1)
	go func() {
		offset, err := query(host, timeout)
		done <- queryResult{offset: offset, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-done:
		return res.offset, res.err
	}
}

func queryNTP(host string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("invalid response: %w", err)
	}
	return resp.ClockOffset, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
