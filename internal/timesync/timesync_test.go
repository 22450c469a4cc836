package timesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestNewDefaults(t *testing.T) {
	s := New(nil, 0, 0, -time.Second)

	assert.Equal(t, DefaultServers, s.Servers)
	assert.Equal(t, DefaultAttempts, s.Attempts)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Zero(t, s.Backoff)
}

func TestSyncFirstServer(t *testing.T) {
	var hosts []string
	s := New([]string{"a", "b"}, 3, time.Second, 0).WithQuery(func(host string, timeout time.Duration) (time.Duration, error) {
		hosts = append(hosts, host)
		assert.Equal(t, time.Second, timeout)
		return 250 * time.Millisecond, nil
	})

	offset, err := s.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, offset)
	assert.Equal(t, []string{"a"}, hosts)
}

func TestSyncFallsBackToNextServer(t *testing.T) {
	s := New([]string{"down", "up"}, 1, time.Second, 0).WithQuery(func(host string, _ time.Duration) (time.Duration, error) {
		if host == "down" {
			return 0, errors.New("i/o timeout")
		}
		return -3 * time.Second, nil
	})

	offset, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -3*time.Second, offset)
}

func TestSyncRetriesThenSucceeds(t *testing.T) {
	calls := 0
	var slept []time.Duration
	s := New([]string{"a"}, 3, time.Second, 2*time.Second).WithQuery(func(string, time.Duration) (time.Duration, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("network unreachable")
		}
		return time.Second, nil
	})
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	offset, err := s.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Second, offset)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestSyncGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	s := New([]string{"a", "b"}, 2, time.Second, time.Second).WithQuery(func(string, time.Duration) (time.Duration, error) {
		calls++
		return 0, errors.New("no route to host")
	})
	s.sleep = noSleep

	_, err := s.Sync(context.Background())

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "no route to host")
}

func TestSyncNoServers(t *testing.T) {
	s := &Syncer{}

	_, err := s.Sync(context.Background())
	assert.ErrorIs(t, err, ErrNoServers)
}

func TestSyncHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	s := New([]string{"a"}, 3, time.Second, 0).WithQuery(func(string, time.Duration) (time.Duration, error) {
		called = true
		return 0, nil
	})

	_, err := s.Sync(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSyncReturnsWhileQueryBlocks(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{}, 1)
	s := New([]string{"a", "b"}, 3, time.Minute, 0).WithQuery(func(string, time.Duration) (time.Duration, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	begin := time.Now()
	_, err := s.Sync(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(begin), 5*time.Second)
}
