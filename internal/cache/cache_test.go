package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/mimic/internal/errors"
	"github.com/hpungsan/mimic/internal/message"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingSource serves fixed messages and counts fetches per scope.
type countingSource struct {
	msgs  map[message.Scope][]message.Message
	calls atomic.Int32
	delay time.Duration
	err   error

	// gate, when set, holds the fetch until closed or ctx ends
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *countingSource) FetchMessages(ctx context.Context, scope message.Scope) ([]message.Message, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.gate != nil {
		s.once.Do(func() { close(s.started) })
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.msgs[scope], nil
}

func newSource() *countingSource {
	return &countingSource{msgs: map[message.Scope][]message.Message{
		"U1": {
			{AuthorID: "U1", Text: "the cat sat on the mat"},
			{AuthorID: "U1", Text: "the dog sat"},
		},
		message.AllAuthors: {
			{AuthorID: "U1", Text: "the cat sat on the mat"},
			{AuthorID: "U2", Text: "hello world"},
		},
	}}
}

func TestGetOrBuild_CachesPerScope(t *testing.T) {
	src := newSource()
	c := New(src, nil)
	ctx := context.Background()

	m1, err := c.GetOrBuild(ctx, "U1")
	require.NoError(t, err)
	m2, err := c.GetOrBuild(ctx, "U1")
	require.NoError(t, err)

	require.Same(t, m1, m2)
	require.Equal(t, int32(1), src.calls.Load())
	require.Equal(t, 2, m1.Messages())

	_, err = c.GetOrBuild(ctx, message.AllAuthors)
	require.NoError(t, err)
	require.Equal(t, int32(2), src.calls.Load())
	require.Equal(t, 2, c.Len())
}

func TestGetOrBuild_EmptyScope(t *testing.T) {
	src := newSource()
	c := New(src, nil)

	_, err := c.GetOrBuild(context.Background(), "U404")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrNotFound), "got %v", err)
	require.Equal(t, 0, c.Len())

	// Empty results are not cached; the next request fetches again.
	_, _ = c.GetOrBuild(context.Background(), "U404")
	require.Equal(t, int32(2), src.calls.Load())
}

func TestGetOrBuild_SourceError(t *testing.T) {
	src := newSource()
	src.err = fmt.Errorf("database is locked")
	c := New(src, nil)

	_, err := c.GetOrBuild(context.Background(), "U1")
	require.Error(t, err)
	require.False(t, errors.Is(err, errors.ErrNotFound))
	require.Contains(t, err.Error(), "database is locked")
}

func TestGetOrBuild_ConcurrentMissesShareBuild(t *testing.T) {
	src := newSource()
	src.delay = 50 * time.Millisecond
	c := New(src, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrBuild(context.Background(), "U1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), src.calls.Load())
}

func TestGetOrBuild_CanceledCallerDoesNotFailOthers(t *testing.T) {
	src := newSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{})
	c := New(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.GetOrBuild(ctx, "U1")
		first <- err
	}()
	<-src.started

	second := make(chan error, 1)
	go func() {
		m, err := c.GetOrBuild(context.Background(), "U1")
		if err == nil && m.Messages() != 2 {
			err = fmt.Errorf("model has %d messages, want 2", m.Messages())
		}
		second <- err
	}()

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	time.Sleep(10 * time.Millisecond)
	close(src.gate)
	require.NoError(t, <-second)
	require.Equal(t, int32(1), src.calls.Load())
	require.Equal(t, 1, c.Len())
}

func TestReset(t *testing.T) {
	src := newSource()
	c := New(src, nil)

	_, err := c.GetOrBuild(context.Background(), "U1")
	require.NoError(t, err)
	c.Reset()
	require.Equal(t, 0, c.Len())

	_, err = c.GetOrBuild(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, int32(2), src.calls.Load())
}
