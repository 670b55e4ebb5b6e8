package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return e
}

func TestEngine_Do_ReturnsTaskError(t *testing.T) {
	e := startEngine(t)
	want := errors.New("boom")

	err := e.Do(context.Background(), "fail", func() error { return want })
	assert.ErrorIs(t, err, want)

	err = e.Do(context.Background(), "ok", func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, int64(2), e.Seq())
}

func TestEngine_Call_ReturnsValue(t *testing.T) {
	e := startEngine(t)

	v, err := Call(context.Background(), e, "answer", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestEngine_TasksNeverOverlap(t *testing.T) {
	e := startEngine(t)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Do(context.Background(), "work", func() error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				time.Sleep(100 * time.Microsecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "tasks must run one at a time")
	assert.Equal(t, int64(50), e.Seq())
}

func TestEngine_PanicBecomesError(t *testing.T) {
	e := startEngine(t)

	err := e.Do(context.Background(), "explode", func() error { panic("kaboom") })
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "explode", pe.Task)
	assert.NotEmpty(t, pe.Stack)

	// The loop keeps serving tasks.
	assert.NoError(t, e.Do(context.Background(), "after", func() error { return nil }))
}

func TestEngine_Do_AfterStop(t *testing.T) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	e.Stop()

	err := e.Do(context.Background(), "late", func() error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_Run_DrainsQueuedTasksOnStop(t *testing.T) {
	e := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	results := make(chan error, 1)
	go func() {
		results <- e.Do(context.Background(), "queued", func() error { return nil })
	}()
	require.Eventually(t, func() bool { return e.queue.Len() == 1 }, time.Second, time.Millisecond)

	e.Stop()
	require.NoError(t, e.Run(context.Background()))
	assert.NoError(t, <-results)
}

func TestEngine_Do_ContextCancelled(t *testing.T) {
	e := startEngine(t)

	release := make(chan struct{})
	go func() {
		_ = e.Do(context.Background(), "blocker", func() error {
			<-release
			return nil
		})
	}()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := e.Do(ctx, "waiting", func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
