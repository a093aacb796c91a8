package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"investment_tracker/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type denyGuard struct {
	err  error
	keys []string
}

func (g *denyGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.keys = append(g.keys, key)
	return false, g.err
}

type grantGuard struct {
	mu   sync.Mutex
	keys []string
}

func (g *grantGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, key)
	return true, nil
}

var monthly = Schedule{DayOfMonth: 1, Hour: 10, Minute: 0, Location: time.UTC, CheckInterval: time.Hour}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func countingJob(calls *atomic.Int32) Job {
	return func(context.Context) model.BatchResult {
		calls.Add(1)
		return model.BatchResult{Users: 1, Sent: 1}
	}
}

func TestScheduler_Step_FiresOncePerInstant(t *testing.T) {
	clock := &fakeClock{now: at("2024-02-29T23:30:00Z")}
	var calls atomic.Int32
	s := New(monthly, countingJob(&calls), WithClock(clock))

	for _, tick := range []string{"2024-03-01T00:30:00Z", "2024-03-01T09:30:00Z"} {
		clock.Set(at(tick))
		fired, err := s.Step(context.Background())
		require.NoError(t, err)
		assert.False(t, fired, tick)
	}

	clock.Set(at("2024-03-01T10:30:00Z"))
	fired, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)

	clock.Set(at("2024-03-01T11:30:00Z"))
	fired, err = s.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateIdle, s.Status().State)
}

func TestScheduler_Step_ExactInstantFires(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T09:00:00Z")}
	var calls atomic.Int32
	s := New(monthly, countingJob(&calls), WithClock(clock))

	clock.Set(at("2024-03-01T10:00:00Z"))
	fired, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestScheduler_Step_NoBackfillBeforeStart(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T10:30:00Z")}
	var calls atomic.Int32
	s := New(monthly, countingJob(&calls), WithClock(clock))

	clock.Set(at("2024-03-01T11:30:00Z"))
	fired, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Zero(t, calls.Load())
}

func TestScheduler_Step_LongGapFiresOnce(t *testing.T) {
	clock := &fakeClock{now: at("2024-01-15T00:00:00Z")}
	var calls atomic.Int32
	s := New(monthly, countingJob(&calls), WithClock(clock))

	clock.Set(at("2024-05-20T00:00:00Z"))
	fired, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_Step_YearBoundaryAndLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	schedule := Schedule{DayOfMonth: 1, Hour: 10, Location: kolkata}

	clock := &fakeClock{now: at("2024-12-31T23:00:00Z")}
	var calls atomic.Int32
	s := New(schedule, countingJob(&calls), WithClock(clock))

	// 10:00 IST on Jan 1st is 04:30 UTC
	clock.Set(at("2025-01-01T04:00:00Z"))
	fired, _ := s.Step(context.Background())
	assert.False(t, fired)

	clock.Set(at("2025-01-01T05:00:00Z"))
	fired, err = s.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, at("2025-02-01T04:30:00Z"), s.NextRun(clock.Now()).UTC())
}

func TestScheduler_Step_GuardDenies(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T09:00:00Z")}
	var calls atomic.Int32
	guard := &denyGuard{}
	s := New(monthly, countingJob(&calls), WithClock(clock), WithGuard(guard))

	clock.Set(at("2024-03-01T10:30:00Z"))
	fired, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, []string{"2024-03"}, guard.keys)
	assert.Zero(t, calls.Load())
}

func TestScheduler_Step_GuardErrorSkips(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T09:00:00Z")}
	var calls atomic.Int32
	boom := errors.New("redis down")
	s := New(monthly, countingJob(&calls), WithClock(clock), WithGuard(&denyGuard{err: boom}))

	clock.Set(at("2024-03-01T10:30:00Z"))
	fired, err := s.Step(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, fired)

	clock.Set(at("2024-03-01T11:30:00Z"))
	fired, err = s.Step(context.Background())
	assert.NoError(t, err)
	assert.False(t, fired)
	assert.Zero(t, calls.Load())
}

func TestScheduler_TriggerNow_RejectsConcurrentFiring(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(monthly, func(context.Context) model.BatchResult {
		close(started)
		<-release
		return model.BatchResult{Sent: 2}
	})

	done := make(chan model.BatchResult)
	go func() {
		res, _ := s.TriggerNow(context.Background())
		done <- res
	}()
	<-started

	assert.Equal(t, StateFiring, s.Status().State)
	_, err := s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyFiring)

	close(release)
	res := <-done
	assert.Equal(t, 2, res.Sent)

	st := s.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, TriggerManual, st.LastTrigger)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 2, st.LastResult.Sent)
	assert.NotNil(t, st.LastFiredAt)
}

func TestScheduler_Step_RetriesInstantAfterManualRun(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T09:00:00Z")}
	guard := &grantGuard{}
	var calls atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	s := New(monthly, func(context.Context) model.BatchResult {
		if calls.Add(1) == 1 {
			started <- struct{}{}
			<-release
		}
		return model.BatchResult{Sent: 1}
	}, WithClock(clock), WithGuard(guard))

	done := make(chan error)
	go func() {
		_, err := s.TriggerNow(context.Background())
		done <- err
	}()
	<-started

	clock.Set(at("2024-03-01T10:30:00Z"))
	fired, err := s.Step(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyFiring)
	assert.False(t, fired)
	assert.Empty(t, guard.keys)
	assert.Equal(t, at("2024-03-01T09:00:00Z"), s.Status().LastCheck)

	close(release)
	require.NoError(t, <-done)

	clock.Set(at("2024-03-01T11:30:00Z"))
	fired, err = s.Step(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, []string{"2024-03"}, guard.keys)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, TriggerSchedule, s.Status().LastTrigger)

	clock.Set(at("2024-03-01T12:30:00Z"))
	fired, err = s.Step(context.Background())
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestScheduler_Step_GuardDenialReleasesState(t *testing.T) {
	clock := &fakeClock{now: at("2024-03-01T09:00:00Z")}
	var calls atomic.Int32
	s := New(monthly, countingJob(&calls), WithClock(clock), WithGuard(&denyGuard{}))

	clock.Set(at("2024-03-01T10:30:00Z"))
	_, err := s.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.Status().State)

	_, err = s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_JobPanicReturnsToIdle(t *testing.T) {
	var calls atomic.Int32
	s := New(monthly, func(context.Context) model.BatchResult {
		if calls.Add(1) == 1 {
			panic("nil map")
		}
		return model.BatchResult{}
	})

	_, err := s.TriggerNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked: nil map")
	assert.Equal(t, StateIdle, s.Status().State)
	assert.Contains(t, s.Status().LastError, "nil map")

	_, err = s.TriggerNow(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, s.Status().LastError)
}

func TestScheduler_JobErrorIsReported(t *testing.T) {
	listErr := errors.New("failed to list users with investments")
	s := New(monthly, func(context.Context) model.BatchResult {
		return model.BatchResult{Err: listErr}
	})

	_, err := s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, listErr)
	assert.Equal(t, listErr.Error(), s.Status().LastError)
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	s := New(Schedule{DayOfMonth: 1, CheckInterval: 10 * time.Millisecond}, func(context.Context) model.BatchResult {
		return model.BatchResult{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_NextRun(t *testing.T) {
	s := New(Schedule{DayOfMonth: 15, Hour: 8, Minute: 30}, nil)

	assert.Equal(t, at("2024-03-15T08:30:00Z"), s.NextRun(at("2024-03-01T00:00:00Z")))
	assert.Equal(t, at("2024-04-15T08:30:00Z"), s.NextRun(at("2024-03-15T08:30:00Z")))
	assert.Equal(t, at("2025-01-15T08:30:00Z"), s.NextRun(at("2024-12-20T00:00:00Z")))
}
