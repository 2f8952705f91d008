package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

type fakeChecker struct {
	mu      sync.Mutex
	calls   int
	results []domain.BackgroundCheckResult
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeChecker) BackgroundCheck(context.Context) domain.BackgroundCheckResult {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if i < len(f.results) {
		return f.results[i]
	}
	return domain.BackgroundCheckResult{Success: true}
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testScheduler(c Checker, n Notifier, clk clockwork.Clock) *Scheduler {
	return New(10*time.Minute, c, n, clk,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestRunNow_FollowUpOnDanger(t *testing.T) {
	checker := &fakeChecker{results: []domain.BackgroundCheckResult{
		{Success: true, NewDanger: true},
		{Success: true},
		{Error: "location unavailable"},
	}}
	notifier := &fakeNotifier{}
	s := testScheduler(checker, notifier, clockwork.NewFakeClock())

	res, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NewDanger)
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "Danger Alert!", notifier.sent[0].Title)
	assert.Equal(t, domain.CategoryBackground, notifier.sent[0].Category)

	_, err = s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count(), "no follow-up without danger")

	res, err = s.RunNow(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, notifier.count(), "no follow-up on failure")

	state := s.Snapshot()
	assert.Equal(t, 3, state.Runs)
	assert.Equal(t, "location unavailable", state.LastError)
	assert.Equal(t, "manual", state.LastTrigger)
	assert.False(t, state.Running)
}

func TestRunNow_NoOverlap(t *testing.T) {
	checker := &fakeChecker{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := testScheduler(checker, &fakeNotifier{}, clockwork.NewFakeClock())

	done := make(chan struct{})
	go func() {
		_, _ = s.RunNow(context.Background())
		close(done)
	}()
	<-checker.entered

	_, err := s.RunNow(context.Background())
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, s.Snapshot().Running)

	close(checker.block)
	<-done
	assert.Equal(t, 1, checker.count())
}

func TestRun_ChecksOnStartupAndEveryInterval(t *testing.T) {
	checker := &fakeChecker{}
	clk := clockwork.NewFakeClock()
	s := testScheduler(checker, &fakeNotifier{}, clk)

	require.Error(t, s.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	require.NoError(t, clk.BlockUntilContext(waitCtx, 1))
	require.Eventually(t, func() bool { return s.CheckReadiness(context.Background()) == nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, checker.count())

	clk.Advance(10 * time.Minute)
	require.Eventually(t, func() bool { return checker.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
