package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPoller struct {
	mu    sync.Mutex
	polls int
	err   error
}

func (p *countingPoller) Poll(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	return p.polls > 1, p.err
}

func (p *countingPoller) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func TestProductWatchWorkerPollsOnInterval(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	poller := &countingPoller{err: errors.New("db gone")}
	w := NewProductWatchWorker(poller, 5*time.Second, quietLogger())
	w.Clock = clk

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, clk.WaitAdvance(5*time.Second, time.Second, 1))
	require.NoError(t, clk.WaitAdvance(5*time.Second, time.Second, 1))
	assert.Eventually(t, func() bool { return poller.count() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type recordingSweeper struct {
	mu    sync.Mutex
	idles []time.Duration
}

func (s *recordingSweeper) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idles = append(s.idles, idle)
	return 1
}

func (s *recordingSweeper) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.idles)
}

func TestDashboardSweeper(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	reg := &recordingSweeper{}
	s := NewDashboardSweeper(reg, 2*time.Minute, quietLogger())
	s.Clock = clk

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	require.NoError(t, clk.WaitAdvance(30*time.Second, time.Second, 1))
	assert.Eventually(t, func() bool { return reg.calls() == 1 }, time.Second, 5*time.Millisecond)
	reg.mu.Lock()
	assert.Equal(t, 2*time.Minute, reg.idles[0])
	reg.mu.Unlock()
}
