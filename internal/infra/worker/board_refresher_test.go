package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) (bool, error) {
	c.calls.Add(1)
	_, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return false, errors.New("missing deadline")
	}
	return c.err == nil, c.err
}

func TestBoardRefresher_TicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRefresher{}
	w := NewBoardRefresher(r, 5*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestBoardRefresher_DisabledInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRefresher{}
	w := NewBoardRefresher(r, 0, 0, nil)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled refresher should return immediately")
	}
	assert.Zero(t, r.calls.Load())
}

func TestBoardRefresher_ErrorsDoNotStopLoop(t *testing.T) {
	r := &countingRefresher{err: errors.New("backend down")}
	w := NewBoardRefresher(r, 2*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, time.Millisecond)
}
