package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := New(2, 4)
	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		ok := p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			n.Add(1)
		})
		if !ok {
			wg.Done()
		}
	}
	wg.Wait()
	p.Close()
	assert.Positive(t, n.Load())
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	p := New(1, 1)
	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, p.Submit(context.Background(), func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	assert.True(t, p.Submit(context.Background(), func(context.Context) {}))
	assert.False(t, p.Submit(context.Background(), func(context.Context) {}))
	close(release)
	p.Close()
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	p := New(1, 2)
	done := make(chan struct{})
	assert.True(t, p.Submit(context.Background(), func(context.Context) { panic("boom") }))
	assert.True(t, p.Submit(context.Background(), func(context.Context) { close(done) }))
	<-done
	p.Close()
}

func TestJobSeesCancelledContext(t *testing.T) {
	p := New(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var got atomic.Value
	assert.True(t, p.Submit(ctx, func(ctx context.Context) { got.Store(ctx.Err()) }))
	p.Close()
	assert.ErrorIs(t, got.Load().(error), context.Canceled)
}

func TestSubmitAfterClose(t *testing.T) {
	p := New(1, 1)
	p.Close()
	p.Close()
	assert.False(t, p.Submit(context.Background(), func(context.Context) {}))
}
