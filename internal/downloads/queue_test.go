package downloads

import (
	"context"
	"testing"
	"time"

	"ytbridge/internal/command/execute"
	"ytbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan models.DownloadResult) models.DownloadResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		require.True(t, ok, "result channel closed without a result")
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return models.DownloadResult{}
	}
}

func TestQueue_DeliversExactlyOneResult(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, &fakeRunner{out: execute.Outcome{Output: "done"}}, nil)
	q := NewQueue(o)
	q.Start()
	defer q.Stop(context.Background())

	ch := q.Submit("https://example.com/v", "mp3")
	assert.Equal(t, models.DownloadResult{Success: true, Message: "Completed.\ndone"}, receive(t, ch))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after the result")
}

func TestQueue_SubmitReturnsImmediately(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{block: make(chan struct{})}
	o, _ := newTestOrchestrator(t, r, nil)
	q := NewQueue(o)
	q.Start()

	start := time.Now()
	ch := q.Submit("https://example.com/v", "mkv")
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-ch:
		t.Fatal("result delivered before the tool finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(r.block)
	assert.True(t, receive(t, ch).Success)
	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_RunsSequentially(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{delay: 20 * time.Millisecond}
	o, _ := newTestOrchestrator(t, r, nil)
	q := NewQueue(o)
	q.Start()

	urls := []string{"https://a.example/1", "https://b.example/2", "https://c.example/3", "https://d.example/4"}
	var chans []<-chan models.DownloadResult
	for _, u := range urls {
		chans = append(chans, q.Submit(u, "mp4"))
	}
	for _, ch := range chans {
		assert.True(t, receive(t, ch).Success)
	}
	require.NoError(t, q.Stop(context.Background()))

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 1, r.maxRunning, "downloads overlapped")
	require.Len(t, r.argvs, len(urls))
	for i, u := range urls {
		assert.Contains(t, r.argvs[i], u, "run %d out of order", i)
	}
}

func TestQueue_InvalidRequestsSkipQueue(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{}
	o, _ := newTestOrchestrator(t, r, nil)
	q := NewQueue(o)

	// Not started: invalid requests still complete.
	assert.Equal(t, models.Failure("URL is required"), receive(t, q.Submit("", "mp4")))
	assert.Equal(t, models.Failure("Unsupported format: avi"), receive(t, q.Submit("https://x", "avi")))
	assert.Empty(t, r.calls())
}

func TestQueue_StopDrains(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{delay: 10 * time.Millisecond}
	o, _ := newTestOrchestrator(t, r, nil)
	q := NewQueue(o)
	q.Start()

	first := q.Submit("https://example.com/1", "mp3")
	second := q.Submit("https://example.com/2", "mp3")

	require.NoError(t, q.Stop(context.Background()))
	assert.True(t, receive(t, first).Success)
	assert.True(t, receive(t, second).Success)

	late := q.Submit("https://example.com/3", "mp3")
	assert.Equal(t, models.Failure("download queue stopped"), receive(t, late))
	assert.Len(t, r.calls(), 2)
}

func TestQueue_StopDeadlineInterrupts(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{block: make(chan struct{})}
	o, _ := newTestOrchestrator(t, r, nil)
	q := NewQueue(o)
	q.Start()

	running := q.Submit("https://example.com/1", "mp3")
	require.Eventually(t, func() bool { return len(r.calls()) == 1 }, 2*time.Second, 5*time.Millisecond)
	queued := q.Submit("https://example.com/2", "mp3")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	res := receive(t, running)
	assert.False(t, res.Success)
	assert.Equal(t, models.Failure("download queue stopped"), receive(t, queued))
	assert.Len(t, r.calls(), 1)
}

func TestQueue_StopWithoutStart(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, &fakeRunner{}, nil)
	q := NewQueue(o)

	ch := q.Submit("https://example.com/1", "flac")
	require.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, models.Failure("download queue stopped"), receive(t, ch))

	// Start after Stop does nothing.
	q.Start()
	assert.Equal(t, models.Failure("download queue stopped"), receive(t, q.Submit("https://example.com/2", "flac")))
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, []string) (execute.Outcome, error) {
	panic("boom")
}

func TestQueue_RecoversPanics(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(t, panicRunner{}, nil)
	q := NewQueue(o)
	q.Start()
	defer q.Stop(context.Background())

	res := receive(t, q.Submit("https://example.com/1", "mp3"))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "boom")

	// The worker survives.
	res = receive(t, q.Submit("https://example.com/2", "mp3"))
	assert.False(t, res.Success)
}
