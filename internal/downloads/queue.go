package downloads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ytbridge/internal/domain/consts"
	"ytbridge/internal/domain/logger"
	"ytbridge/internal/metrics"
	"ytbridge/internal/models"
	"ytbridge/internal/validation"

	"github.com/google/uuid"
)

// ErrQueueStopped is the failure delivered for jobs the queue will never run.
var ErrQueueStopped = errors.New(consts.MsgQueueStopped)

// job is one queued download.
type job struct {
	id       uuid.UUID
	req      models.DownloadRequest
	queuedAt time.Time
	result   chan models.DownloadResult
	once     sync.Once
}

// complete delivers res and closes the result channel. Only the first call has any effect.
func (j *job) complete(res models.DownloadResult) {
	j.once.Do(func() {
		j.result <- res
		close(j.result)
	})
}

// Queue feeds download requests to a single worker, strictly in submission order.
type Queue struct {
	orch *Orchestrator

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	jobs     []*job
	started  bool
	stopping bool

	wake chan struct{}
	done chan struct{}
}

// NewQueue returns a stopped queue running jobs through orch.
func NewQueue(orch *Orchestrator) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		orch:   orch,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. Calling it again has no effect.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopping {
		return
	}
	q.started = true
	go q.work()
}

// Submit queues a download and returns immediately. The returned channel receives
// exactly one result and is then closed.
//
// Invalid requests are answered at once without entering the queue.
func (q *Queue) Submit(url, format string) <-chan models.DownloadResult {
	j := &job{
		id:       uuid.New(),
		queuedAt: time.Now(),
		result:   make(chan models.DownloadResult, 1),
	}

	req, err := validation.ValidateRequest(models.DownloadRequest{URL: url, Format: format})
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues(metrics.StatusInvalid).Inc()
		j.complete(models.Failure(err.Error()))
		return j.result
	}
	j.req = req

	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		j.complete(models.FailureFromError(ErrQueueStopped))
		return j.result
	}
	q.jobs = append(q.jobs, j)
	depth := len(q.jobs)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	logger.Pl.Debug().
		Str("job", j.id.String()).
		Str("url", req.URL).
		Int("queued", depth).
		Msg("Queued download")

	q.signal()
	return j.result
}

// Stop refuses new jobs and waits for the worker to drain the queue. If ctx ends first,
// the running download is interrupted, queued jobs fail, and ctx's error is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.stopping = true
	started := q.started
	q.mu.Unlock()

	if !started {
		q.failPending()
		q.cancel()
		return nil
	}
	q.signal()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.failPending()
		q.cancel()
		<-q.done
		return fmt.Errorf("download queue did not drain: %w", ctx.Err())
	}
}

// Private ////////////////////////////////////////////////////////////////////////////////////////////

// work is the worker loop.
func (q *Queue) work() {
	defer close(q.done)

	for {
		j, ok := q.next()
		if !ok {
			return
		}
		q.runJob(j)
	}
}

// next blocks until a job is available. It reports false once the queue is stopping
// and empty.
func (q *Queue) next() (*job, bool) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			j := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			depth := len(q.jobs)
			q.mu.Unlock()

			metrics.QueueDepth.Set(float64(depth))
			return j, true
		}
		if q.stopping {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()

		<-q.wake
	}
}

// runJob runs j, turning a panic into a failed result.
func (q *Queue) runJob(j *job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Pl.Error().Str("job", j.id.String()).Interface("panic", r).Msg("Download panicked")
			j.complete(models.Failure(fmt.Sprintf("download panicked: %v", r)))
		}
	}()

	if q.ctx.Err() != nil {
		j.complete(models.FailureFromError(ErrQueueStopped))
		return
	}

	logger.Pl.Info().
		Str("job", j.id.String()).
		Str("url", j.req.URL).
		Str("format", j.req.Format).
		Dur("waited", time.Since(j.queuedAt)).
		Msg("Starting download")

	j.complete(q.orch.run(q.ctx, j.req))
}

// failPending completes every queued job with ErrQueueStopped.
func (q *Queue) failPending() {
	q.mu.Lock()
	pending := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	metrics.QueueDepth.Set(0)
	for _, j := range pending {
		j.complete(models.FailureFromError(ErrQueueStopped))
	}
}

// signal wakes the worker without blocking.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
