package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often Run checks for pending work.
const DefaultPollInterval = 50 * time.Millisecond

// Queue hands work from background producers to a single consumer loop.
// Producers call Post from any goroutine and never block; the consumer calls
// Poll (or Run) and so executes every task on its own goroutine.
type Queue struct {
	mu       sync.Mutex
	tasks    []func()
	log      zerolog.Logger
	interval time.Duration
}

// New creates an empty queue. A non-positive interval uses
// DefaultPollInterval.
func New(interval time.Duration, log zerolog.Logger) *Queue {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Queue{
		log:      log.With().Str("component", "queue").Logger(),
		interval: interval,
	}
}

// Post enqueues task. It never blocks and the queue is unbounded.
func (q *Queue) Post(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Poll runs at most one pending task on the caller's goroutine and reports
// whether one ran. A panicking task is logged and does not stop the
// consumer.
func (q *Queue) Poll() bool {
	q.mu.Lock()
	if len(q.tasks) == 0 {
		q.mu.Unlock()
		return false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.mu.Unlock()

	q.run(task)
	return true
}

// Drain runs pending tasks until the queue is empty and returns how many
// ran. Tasks posted while draining are run too.
func (q *Queue) Drain() int {
	n := 0
	for q.Poll() {
		n++
	}
	return n
}

func (q *Queue) run(task func()) {
	defer func() {
		if p := recover(); p != nil {
			q.log.Error().Interface("panic", p).Msg("queued task panicked")
		}
	}()
	task()
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Run is the consumer loop: one Poll per interval until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.log.Debug().Dur("interval", q.interval).Msg("queue consumer started")
	for {
		select {
		case <-ctx.Done():
			q.log.Debug().Int("pending", q.Len()).Msg("queue consumer stopped")
			return
		case <-ticker.C:
			q.Poll()
		}
	}
}
