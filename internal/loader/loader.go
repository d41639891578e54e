package loader

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"physioeval/internal/domain"
)

// Stream names. Only the most recent request on a stream is delivered.
const (
	StreamList   = "list"
	StreamDetail = "detail"
)

// Source is the query side the loader reads from
type Source interface {
	List(ctx context.Context, q domain.ListQuery) ([]domain.Summary, error)
	Get(ctx context.Context, id int64) (domain.FieldMap, error)
}

// Poster accepts tasks for the consumer goroutine. hub.Queue implements it.
type Poster interface {
	Post(task func())
}

// Loader runs queries off the consumer goroutine and posts their results
// back through a Poster. Results of superseded requests are dropped when
// they reach the consumer, so a slow early search never overwrites a newer
// one.
type Loader struct {
	src Source
	out Poster
	log zerolog.Logger

	mu     sync.Mutex
	latest map[string]string

	wg sync.WaitGroup
}

// New creates a loader reading from src and delivering through out
func New(src Source, out Poster, log zerolog.Logger) *Loader {
	return &Loader{
		src:    src,
		out:    out,
		log:    log.With().Str("component", "loader").Logger(),
		latest: make(map[string]string),
	}
}

// List loads summaries for q and calls deliver on the consumer goroutine.
// Returns the request id.
func (l *Loader) List(ctx context.Context, q domain.ListQuery, deliver func([]domain.Summary, error)) string {
	return l.start(ctx, StreamList, func(ctx context.Context) func() {
		rows, err := l.src.List(ctx, q)
		return func() { deliver(rows, err) }
	})
}

// Get loads one evaluation and calls deliver on the consumer goroutine. A
// missing id is delivered as a nil map with a nil error. Returns the
// request id.
func (l *Loader) Get(ctx context.Context, id int64, deliver func(domain.FieldMap, error)) string {
	return l.start(ctx, StreamDetail, func(ctx context.Context) func() {
		m, err := l.src.Get(ctx, id)
		return func() { deliver(m, err) }
	})
}

// start registers a new request as the latest on stream and runs load on
// its own goroutine. load returns the delivery closure.
func (l *Loader) start(ctx context.Context, stream string, load func(context.Context) func()) string {
	id := uuid.NewString()

	l.mu.Lock()
	l.latest[stream] = id
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		deliver := load(ctx)
		l.out.Post(func() {
			if !l.IsLatest(stream, id) {
				l.log.Debug().Str("stream", stream).Str("request_id", id).Msg("dropping stale result")
				return
			}
			deliver()
		})
	}()

	l.log.Debug().Str("stream", stream).Str("request_id", id).Msg("load started")
	return id
}

// IsLatest reports whether id is the most recent request on stream
func (l *Loader) IsLatest(stream, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest[stream] == id
}

// Wait blocks until every started load has posted its result
func (l *Loader) Wait() {
	l.wg.Wait()
}
