package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent document fetches for one game.
const DefaultWorkers = 4

// Request names one document to fetch.
type Request struct {
	Key string
	URL string
}

// Result is the outcome of one Request. A failed document does not fail its
// siblings; callers decide which pages are mandatory.
type Result struct {
	Body []byte
	Err  error
}

// Pool fetches a batch of documents concurrently.
type Pool struct {
	fetcher Fetcher
	workers int
}

// NewPool returns a pool running at most workers fetches at once.
func NewPool(f Fetcher, workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{fetcher: f, workers: workers}
}

// FetchAll fetches every request and returns results keyed by Request.Key.
// The only error returned is the context's.
func (p *Pool) FetchAll(ctx context.Context, reqs []Request) (map[string]Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var mu sync.Mutex
	out := make(map[string]Result, len(reqs))

	for _, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			body, err := p.fetcher.Fetch(gctx, req.URL)
			mu.Lock()
			out[req.Key] = Result{Body: body, Err: err}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, ctx.Err()
}
