// Package queue runs bulk imports over a bounded set of workers.
package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

const defaultWorkers = 4

// PrepareFunc transforms or checks one record. It runs on the workers, so it
// must be safe for concurrent use.
type PrepareFunc = func(context.Context, domain.Record) (domain.Record, error)

// CommitFunc writes one prepared record. It is never called concurrently
// and always sees records in input order.
type CommitFunc = func(context.Context, domain.Record) error

// Dispatcher prepares records on a fixed number of workers per call and
// commits them one at a time in input order. Each Dispatch starts its own
// workers and waits for them, so nothing outlives the request that
// triggered the import.
type Dispatcher struct {
	workers int
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers workers per batch.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{workers: numWorkers, log: log}
}

type job struct {
	row    int
	record domain.Record
}

type result struct {
	row    int
	record domain.Record
	err    error
}

// Dispatch runs prepare on every record concurrently, then commit on each
// prepared record in input order, and reports how many records were
// committed and how many failed. A nil prepare passes records through.
// Records not yet started when ctx is cancelled count as failed.
func (d *Dispatcher) Dispatch(ctx context.Context, records []domain.Record, prepare PrepareFunc, commit CommitFunc) (succeeded, failed int) {
	if len(records) == 0 {
		return 0, 0
	}
	n := d.workers
	if n > len(records) {
		n = len(records)
	}

	// window caps how far preparation may run ahead of the commit cursor.
	window := make(chan struct{}, 2*n)
	jobs := make(chan job)
	results := make(chan result, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.runWorker(ctx, id, jobs, results, prepare)
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go feed(ctx, records, jobs, window)

	pending := make(map[int]result)
	next := 0
	for r := range results {
		pending[r.row] = r
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if d.commitOne(ctx, p, commit) {
				succeeded++
			} else {
				failed++
			}
			<-window
			next++
		}
	}

	skipped := len(records) - next
	if skipped > 0 {
		d.log.Warn().Err(ctx.Err()).Int("skipped", skipped).Msg("import cancelled")
	}
	return succeeded, failed + skipped
}

func feed(ctx context.Context, records []domain.Record, jobs chan<- job, window chan struct{}) {
	defer close(jobs)
	for i, rec := range records {
		select {
		case <-ctx.Done():
			return
		case window <- struct{}{}:
		}
		select {
		case <-ctx.Done():
			<-window
			return
		case jobs <- job{row: i, record: rec}:
		}
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, jobs <-chan job, results chan<- result, prepare PrepareFunc) {
	for j := range jobs {
		rec, err := j.record, error(nil)
		if prepare != nil {
			rec, err = prepare(ctx, j.record)
		}
		if err != nil {
			d.log.Debug().Err(err).
				Int("row", j.row+1).
				Int("worker_id", id).
				Msg("import row rejected")
		}
		results <- result{row: j.row, record: rec, err: err}
	}
}

func (d *Dispatcher) commitOne(ctx context.Context, r result, commit CommitFunc) bool {
	if r.err != nil {
		return false
	}
	if err := commit(ctx, r.record); err != nil {
		d.log.Debug().Err(err).Int("row", r.row+1).Msg("import row failed")
		return false
	}
	return true
}
