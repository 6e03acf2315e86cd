package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pthm-cable/stellar/field"
)

// job is one image to synthesize. Results are keyed by batch and slot so the
// frame thread can commit them in submission order.
type job struct {
	batch uint64
	slot  int
	name  string
	open  func(ctx context.Context) (io.ReadCloser, error)
}

type result struct {
	batch uint64
	slot  int
	name  string
	field *field.Field
	err   error
}

// Pool synthesizes fields in the background. Every result is a freshly
// allocated field; workers never see the live morph buffers.
type Pool struct {
	synth   *field.Synthesizer
	jobs    chan job
	results chan result
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewPool creates a pool with a bounded queue of queueSize jobs.
func NewPool(synth *field.Synthesizer, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		synth:   synth,
		jobs:    make(chan job, queueSize),
		results: make(chan result, queueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				r := p.process(ctx, j)
				select {
				case p.results <- r:
				case <-p.done:
					return
				}
			}
		}()
	}
}

// Stop closes the queue and waits for the workers. Pending results are
// discarded.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.done)
		close(p.jobs)
	})
	p.wg.Wait()
}

// Submit queues a job without blocking and reports whether it was accepted.
func (p *Pool) Submit(j job) bool {
	select {
	case p.jobs <- j:
		return true
	default:
		slog.Warn("synthesis queue full, dropping image", "name", j.name)
		return false
	}
}

// Results is drained by the frame thread.
func (p *Pool) Results() <-chan result { return p.results }

func (p *Pool) process(ctx context.Context, j job) result {
	r := result{batch: j.batch, slot: j.slot, name: j.name}
	rc, err := j.open(ctx)
	if err != nil {
		r.err = fmt.Errorf("opening %s: %w", j.name, err)
		return r
	}
	defer rc.Close()

	r.field, r.err = p.synth.Decode(rc, j.name)
	return r
}
