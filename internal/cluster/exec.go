package cluster

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// DefaultGrain is the minimum number of clusters handed to one worker.
const DefaultGrain = 64

// Executor runs body over [0, n) split into disjoint [lo, hi) ranges and
// returns once every range is done. Ranges may run concurrently, so body must
// only write state owned by its own indices.
type Executor interface {
	ParallelFor(n int, body func(lo, hi int))
}

// Serial runs everything on the calling goroutine.
type Serial struct{}

// ParallelFor implements Executor.
func (Serial) ParallelFor(n int, body func(lo, hi int)) {
	if n > 0 {
		body(0, n)
	}
}

// batchSize spreads n items over workers without going below grain.
func batchSize(n, workers, grain int) int {
	per := (n + workers - 1) / workers
	return max(per, grain, 1)
}

// Goroutines fans ranges out to fresh goroutines and waits on a WaitGroup.
type Goroutines struct {
	workers int
	grain   int
}

// NewGoroutines creates a goroutine executor. workers <= 0 uses GOMAXPROCS,
// grain <= 0 uses DefaultGrain.
func NewGoroutines(workers, grain int) *Goroutines {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if grain <= 0 {
		grain = DefaultGrain
	}
	return &Goroutines{workers: workers, grain: grain}
}

// ParallelFor implements Executor.
func (g *Goroutines) ParallelFor(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	batch := batchSize(n, g.workers, g.grain)
	if batch >= n {
		body(0, n)
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += batch {
		hi := min(lo+batch, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			body(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// Pool submits ranges to a long-lived dynamic worker pool so frames do not pay
// for goroutine start-up. A WaitGroup provides the per-call barrier.
type Pool struct {
	pool    worker.DynamicWorkerPool
	workers int
	grain   int
	nextID  int
	closed  bool
}

// NewPool creates a pool executor. Workers live until Close.
func NewPool(workers, grain int) *Pool {
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	if grain <= 0 {
		grain = DefaultGrain
	}
	return &Pool{
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
		grain:   grain,
	}
}

// ParallelFor implements Executor. Not safe for concurrent calls.
func (p *Pool) ParallelFor(n int, body func(lo, hi int)) {
	if n <= 0 {
		return
	}
	batch := batchSize(n, p.workers, p.grain)
	if batch >= n || p.closed {
		body(0, n)
		return
	}

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += batch {
		hi := min(lo+batch, n)
		wg.Add(1)
		loCap, hiCap := lo, hi // capture for closure
		id := p.nextID
		p.nextID++
		p.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				body(loCap, hiCap)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// Close stops the pool's workers. Later ParallelFor calls run serially.
func (p *Pool) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.pool.Stop()
}

// CloseExecutor releases exec's workers if it owns any.
func CloseExecutor(exec Executor) {
	if c, ok := exec.(interface{ Close() }); ok {
		c.Close()
	}
}

// Backend names accepted by NewExecutor.
const (
	BackendSerial     = "serial"
	BackendGoroutines = "goroutines"
	BackendPool       = "pool"
)

// NewExecutor builds an executor from its config name.
func NewExecutor(backend string, workers, grain int) (Executor, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendSerial:
		return Serial{}, nil
	case "", BackendGoroutines:
		return NewGoroutines(workers, grain), nil
	case BackendPool:
		return NewPool(workers, grain), nil
	default:
		return nil, fmt.Errorf("unknown parallel backend %q", backend)
	}
}
