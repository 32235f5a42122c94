package cluster

import (
	"sync/atomic"
	"testing"
)

func TestExecutorsVisitEveryIndexOnce(t *testing.T) {
	executors := map[string]Executor{
		"serial":          Serial{},
		"goroutines":      NewGoroutines(4, 3),
		"goroutines wide": NewGoroutines(64, 1),
		"pool":            NewPool(2, 5),
	}

	for name, exec := range executors {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{0, 1, 7, 100} {
				visits := make([]atomic.Int32, n)
				exec.ParallelFor(n, func(lo, hi int) {
					if lo >= hi {
						t.Errorf("empty range [%d, %d)", lo, hi)
					}
					for i := lo; i < hi; i++ {
						visits[i].Add(1)
					}
				})
				for i := range visits {
					if v := visits[i].Load(); v != 1 {
						t.Fatalf("n=%d: index %d visited %d times", n, i, v)
					}
				}
			}
		})
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		n, workers, grain int
		want              int
	}{
		{100, 4, 1, 25},
		{100, 4, 64, 64},
		{10, 3, 1, 4},
		{1, 8, 0, 1},
	}

	for _, tt := range tests {
		if got := batchSize(tt.n, tt.workers, tt.grain); got != tt.want {
			t.Errorf("batchSize(%d, %d, %d): expected %d, got %d", tt.n, tt.workers, tt.grain, tt.want, got)
		}
	}
}

func TestNewExecutor(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"serial", false},
		{"Goroutines", false},
		{"pool", false},
		{"gpu", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			exec, err := NewExecutor(tt.backend, 2, 0)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exec == nil {
				t.Error("expected executor")
			}
		})
	}
}

func TestPoolClose(t *testing.T) {
	p := NewPool(2, 1)

	var visits atomic.Int32
	p.ParallelFor(10, func(lo, hi int) { visits.Add(int32(hi - lo)) })

	CloseExecutor(p)
	p.Close()
	if !p.closed {
		t.Fatal("expected pool to be closed")
	}

	// Closed pools still finish the work, on the caller's goroutine.
	p.ParallelFor(10, func(lo, hi int) { visits.Add(int32(hi - lo)) })
	if v := visits.Load(); v != 20 {
		t.Errorf("expected 20 visits, got %d", v)
	}

	// Executors without workers are left alone.
	CloseExecutor(Serial{})
	CloseExecutor(NewGoroutines(2, 1))
}
