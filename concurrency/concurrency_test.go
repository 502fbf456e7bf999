package concurrency_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/f0rbit/corpus/concurrency"
)

func TestPermitLimitsInFlight(t *testing.T) {
	ctx := context.Background()
	p := concurrency.NewPermit(2)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(ctx); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			p.Release()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", got)
	}
}

func TestPermitFIFOWakeOrder(t *testing.T) {
	ctx := context.Background()
	p := concurrency.NewPermit(1)
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(ctx); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			p.Release()
		}()
		// Serialize enqueue order so arrival order is deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	p.Release()
	wg.Wait()

	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			t.Fatalf("wake order not FIFO: %v", order)
		}
	}
}

func TestPermitAcquireCancel(t *testing.T) {
	p := concurrency.NewPermit(1)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cancelled acquire: %v", err)
	}

	// The permit released afterwards must still be acquirable.
	p.Release()
	if !p.TryAcquire() {
		t.Error("permit lost after cancelled waiter")
	}
}

func TestTryAcquire(t *testing.T) {
	p := concurrency.NewPermit(1)
	if !p.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if p.TryAcquire() {
		t.Fatal("second TryAcquire succeeded on exhausted permit")
	}
	p.Release()
	if !p.TryAcquire() {
		t.Fatal("TryAcquire failed after release")
	}
}

func TestParallelMapPreservesOrder(t *testing.T) {
	ctx := context.Background()
	items := []int{5, 4, 3, 2, 1}

	got, err := concurrency.ParallelMap(ctx, 2, items, func(_ context.Context, n int) (int, error) {
		// Later items finish first; order must still follow the input.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	if err != nil {
		t.Fatalf("parallel map: %v", err)
	}
	for i, n := range items {
		if got[i] != n*10 {
			t.Fatalf("result order broken: %v", got)
		}
	}
}

func TestParallelMapBoundsConcurrency(t *testing.T) {
	ctx := context.Background()
	var inFlight, peak int32

	_, err := concurrency.ParallelMap(ctx, 3, make([]struct{}, 20), func(context.Context, struct{}) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("parallel map: %v", err)
	}
	if got := atomic.LoadInt32(&peak); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestParallelMapFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := concurrency.ParallelMap(ctx, 2, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}
