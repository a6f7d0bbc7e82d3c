package driver

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWithLockSerializesSameName(t *testing.T) {
	table := newLockTable()

	var running int32
	var sawOverlap int32

	run := func() {
		table.withLock("vol", func() error {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&sawOverlap, 1)
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run()
		}()
	}
	wg.Wait()

	if sawOverlap != 0 {
		t.Fatal("operations on the same name overlapped")
	}
}

func TestWithLockAllowsDistinctNamesInParallel(t *testing.T) {
	table := newLockTable()

	var entered int32
	proceed := make(chan struct{})
	var wg sync.WaitGroup

	for _, name := range []string{"a", "b"} {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			table.withLock(name, func() error {
				if atomic.AddInt32(&entered, 1) == 2 {
					close(proceed)
				}
				select {
				case <-proceed:
				case <-time.After(time.Second):
					t.Errorf("timeout waiting for the other name's critical section to start")
				}
				return nil
			})
		}()
	}

	wg.Wait()
}

func TestWithLockPropagatesError(t *testing.T) {
	table := newLockTable()
	wantErr := errBoom{}

	err := table.withLock("x", func() error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
