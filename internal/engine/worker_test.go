package engine

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scossar/tissue-sort/pkg/arena"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestWorker_StopsOnFlag(t *testing.T) {
	a := newArena(t, []float64{2, 1}, "")
	w := newWorker(a.SlotIDs()[0], a, time.Millisecond, testRNG())

	faults := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		w.run(context.Background(), faults)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	w.stop()

	// Shutdown latency is bounded by the step interval, not instantaneous:
	// the worker may be mid-sleep when asked to stop.
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("worker did not exit after stop()")
	}
	assert.Empty(t, faults)
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	a := newArena(t, []float64{1}, "")
	w := newWorker(a.SlotIDs()[0], a, time.Millisecond, testRNG())

	ctx, cancel := context.WithCancel(context.Background())
	faults := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		w.run(ctx, faults)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("worker did not exit after context cancellation")
	}
}

func TestWorker_SingleSlotNeverSwaps(t *testing.T) {
	// A one-slot arena has no neighbours in either direction; every
	// iteration is a boundary no-op.
	a := newArena(t, []float64{5}, "")
	w := newWorker(a.SlotIDs()[0], a, time.Millisecond, testRNG())

	faults := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		w.run(context.Background(), faults)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	w.stop()
	<-done

	assert.Equal(t, int64(0), w.Swaps())
	assert.Equal(t, []float64{5}, a.Snapshot())
	assert.Empty(t, faults)
}

func TestWorker_ReportsFault(t *testing.T) {
	// A worker bound to a slot ID the arena doesn't know is a programming
	// error: the worker must report it and exit, not loop on it.
	a := newArena(t, []float64{1, 2}, "")
	w := newWorker("not-a-slot", a, time.Millisecond, testRNG())

	faults := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		w.run(context.Background(), faults)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("worker did not exit after arena fault")
	}

	select {
	case err := <-faults:
		require.Error(t, err)
		assert.True(t, arena.IsUnknownSlot(err))
	default:
		t.Fatal("expected a fault to be reported")
	}
}

func TestWorker_CountsSwaps(t *testing.T) {
	a := newArena(t, []float64{9, 1}, "")
	w := newWorker(a.SlotIDs()[0], a, time.Millisecond, testRNG())

	faults := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		w.run(context.Background(), faults)
		close(done)
	}()

	// The slot holding 9 will eventually pick Right and swap with 1.
	deadline := time.After(500 * time.Millisecond)
	for w.Swaps() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never performed a swap")
		case <-time.After(time.Millisecond):
		}
	}

	w.stop()
	<-done

	// The pair oscillates under this comparison rule (9 swaps with a
	// smaller neighbour in either direction), so only the count and the
	// value multiset are deterministic.
	assert.GreaterOrEqual(t, w.Swaps(), int64(1))
	assert.ElementsMatch(t, []float64{1, 9}, a.Snapshot())
}
