package engine

import (
	"context"
	"log"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/scossar/tissue-sort/pkg/arena"
)

// Worker is an autonomous concurrency unit bound to one slot identity.
// On each iteration it picks a random neighbour direction and asks the
// arena to perform the whole compare-and-swap attempt atomically. The
// worker never caches its own position: the arena re-resolves it under the
// lock on every attempt, so another worker swapping this slot between
// iterations cannot leave the worker acting on a stale index.
//
// Workers do not self-terminate on reaching a sorted state; they run until
// the coordinator clears their active flag.
type Worker struct {
	slotID   string
	arena    *arena.Arena
	interval time.Duration
	rng      *rand.Rand

	// active is read at the top of every iteration, outside the arena lock,
	// so it must be an atomic rather than a plain shared bool.
	active atomic.Bool

	swaps atomic.Int64
}

// newWorker creates a worker bound to the given slot. The worker owns its
// RNG so swap attempts never contend on a shared random source.
func newWorker(slotID string, a *arena.Arena, interval time.Duration, rng *rand.Rand) *Worker {
	w := &Worker{
		slotID:   slotID,
		arena:    a,
		interval: interval,
		rng:      rng,
	}
	w.active.Store(true)
	return w
}

// SlotID returns the identity of the slot this worker is bound to.
func (w *Worker) SlotID() string {
	return w.slotID
}

// Swaps returns the number of swaps this worker has initiated.
func (w *Worker) Swaps() int64 {
	return w.swaps.Load()
}

// stop requests graceful termination. The worker observes the flag at the
// top of its next iteration, so shutdown latency is bounded by the step
// interval, not instantaneous.
func (w *Worker) stop() {
	w.active.Store(false)
}

// run is the worker's main loop. It exits when the active flag is cleared,
// the context is cancelled, or the arena reports a fault (an unknown slot
// or range error is a programming error that aborts the whole run, so it
// is forwarded to the coordinator via faults).
func (w *Worker) run(ctx context.Context, faults chan<- error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if !w.active.Load() {
			return
		}

		dir := arena.Left
		if w.rng.IntN(2) == 1 {
			dir = arena.Right
		}

		swapped, err := w.arena.TrySwapNeighbor(w.slotID, dir)
		if err != nil {
			log.Printf("[ERROR] Worker for slot %s: swap attempt failed: %v", w.slotID, err)
			select {
			case faults <- err:
			default:
				// A fault is already pending; the run is aborting anyway.
			}
			return
		}
		if swapped {
			w.swaps.Add(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
