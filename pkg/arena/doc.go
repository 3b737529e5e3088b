// Package arena provides the shared mutable state for a decentralized
// bubble sort: a fixed-length sequence of value-holding slots guarded by a
// single exclusive lock.
//
// # Overview
//
// The arena is the only shared resource in a tissue-sort run. Independent
// workers (see internal/engine) each own one slot identity and repeatedly
// attempt to improve local ordering by swapping with a randomly chosen
// neighbour. Every read and write of slot contents or positions happens
// inside the arena's single critical section, so any interleaving of
// workers' swap attempts is safe: a snapshot always reflects a state that
// existed at some single instant between swaps.
//
// # Core Concepts
//
// Slots hold a value and a permanent stubborn flag, and carry a UUID
// identity that survives swaps. The arena - not the worker - is the sole
// authority on a slot's current position: workers re-resolve "who is my
// neighbour" through the arena on every attempt rather than caching a
// position across iterations.
//
// Stubbornness is a per-slot exemption from swapping. Under the default
// StubbornRefusesInitiate mode a stubborn slot never initiates a swap but
// may still be moved passively by a neighbour; under StubbornImmovable it
// neither initiates nor accepts swaps.
//
// # Usage Example
//
//	import "github.com/scossar/tissue-sort/pkg/arena"
//
//	a, err := arena.New([]float64{3, 1, 2}, arena.StubbornRefusesInitiate)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Mark a slot stubborn before (or during) a run
//	if err := a.SetStubborn(1, true); err != nil {
//		log.Fatal(err)
//	}
//
//	// One worker iteration, as a single atomic operation
//	swapped, err := a.TrySwapNeighbor(a.SlotIDs()[0], arena.Right)
//
//	sorted := a.IsSorted()
//	values := a.Snapshot()
//
// # Design Principles
//
// - Single lock: simplicity over throughput; no per-slot locking
// - Linearizability: swap and snapshot never interleave partially
// - Fail fast: out-of-range indices and unknown slot IDs are programming
//   errors surfaced as descriptive errors, never silent no-ops
// - Conservation: the multiset of values is invariant under any number of swaps
package arena
