package arena

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrIndexOutOfRange indicates a slot index outside [0, Len()).
// Out-of-range access is a programming error: the arena fails fast with a
// descriptive error rather than silently no-opping, so index-tracking bugs
// are not masked.
var ErrIndexOutOfRange = errors.New("slot index out of range")

// ErrUnknownSlot indicates a slot ID that does not belong to this arena.
var ErrUnknownSlot = errors.New("unknown slot ID")

// Arena is the ordered sequence of slots plus one exclusive lock guarding
// all reads and writes to slot contents and positions.
// The arena is thread-safe and is the sole authority on slot positions.
type Arena struct {
	mu    sync.Mutex
	slots []Slot
	byID  map[string]int // slot ID -> current position
	mode  StubbornMode
}

// New creates an arena holding the given values, one slot per value, in
// order. Each slot is assigned a fresh UUID identity and starts
// non-stubborn. An empty value sequence is a configuration error, fatal to
// the construction call. An empty mode defaults to StubbornRefusesInitiate.
func New(values []float64, mode StubbornMode) (*Arena, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("arena requires at least one value")
	}

	if mode == "" {
		mode = StubbornRefusesInitiate
	}
	if err := mode.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stubborn mode: %w", err)
	}

	slots := make([]Slot, len(values))
	byID := make(map[string]int, len(values))
	for i, v := range values {
		id := uuid.New().String()
		slots[i] = Slot{ID: id, Value: v}
		byID[id] = i
	}

	return &Arena{
		slots: slots,
		byID:  byID,
		mode:  mode,
	}, nil
}

// Len returns the fixed number of slots.
func (a *Arena) Len() int {
	// Length is fixed at construction, so no lock is needed.
	return len(a.slots)
}

// Mode returns the arena's stubborn-slot interpretation.
func (a *Arena) Mode() StubbornMode {
	return a.mode
}

// SlotIDs returns the slot identities in their current arena order.
// Typically called once after construction to bind one worker per slot.
func (a *Arena) SlotIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, len(a.slots))
	for i, s := range a.slots {
		ids[i] = s.ID
	}
	return ids
}

// Swap exchanges the contents of slots i and j (value, stubborn flag,
// identity) and updates the position index for both.
// Returns ErrIndexOutOfRange if either index is outside [0, Len()).
// The multiset of values is unchanged by a swap.
func (a *Arena) Swap(i, j int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.swapLocked(i, j)
}

// swapLocked performs the exchange. Caller must hold a.mu.
func (a *Arena) swapLocked(i, j int) error {
	if i < 0 || i >= len(a.slots) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, len(a.slots))
	}
	if j < 0 || j >= len(a.slots) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, j, len(a.slots))
	}

	a.slots[i], a.slots[j] = a.slots[j], a.slots[i]
	a.byID[a.slots[i].ID] = i
	a.byID[a.slots[j].ID] = j
	return nil
}

// Snapshot returns a copy of the current ordered sequence of values.
// The copy reflects a state that existed at a single instant between swaps;
// it is never a live, mutable alias of the arena's storage.
func (a *Arena) Snapshot() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	values := make([]float64, len(a.slots))
	for i, s := range a.slots {
		values[i] = s.Value
	}
	return values
}

// SnapshotSlots returns a copy of the current slots, including identities
// and stubborn flags. Useful for display and debugging.
func (a *Arena) SnapshotSlots() []Slot {
	a.mu.Lock()
	defer a.mu.Unlock()

	slots := make([]Slot, len(a.slots))
	copy(slots, a.slots)
	return slots
}

// IsSorted reports whether every adjacent pair of a fresh snapshot satisfies
// values[k] <= values[k+1]. Arenas of length <= 1 are vacuously sorted.
func (a *Arena) IsSorted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 1; i < len(a.slots); i++ {
		if a.slots[i-1].Value > a.slots[i].Value {
			return false
		}
	}
	return true
}

// SetStubborn marks the slot currently at position i stubborn or
// non-stubborn. May be called before or during a run.
// Returns ErrIndexOutOfRange if i is outside [0, Len()).
func (a *Arena) SetStubborn(i int, stubborn bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < 0 || i >= len(a.slots) {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, len(a.slots))
	}
	a.slots[i].Stubborn = stubborn
	return nil
}

// IndexOf returns the current position of the slot with the given ID.
// Returns ErrUnknownSlot if the ID does not belong to this arena.
func (a *Arena) IndexOf(slotID string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, ok := a.byID[slotID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSlot, slotID)
	}
	return i, nil
}

// TrySwapNeighbor performs one complete swap attempt for the given slot as
// a single atomic operation: re-resolve the slot's current position from
// the arena, compute the neighbour in the given direction, and swap if the
// local comparison rule says to.
//
// The decision rule: no swap if the initiating slot is stubborn; no swap if
// the neighbour position is out of bounds (a normal no-op, not an error);
// under StubbornImmovable, no swap if the neighbour is stubborn; otherwise
// swap iff own value > neighbour value.
//
// Returns true if a swap was performed. Returns ErrUnknownSlot for a slot
// ID that does not belong to this arena; that is a programming error and
// should abort the run.
func (a *Arena) TrySwapNeighbor(slotID string, dir Direction) (bool, error) {
	if err := dir.Validate(); err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	own, ok := a.byID[slotID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSlot, slotID)
	}

	neighbor := own + int(dir)
	if neighbor < 0 || neighbor >= len(a.slots) {
		// Boundary miss: no neighbour in that direction this iteration.
		return false, nil
	}

	if a.slots[own].Stubborn {
		return false, nil
	}
	if a.mode == StubbornImmovable && a.slots[neighbor].Stubborn {
		return false, nil
	}
	if a.slots[own].Value <= a.slots[neighbor].Value {
		return false, nil
	}

	if err := a.swapLocked(own, neighbor); err != nil {
		return false, err
	}
	return true, nil
}

// IsOutOfRange returns true if the error is an out-of-range index error.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

// IsUnknownSlot returns true if the error is an unknown slot ID error.
func IsUnknownSlot(err error) bool {
	return errors.Is(err, ErrUnknownSlot)
}
