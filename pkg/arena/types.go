package arena

import (
	"fmt"
)

// Slot represents one positional entry in the arena.
// A slot's ID and stubborn flag are fixed for its lifetime; its position in
// the arena changes as swaps occur. Slots are created once at arena
// construction and never destroyed.
type Slot struct {
	ID       string  `json:"id"`       // UUID - permanent identity, travels with the slot on swap
	Value    float64 `json:"value"`    // Ordered scalar being sorted
	Stubborn bool    `json:"stubborn"` // Exemption from swapping (interpretation depends on StubbornMode)
}

// StubbornMode defines how a stubborn slot participates in swaps.
// The original design's stubborn semantics were a guess, so the
// interpretation is a configuration option rather than a silent assumption.
type StubbornMode string

const (
	// StubbornRefusesInitiate means a stubborn slot never initiates a swap
	// but can still be the passive target of a neighbour's swap. Its value
	// moves and the stubborn flag travels with it. This is the default.
	StubbornRefusesInitiate StubbornMode = "refuse_initiate"

	// StubbornImmovable means a stubborn slot neither initiates nor accepts
	// swaps; its value never changes position.
	StubbornImmovable StubbornMode = "immovable"
)

// Validate checks if the StubbornMode is a valid enum value.
func (m StubbornMode) Validate() error {
	switch m {
	case StubbornRefusesInitiate, StubbornImmovable:
		return nil
	default:
		return fmt.Errorf("unknown stubborn mode: %q", m)
	}
}

// Direction identifies which neighbour a swap attempt targets.
type Direction int

const (
	// Left targets the neighbour at position-1.
	Left Direction = -1

	// Right targets the neighbour at position+1.
	Right Direction = 1
)

// Validate checks if the Direction is a valid enum value.
func (d Direction) Validate() error {
	switch d {
	case Left, Right:
		return nil
	default:
		return fmt.Errorf("unknown direction: %d", int(d))
	}
}

// String returns a human-readable direction name for logging.
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}
