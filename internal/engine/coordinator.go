// Package engine implements the concurrent core of tissue-sort: one worker
// goroutine per arena slot attempting local compare-and-swaps, and a
// coordinator that owns the worker pool lifecycle, polls the arena for
// sortedness, and shuts the swarm down.
//
// The decentralized, randomized process has no termination guarantee for
// arbitrary configurations (a stubborn slot can block local progress past
// it, and workers pick directions independently), so non-convergence is an
// expected outcome, not an error: the coordinator enforces a poll budget
// and reports "stopped because budget exhausted" rather than blocking
// forever. Callers can always distinguish that from "stopped because
// sorted" via Result.Reason.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scossar/tissue-sort/internal/journal"
	"github.com/scossar/tissue-sort/pkg/arena"
)

// State is the coordinator's lifecycle state.
// Transitions: Idle -> Running -> Stopping -> Stopped.
type State string

const (
	// StateIdle means the coordinator has been created but not started.
	StateIdle State = "idle"

	// StateRunning means workers are live and the arena is being mutated.
	StateRunning State = "running"

	// StateStopping means shutdown has been requested and the coordinator
	// is waiting for workers to observe their active flags and exit.
	StateStopping State = "stopping"

	// StateStopped means all workers have joined; the arena is quiescent.
	StateStopped State = "stopped"
)

// StopReason explains why a run ended.
type StopReason string

const (
	// StopReasonSorted means a poll observed a sorted arena.
	StopReasonSorted StopReason = "sorted"

	// StopReasonBudgetExhausted means the poll budget elapsed without
	// observing a sorted arena. This is an expected outcome, not an error.
	StopReasonBudgetExhausted StopReason = "budget_exhausted"

	// StopReasonCancelled means the context was cancelled or Stop was
	// called while monitoring.
	StopReasonCancelled StopReason = "cancelled"
)

// Result summarizes a finished run.
//
// Observed is the snapshot on which the stop decision was made (the sorted
// arrangement for StopReasonSorted, the last poll otherwise). Final is
// taken after every worker has joined, so it is the arena's true resting
// state. The two can differ by a late swap: with this comparison rule the
// sorted arrangement is not a fixed point, so a worker mid-iteration at
// stop time may still move values.
type Result struct {
	RunID    string
	Reason   StopReason
	Polls    int
	Swaps    int64
	Elapsed  time.Duration
	Observed []float64
	Final    []float64
}

// Options configures a run.
type Options struct {
	// StepInterval is each worker's per-iteration sleep (default 10ms).
	// It also bounds shutdown latency: a worker may be mid-sleep when asked
	// to stop.
	StepInterval time.Duration

	// PollInterval is how often the coordinator checks sortedness
	// (default 100ms).
	PollInterval time.Duration

	// MaxPolls is the poll budget (default 500). The run stops after this
	// many polls even if the arena never sorts.
	MaxPolls int

	// Seed makes worker direction choices reproducible when non-zero.
	Seed uint64

	// RunID identifies this run in logs and the journal. A fresh UUID is
	// generated when empty.
	RunID string

	// Journal receives run events. Defaults to journal.Nop.
	Journal journal.Publisher
}

// withDefaults returns a copy of the options with defaults applied.
func (o Options) withDefaults() (Options, error) {
	if o.StepInterval == 0 {
		o.StepInterval = 10 * time.Millisecond
	}
	if o.PollInterval == 0 {
		o.PollInterval = 100 * time.Millisecond
	}
	if o.MaxPolls == 0 {
		o.MaxPolls = 500
	}

	if o.StepInterval < 0 {
		return o, fmt.Errorf("step interval must be positive, got %v", o.StepInterval)
	}
	if o.PollInterval < 0 {
		return o, fmt.Errorf("poll interval must be positive, got %v", o.PollInterval)
	}
	if o.MaxPolls < 0 {
		return o, fmt.Errorf("max polls must be positive, got %d", o.MaxPolls)
	}

	if o.RunID == "" {
		o.RunID = uuid.New().String()
	}
	if o.Journal == nil {
		o.Journal = journal.Nop{}
	}
	return o, nil
}

// Coordinator owns the lifecycle of the worker pool and the overall run:
// it spawns one worker per slot, polls the arena's sortedness predicate,
// and signals all workers to stop once sorted or the poll budget is
// exhausted.
type Coordinator struct {
	arena *arena.Arena
	opts  Options

	mu      sync.Mutex
	state   State
	workers []*Worker
	cancel  context.CancelFunc
	started time.Time

	wg sync.WaitGroup

	// faults receives the first arena error reported by any worker.
	// Arena errors are programming errors and abort the run.
	faults chan error
}

// New creates a coordinator for the given arena.
func New(a *arena.Arena, opts Options) (*Coordinator, error) {
	if a == nil {
		return nil, fmt.Errorf("arena cannot be nil")
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &Coordinator{
		arena:  a,
		opts:   opts,
		state:  StateIdle,
		faults: make(chan error, 1),
	}, nil
}

// RunID returns the identifier for this run.
func (c *Coordinator) RunID() string {
	return c.opts.RunID
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start constructs one worker per slot, binds each to its slot identity,
// and launches all workers concurrently. Returns an error unless the
// coordinator is Idle.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("cannot start from state %q", c.state)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = time.Now()

	slotIDs := c.arena.SlotIDs()
	c.workers = make([]*Worker, len(slotIDs))
	for i, slotID := range slotIDs {
		c.workers[i] = newWorker(slotID, c.arena, c.opts.StepInterval, c.newRNG(uint64(i)))
	}

	for _, w := range c.workers {
		c.wg.Add(1)
		go func(w *Worker) {
			defer c.wg.Done()
			w.run(runCtx, c.faults)
		}(w)
	}

	c.state = StateRunning

	c.logEvent("run_started", map[string]interface{}{
		"workers":       len(c.workers),
		"step_interval": c.opts.StepInterval.String(),
		"poll_interval": c.opts.PollInterval.String(),
		"max_polls":     c.opts.MaxPolls,
	})
	c.publish(ctx, &journal.Event{
		Type:   journal.EventRunStarted,
		Values: c.arena.Snapshot(),
	})

	return nil
}

// newRNG builds a worker's direction RNG. With a non-zero seed the stream
// is deterministic per worker index; otherwise each worker gets an
// independently seeded source.
func (c *Coordinator) newRNG(workerIndex uint64) *rand.Rand {
	if c.opts.Seed != 0 {
		return rand.New(rand.NewPCG(c.opts.Seed, workerIndex))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Monitor polls the arena on the poll interval until it observes a sorted
// state, the poll budget is exhausted, the context is cancelled, or a
// worker reports an arena fault. In every case the worker pool is shut
// down and fully quiesced before Monitor returns.
//
// The returned Result distinguishes "stopped because sorted" from
// "stopped because budget exhausted". An arena fault aborts the run and is
// returned as an error.
func (c *Coordinator) Monitor(ctx context.Context) (*Result, error) {
	if c.State() != StateRunning {
		return nil, fmt.Errorf("cannot monitor from state %q", c.State())
	}

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	polls := 0
	var observed []float64
	for polls < c.opts.MaxPolls {
		select {
		case <-ctx.Done():
			c.logEvent("run_cancelled", map[string]interface{}{"polls": polls})
			return c.finish(StopReasonCancelled, polls, observed), nil

		case err := <-c.faults:
			c.Stop()
			return nil, fmt.Errorf("worker fault: %w", err)

		case <-ticker.C:
			if c.State() != StateRunning {
				// Stop was called externally mid-monitor.
				return c.finish(StopReasonCancelled, polls, observed), nil
			}

			polls++
			observed = c.arena.Snapshot()
			sorted := isNonDecreasing(observed)

			c.publish(ctx, &journal.Event{
				Type:   journal.EventProgress,
				Values: observed,
				Polls:  polls,
				Swaps:  c.totalSwaps(),
			})

			if sorted {
				c.logEvent("sorted_detected", map[string]interface{}{
					"polls": polls,
					"swaps": c.totalSwaps(),
				})
				c.publish(ctx, &journal.Event{
					Type:   journal.EventSortedDetected,
					Values: observed,
					Polls:  polls,
				})
				return c.finish(StopReasonSorted, polls, observed), nil
			}
		}
	}

	c.logEvent("budget_exhausted", map[string]interface{}{
		"polls": polls,
		"swaps": c.totalSwaps(),
	})
	return c.finish(StopReasonBudgetExhausted, polls, observed), nil
}

// isNonDecreasing checks sortedness of an already-taken snapshot, so the
// decision and the published values come from the same instant.
func isNonDecreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

// Stop sets every worker's active flag to false and waits for every worker
// to observe the flag and exit. The wait is bounded: the per-iteration
// sleep interval upper-bounds worker responsiveness. Safe to call multiple
// times; calls after the first are no-ops.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping

	for _, w := range c.workers {
		w.stop()
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()

	c.logEvent("run_stopped", map[string]interface{}{
		"swaps": c.totalSwaps(),
	})
}

// Run starts the workers, monitors until completion, and shuts down.
// Convenience wrapper around Start + Monitor for callers that don't need
// to interleave other work with the run.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c.Monitor(ctx)
}

// finish shuts the worker pool down and builds the Result from the
// quiesced arena.
func (c *Coordinator) finish(reason StopReason, polls int, observed []float64) *Result {
	c.Stop()

	final := c.arena.Snapshot()
	if observed == nil {
		observed = final
	}

	result := &Result{
		RunID:    c.opts.RunID,
		Reason:   reason,
		Polls:    polls,
		Swaps:    c.totalSwaps(),
		Elapsed:  time.Since(c.started),
		Observed: observed,
		Final:    final,
	}

	c.publish(context.Background(), &journal.Event{
		Type:   journal.EventRunStopped,
		Values: result.Final,
		Polls:  result.Polls,
		Swaps:  result.Swaps,
		Reason: string(reason),
	})

	return result
}

// totalSwaps sums the swaps initiated across all workers.
func (c *Coordinator) totalSwaps() int64 {
	c.mu.Lock()
	workers := c.workers
	c.mu.Unlock()

	var total int64
	for _, w := range workers {
		total += w.Swaps()
	}
	return total
}

// publish sends an event to the journal. Journal errors are logged and
// otherwise ignored: the event stream is best-effort observability, never
// a reason to fail a run.
func (c *Coordinator) publish(ctx context.Context, event *journal.Event) {
	event.RunID = c.opts.RunID
	event.TimestampMs = time.Now().UnixMilli()
	if err := c.opts.Journal.Publish(ctx, event); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", event.Type, err)
	}
}

// logEvent logs a structured event in JSON format.
func (c *Coordinator) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "coordinator"
	data["event_type"] = eventType
	data["run_id"] = c.opts.RunID

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Coordinator] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
