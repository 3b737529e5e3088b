// Package journal provides an optional run-event stream for tissue-sort
// runs. Events are published as JSON to a Redis Pub/Sub channel namespaced
// by run ID, so a separate process (tissue watch) can follow a run live.
//
// The stream is transient: nothing is persisted, and delivery is
// at-most-once (Redis Pub/Sub semantics). The core library works without
// any journal at all - Nop is the default publisher.
//
// Channel pattern: tissue:{run_id}:events
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventType identifies what happened in a run.
type EventType string

const (
	// EventRunStarted is published once when all workers have been launched.
	EventRunStarted EventType = "run_started"

	// EventProgress is published on every coordinator poll with the current
	// snapshot and swap count.
	EventProgress EventType = "progress"

	// EventSortedDetected is published when a poll observes a sorted arena.
	EventSortedDetected EventType = "sorted_detected"

	// EventRunStopped is published once the run has fully quiesced.
	EventRunStopped EventType = "run_stopped"
)

// Validate checks if the EventType is a valid enum value.
func (t EventType) Validate() error {
	switch t {
	case EventRunStarted, EventProgress, EventSortedDetected, EventRunStopped:
		return nil
	default:
		return fmt.Errorf("unknown event type: %q", t)
	}
}

// Event is one entry in a run's event stream.
type Event struct {
	RunID       string    `json:"run_id"`           // UUID of the run
	Type        EventType `json:"type"`             // What happened
	Values      []float64 `json:"values,omitempty"` // Arena snapshot at event time
	Polls       int       `json:"polls,omitempty"`  // Polls elapsed so far
	Swaps       int64     `json:"swaps,omitempty"`  // Swaps performed so far
	Reason      string    `json:"reason,omitempty"` // Stop reason (run_stopped only)
	TimestampMs int64     `json:"timestamp_ms"`     // Unix milliseconds when the event was published
}

// Validate checks if the Event has valid field values.
func (e *Event) Validate() error {
	if e.RunID == "" {
		return fmt.Errorf("event run_id cannot be empty")
	}
	if err := e.Type.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	return nil
}

// EventsChannel returns the Pub/Sub channel name for a run's events.
// Pattern: tissue:{run_id}:events
func EventsChannel(runID string) string {
	return fmt.Sprintf("tissue:%s:events", runID)
}

// Publisher is the sink the coordinator publishes run events to.
type Publisher interface {
	// Publish sends one event. Publishing is best-effort observability:
	// callers treat errors as non-fatal.
	Publish(ctx context.Context, event *Event) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Nop is a Publisher that discards all events. It is the default when no
// journal is configured.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(ctx context.Context, event *Event) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }

// Redis publishes run events to a Redis Pub/Sub channel.
// The publisher is thread-safe.
type Redis struct {
	rdb   *redis.Client
	runID string
}

// NewRedis creates a Redis-backed journal for the given run.
// Returns an error if runID is empty.
func NewRedis(redisOpts *redis.Options, runID string) (*Redis, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID cannot be empty")
	}

	return &Redis{
		rdb:   redis.NewClient(redisOpts),
		runID: runID,
	}, nil
}

// Ping verifies Redis connectivity. Useful before starting a run.
func (j *Redis) Ping(ctx context.Context) error {
	return j.rdb.Ping(ctx).Err()
}

// Publish validates the event, stamps it, and publishes it as JSON to the
// run's events channel.
func (j *Redis) Publish(ctx context.Context, event *Event) error {
	if event.RunID == "" {
		event.RunID = j.runID
	}
	if event.TimestampMs == 0 {
		event.TimestampMs = time.Now().UnixMilli()
	}
	if err := event.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := EventsChannel(j.runID)
	if err := j.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the Redis connection. Implements io.Closer.
func (j *Redis) Close() error {
	return j.rdb.Close()
}

// Subscription represents an active Pub/Sub subscription to a run's events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of run events.
// The channel is closed when the subscription is closed or the context is
// cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe subscribes to this run's event stream.
// Returns a Subscription that delivers full event objects.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery).
func (j *Redis) Subscribe(ctx context.Context) (*Subscription, error) {
	channel := EventsChannel(j.runID)
	pubsub := j.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal run event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
