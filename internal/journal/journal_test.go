package journal

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsChannel(t *testing.T) {
	assert.Equal(t, "tissue:run-1:events", EventsChannel("run-1"))
}

func TestEventTypeValidate(t *testing.T) {
	valid := []EventType{EventRunStarted, EventProgress, EventSortedDetected, EventRunStopped}
	for _, et := range valid {
		assert.NoError(t, et.Validate())
	}

	assert.Error(t, EventType("").Validate())
	assert.Error(t, EventType("swap").Validate())
}

func TestEventValidate(t *testing.T) {
	event := &Event{RunID: "run-1", Type: EventProgress}
	assert.NoError(t, event.Validate())

	assert.Error(t, (&Event{Type: EventProgress}).Validate())
	assert.Error(t, (&Event{RunID: "run-1", Type: "bogus"}).Validate())
}

func TestNewRedis_EmptyRunID(t *testing.T) {
	_, err := NewRedis(&redis.Options{Addr: "localhost:6379"}, "")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), &Event{}))
	assert.NoError(t, p.Close())
}

func TestRedis_PublishSubscribeRoundTrip(t *testing.T) {
	// Setup miniredis
	mr := miniredis.RunT(t)
	defer mr.Close()

	redisOpts := &redis.Options{Addr: mr.Addr()}

	jr, err := NewRedis(redisOpts, "test-run")
	require.NoError(t, err)
	defer jr.Close()

	ctx := context.Background()
	require.NoError(t, jr.Ping(ctx))

	subscription, err := jr.Subscribe(ctx)
	require.NoError(t, err)
	defer subscription.Close()

	published := &Event{
		Type:   EventProgress,
		Values: []float64{3, 1, 2},
		Polls:  7,
		Swaps:  4,
	}
	require.NoError(t, jr.Publish(ctx, published))

	select {
	case event := <-subscription.Events():
		require.NotNil(t, event)
		assert.Equal(t, "test-run", event.RunID)
		assert.Equal(t, EventProgress, event.Type)
		assert.Equal(t, []float64{3, 1, 2}, event.Values)
		assert.Equal(t, 7, event.Polls)
		assert.Equal(t, int64(4), event.Swaps)
		assert.NotZero(t, event.TimestampMs)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestRedis_PublishRejectsInvalidEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	jr, err := NewRedis(&redis.Options{Addr: mr.Addr()}, "test-run")
	require.NoError(t, err)
	defer jr.Close()

	err = jr.Publish(context.Background(), &Event{Type: "bogus"})
	assert.Error(t, err)
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	jr, err := NewRedis(&redis.Options{Addr: mr.Addr()}, "test-run")
	require.NoError(t, err)
	defer jr.Close()

	subscription, err := jr.Subscribe(context.Background())
	require.NoError(t, err)

	assert.NoError(t, subscription.Close())
	assert.NoError(t, subscription.Close())

	// Channels close once the processing goroutine observes cancellation.
	select {
	case _, ok := <-subscription.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel never closed")
	}
}

func TestSubscription_SkipsMalformedMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	redisOpts := &redis.Options{Addr: mr.Addr()}

	jr, err := NewRedis(redisOpts, "test-run")
	require.NoError(t, err)
	defer jr.Close()

	ctx := context.Background()
	subscription, err := jr.Subscribe(ctx)
	require.NoError(t, err)
	defer subscription.Close()

	// Publish garbage directly to the channel, then a valid event.
	raw := redis.NewClient(redisOpts)
	defer raw.Close()
	require.NoError(t, raw.Publish(ctx, EventsChannel("test-run"), "not json").Err())
	require.NoError(t, jr.Publish(ctx, &Event{Type: EventRunStarted, Values: []float64{1}}))

	gotError := false
	for {
		select {
		case event := <-subscription.Events():
			// The malformed message is skipped; the valid one still arrives.
			require.NotNil(t, event)
			assert.Equal(t, EventRunStarted, event.Type)
			if !gotError {
				select {
				case err := <-subscription.Errors():
					require.Error(t, err)
				case <-time.After(2 * time.Second):
					t.Fatal("expected an unmarshal error for the malformed message")
				}
			}
			return
		case err := <-subscription.Errors():
			require.Error(t, err)
			gotError = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}
