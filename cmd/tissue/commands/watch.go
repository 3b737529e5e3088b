package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/scossar/tissue-sort/internal/journal"
	"github.com/scossar/tissue-sort/internal/printer"
)

var (
	watchRunID    string
	watchRedisURL string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a run's event stream from another process",
	Long: `Watch subscribes to a run's Redis event channel and prints each event
as it arrives. The run must have been started with --redis-url so its
coordinator publishes events.

Examples:
  # Follow a run by ID
  tissue watch --run-id 550e8400-e29b-41d4-a716-446655440000 --redis-url redis://localhost:6379`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRunID, "run-id", "", "Run identifier to follow (required)")
	watchCmd.Flags().StringVar(&watchRedisURL, "redis-url", "redis://localhost:6379", "Redis the run publishes to")
	watchCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	redisOpts, err := redis.ParseURL(watchRedisURL)
	if err != nil {
		return printer.Error("Invalid Redis URL", err.Error(), nil)
	}

	jr, err := journal.NewRedis(redisOpts, watchRunID)
	if err != nil {
		return printer.Error("Failed to create journal client", err.Error(), nil)
	}
	defer jr.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := jr.Ping(ctx); err != nil {
		return printer.Error(
			"Redis not accessible",
			err.Error(),
			[]string{"Check that Redis is running at the given URL"},
		)
	}

	subscription, err := jr.Subscribe(ctx)
	if err != nil {
		return printer.Error("Failed to subscribe", err.Error(), nil)
	}
	defer subscription.Close()

	printer.Step("Watching run %s (Ctrl-C to stop)\n", watchRunID)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-subscription.Events():
			if !ok {
				return nil
			}
			printEvent(event)

		case err, ok := <-subscription.Errors():
			if !ok {
				return nil
			}
			printer.Warning("Subscription error: %v\n", err)
		}
	}
}

// printEvent renders one run event as a single line.
func printEvent(event *journal.Event) {
	switch event.Type {
	case journal.EventRunStarted:
		printer.Step("Run started: %s\n", printer.FormatValues(event.Values))
	case journal.EventProgress:
		printer.Info("poll %d (swaps %d): %s\n", event.Polls, event.Swaps, printer.FormatValues(event.Values))
	case journal.EventSortedDetected:
		printer.Success("Sorted at poll %d: %s\n", event.Polls, printer.FormatValues(event.Values))
	case journal.EventRunStopped:
		printer.Info("Run stopped (%s) after %d polls, %d swaps: %s\n",
			event.Reason, event.Polls, event.Swaps, printer.FormatValues(event.Values))
	default:
		printer.Info("%s: %s\n", event.Type, printer.FormatValues(event.Values))
	}
}
