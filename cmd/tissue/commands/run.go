package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/scossar/tissue-sort/internal/config"
	"github.com/scossar/tissue-sort/internal/engine"
	"github.com/scossar/tissue-sort/internal/journal"
	"github.com/scossar/tissue-sort/internal/printer"
	"github.com/scossar/tissue-sort/pkg/arena"
)

var (
	runConfigPath   string
	runValues       []float64
	runStubborn     []int
	runStubbornMode string
	runStepInterval time.Duration
	runPollInterval time.Duration
	runMaxPolls     int
	runSeed         uint64
	runRedisURL     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a decentralized bubble sort to completion or budget exhaustion",
	Long: `Run constructs an arena, launches one worker per slot, and monitors
until the arena sorts or the poll budget is exhausted.

Examples:
  # Inline values, slot 2 stubborn
  tissue run --values 5,4,3,2,1 --stubborn 2

  # From a run.yml
  tissue run --config run.yml

  # Publish run events to Redis for 'tissue watch'
  tissue run --values 3,1,2 --redis-url redis://localhost:6379`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to run.yml (flags override nothing when set)")
	runCmd.Flags().Float64SliceVar(&runValues, "values", nil, "Initial values, comma-separated")
	runCmd.Flags().IntSliceVar(&runStubborn, "stubborn", nil, "Indices to mark stubborn before the run")
	runCmd.Flags().StringVar(&runStubbornMode, "stubborn-mode", "", "Stubborn semantics: refuse_initiate (default) or immovable")
	runCmd.Flags().DurationVar(&runStepInterval, "step-interval", 10*time.Millisecond, "Worker per-iteration sleep")
	runCmd.Flags().DurationVar(&runPollInterval, "poll-interval", 100*time.Millisecond, "Coordinator poll interval")
	runCmd.Flags().IntVar(&runMaxPolls, "max-polls", 500, "Poll budget before giving up")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 0, "RNG seed for reproducible direction choices (0 = random)")
	runCmd.Flags().StringVar(&runRedisURL, "redis-url", "", "Publish run events to this Redis (optional)")
	rootCmd.AddCommand(runCmd)
}

// newRunID generates the run identifier up front so the journal channel
// name is known before the coordinator exists.
func newRunID() string {
	return uuid.New().String()
}

func runRun(cmd *cobra.Command, args []string) error {
	values := runValues
	stubborn := runStubborn
	mode := arena.StubbornMode(runStubbornMode)
	stepInterval := runStepInterval
	pollInterval := runPollInterval
	maxPolls := runMaxPolls
	seed := runSeed
	redisURL := runRedisURL

	// A config file replaces the flag-based setup entirely.
	if runConfigPath != "" {
		cfg, err := config.Load(runConfigPath)
		if err != nil {
			return printer.Error(
				"Invalid run configuration",
				fmt.Sprintf("Could not load %s: %v", runConfigPath, err),
				[]string{"Check the file against the documented run.yml format"},
			)
		}
		values = cfg.Values
		stubborn = cfg.Stubborn
		mode = cfg.Mode()
		stepInterval = cfg.StepDuration()
		pollInterval = cfg.PollDuration()
		maxPolls = cfg.MaxPolls
		seed = cfg.Seed
		if cfg.Journal != nil {
			redisURL = cfg.Journal.RedisURL
		}
	}

	if len(values) == 0 {
		return printer.Error(
			"No values to sort",
			"The run needs at least one value.",
			[]string{"Pass --values 3,1,2", "Or provide a run.yml via --config"},
		)
	}

	a, err := arena.New(values, mode)
	if err != nil {
		return printer.Error("Failed to construct arena", err.Error(), nil)
	}
	for _, i := range stubborn {
		if err := a.SetStubborn(i, true); err != nil {
			return printer.Error(
				"Invalid stubborn index",
				err.Error(),
				[]string{fmt.Sprintf("Stubborn indices must be in [0, %d)", a.Len())},
			)
		}
	}

	opts := engine.Options{
		StepInterval: stepInterval,
		PollInterval: pollInterval,
		MaxPolls:     maxPolls,
		Seed:         seed,
	}

	// Optional Redis journal for 'tissue watch'
	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			return printer.Error("Invalid Redis URL", err.Error(), nil)
		}
		opts.RunID = newRunID()
		jr, err := journal.NewRedis(redisOpts, opts.RunID)
		if err != nil {
			return printer.Error("Failed to create journal", err.Error(), nil)
		}
		defer jr.Close()
		if err := jr.Ping(cmd.Context()); err != nil {
			return printer.Error(
				"Redis not accessible",
				err.Error(),
				[]string{"Check that Redis is running at the given URL", "Or omit --redis-url to run without a journal"},
			)
		}
		opts.Journal = jr
	}

	coord, err := engine.New(a, opts)
	if err != nil {
		return printer.Error("Failed to create coordinator", err.Error(), nil)
	}

	// Stop cleanly on Ctrl-C: cancelling the context makes Monitor return
	// a cancelled result after quiescing the workers.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	printer.Snapshot("Initial", values)
	printer.Step("Run %s: %d workers, poll every %v, budget %d polls\n",
		coord.RunID(), a.Len(), pollInterval, maxPolls)

	result, err := coord.Run(ctx)
	if err != nil {
		return printer.Error("Run aborted", err.Error(), nil)
	}

	printer.Snapshot("Final", result.Final)
	printer.Info("Polls: %d  Swaps: %d  Elapsed: %v\n", result.Polls, result.Swaps, result.Elapsed.Round(time.Millisecond))

	switch result.Reason {
	case engine.StopReasonSorted:
		printer.Success("Sorted after %d polls: %s\n", result.Polls, printer.FormatValues(result.Observed))
	case engine.StopReasonBudgetExhausted:
		printer.Warning("Stopped, not necessarily sorted: poll budget (%d) exhausted\n", result.Polls)
	default:
		printer.Warning("Stopped: %s\n", result.Reason)
	}

	return nil
}
