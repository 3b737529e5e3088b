package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRunFlags restores the run command's package-level flag state so
// tests don't leak arguments into each other.
func resetRunFlags() {
	runConfigPath = ""
	runValues = nil
	runStubborn = nil
	runStubbornMode = ""
	runStepInterval = 10 * time.Millisecond
	runPollInterval = 100 * time.Millisecond
	runMaxPolls = 500
	runSeed = 0
	runRedisURL = ""
}

func TestRunCommand_NoValues(t *testing.T) {
	resetRunFlags()

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No values to sort")
}

func TestRunCommand_SingleValue(t *testing.T) {
	resetRunFlags()
	runValues = []float64{7}
	runStepInterval = time.Millisecond
	runPollInterval = time.Millisecond
	runMaxPolls = 10

	// A one-slot arena is vacuously sorted; the run ends on the first poll.
	err := runRun(runCmd, nil)
	assert.NoError(t, err)
}

func TestRunCommand_InvalidStubbornIndex(t *testing.T) {
	resetRunFlags()
	runValues = []float64{1, 2}
	runStubborn = []int{9}

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid stubborn index")
}

func TestRunCommand_ConfigFile(t *testing.T) {
	resetRunFlags()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "run.yml")
	cfg := `version: "1.0"
values: [1, 2, 3]
stubborn: [0, 1, 2]
step_interval: "1ms"
poll_interval: "1ms"
max_polls: 20
`
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	runConfigPath = configPath

	// Already sorted and fully stubborn: deterministic, finishes on the
	// first poll.
	err := runRun(runCmd, nil)
	assert.NoError(t, err)
}

func TestRunCommand_BadConfigFile(t *testing.T) {
	resetRunFlags()
	runConfigPath = "/nonexistent/run.yml"

	err := runRun(runCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid run configuration")
}
