package printer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scossar/tissue-sort/pkg/arena"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "[3 1 2]", FormatValues([]float64{3, 1, 2}))
	assert.Equal(t, "[-4.5 0 100]", FormatValues([]float64{-4.5, 0, 100}))
	assert.Equal(t, "[]", FormatValues(nil))
}

func TestFormatSlots(t *testing.T) {
	slots := []arena.Slot{
		{Value: 3},
		{Value: 1, Stubborn: true},
		{Value: 2},
	}
	assert.Equal(t, "[3 1* 2]", FormatSlots(slots))
}

// Note: The Error function prints formatted output to stderr with colors.
// The error object returned only contains the title for Cobra's error
// handling. This is intentional to avoid duplicate output while providing
// rich formatted errors.
