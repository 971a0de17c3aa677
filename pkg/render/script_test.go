package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript(t *testing.T) {
	t.Run("with color enabled highlights code", func(t *testing.T) {
		script := "def test_case_1():\n    page.goto(\"https://example.com\")"
		result, err := Script(script, false)
		require.NoError(t, err)
		// glamour transforms the block - should not be identical to input
		assert.NotEqual(t, script, result)
		assert.Contains(t, result, "test_case_1")
		assert.Contains(t, result, "page.goto")
	})

	t.Run("with noColor returns script unchanged", func(t *testing.T) {
		script := "def test_case_1():\n    pass"
		result, err := Script(script, true)
		require.NoError(t, err)
		assert.Equal(t, script, result)
	})

	t.Run("handles empty script", func(t *testing.T) {
		result, err := Script("", false)
		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(result))
	})

	t.Run("renders failure text as plain content", func(t *testing.T) {
		result, err := Script("Error: backend rejected request", false)
		require.NoError(t, err)
		assert.Contains(t, result, "Error: backend rejected request")
	})
}
