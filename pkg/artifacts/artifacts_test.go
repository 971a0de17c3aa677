package artifacts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSampleCSV(t *testing.T) {
	got := SampleCSV()

	assert.Equal(t, "Test Case ID,Scenario,Scenario Description,Precondition,"+
		"Steps to Execute,Test Data,Expected Result,Actual Result,Status\n", got)
	assert.Equal(t, 1, strings.Count(got, "\n"), "header row only, no data rows")
	assert.Len(t, strings.Split(strings.TrimSuffix(got, "\n"), ","), 9)
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample_test_cases.csv")
	require.NoError(t, WriteSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SampleCSV(), string(data))
}

func TestWriteScript(t *testing.T) {
	t.Run("writes script content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test_script.py")
		require.NoError(t, WriteScript(path, "def test(): pass\n"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "def test(): pass\n", string(data))
	})

	t.Run("second write replaces first", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test_script.py")
		require.NoError(t, WriteScript(path, "first"))
		require.NoError(t, WriteScript(path, "second"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("fails on bad path", func(t *testing.T) {
		err := WriteScript(filepath.Join(t.TempDir(), "missing", "test_script.py"), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write script file")
	})
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, WriteReport(path, Report{
		Status:     "success",
		ScriptFile: "test_script.py",
		ProjectURL: "https://example.com",
		Passed:     2,
		Failed:     1,
		Total:      3,
		ReportURL:  "/reports/1",
		Duration:   "5 seconds",
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Passed)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "/reports/1", got.ReportURL)
}
