package record

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/fixcheck/core/classify"
	"github.com/davidahmann/fixcheck/core/junitxml"
)

func TestNewRecordCarriesFullShape(t *testing.T) {
	payload, err := json.Marshal(map[string]Record{"demo__repo-1": New()})
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	inner := decoded["demo__repo-1"]

	for _, key := range []string{"patch_is_None", "patch_exists", "patch_successfully_applied", "resolved", "tests_status"} {
		assert.Contains(t, inner, key)
	}
	statuses, ok := inner["tests_status"].(map[string]any)
	require.True(t, ok)
	for _, category := range []string{"FAIL_TO_PASS", "PASS_TO_PASS", "FAIL_TO_FAIL", "PASS_TO_FAIL"} {
		buckets, ok := statuses[category].(map[string]any)
		require.True(t, ok, "missing category %s", category)
		assert.Equal(t, []any{}, buckets["success"])
		assert.Equal(t, []any{}, buckets["failure"])
	}
}

func TestSetOutcome(t *testing.T) {
	outcome := classify.Classify(
		junitxml.StatusMap{"a.py::t1": junitxml.StatusFailed},
		junitxml.StatusMap{"a.py::t1": junitxml.StatusPassed},
	)

	rec := New()
	rec.SetOutcome(outcome)
	assert.True(t, rec.Resolved)
	assert.Equal(t, []string{"a.py::t1"}, rec.TestsStatus.FailToPass.Success)
	assert.Empty(t, rec.TestsStatus.PassToFail.Failure)
}

func TestSinkWritesKeyedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	rec := New()
	rec.Resolved = true
	rec.PatchSuccessfullyApplied = true

	digest, err := Sink{Path: path}.Write("google__pytype-1353", rec)
	require.NoError(t, err)
	require.Len(t, digest, 64)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]Record
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded, "google__pytype-1353")
	assert.True(t, decoded["google__pytype-1353"].Resolved)
	assert.True(t, decoded["google__pytype-1353"].PatchSuccessfullyApplied)
}

func TestSinkWriteFailureReportsIOError(t *testing.T) {
	rec := New()
	_, err := Sink{Path: filepath.Join(t.TempDir(), "missing", "results.json")}.Write("x__y-1", rec)
	require.Error(t, err)
}
