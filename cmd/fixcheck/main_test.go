package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout runs fn with os.Stdout redirected into a buffer.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	read, write, err := os.Pipe()
	require.NoError(t, err)
	saved := os.Stdout
	os.Stdout = write
	defer func() { os.Stdout = saved }()

	fn()
	require.NoError(t, write.Close())
	out, err := io.ReadAll(read)
	require.NoError(t, err)
	return string(out)
}

func execute(args ...string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func TestScopeCommandPrintsResolvedFiles(t *testing.T) {
	patch := filepath.Join(t.TempDir(), "test.patch")
	require.NoError(t, os.WriteFile(patch, []byte("--- a/tests/test_x.py\n+++ b/tests/test_x.py\n"), 0o600))

	out := captureStdout(t, func() {
		require.NoError(t, execute("scope", "--patch", patch, "--json"))
	})

	var decoded struct {
		Files  []string `json:"files"`
		Source string   `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []string{"tests/test_x.py"}, decoded.Files)
	assert.Equal(t, "patch", decoded.Source)
}

func TestScopeCommandFallsBackToDefaults(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, execute(
			"scope",
			"--patch", filepath.Join(t.TempDir(), "absent.patch"),
			"--default", "tests/reference.py",
			"--json",
		))
	})

	var decoded struct {
		Files  []string `json:"files"`
		Source string   `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []string{"tests/reference.py"}, decoded.Files)
	assert.Equal(t, "default_missing_patch", decoded.Source)
}

func writeReport(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestClassifyCommandResolved(t *testing.T) {
	pre := writeReport(t, "pre.xml",
		`<testsuite><testcase classname="tests.t" name="a"><failure/></testcase></testsuite>`)
	post := writeReport(t, "post.xml",
		`<testsuite><testcase classname="tests.t" name="a"/></testsuite>`)

	out := captureStdout(t, func() {
		require.NoError(t, execute("classify", "--pre", pre, "--post", post))
	})
	assert.Contains(t, out, `"resolved": true`)
	assert.Contains(t, out, "tests/t.py::a")

	// classify must not delete operator-supplied reports
	_, err := os.Stat(pre)
	assert.NoError(t, err)
}

func TestClassifyCommandUnresolvedExitCode(t *testing.T) {
	pre := writeReport(t, "pre.xml",
		`<testsuite><testcase classname="tests.t" name="a"/></testsuite>`)
	post := writeReport(t, "post.xml",
		`<testsuite><testcase classname="tests.t" name="a"><failure/></testcase></testsuite>`)

	_ = captureStdout(t, func() {
		err := execute("classify", "--pre", pre, "--post", post)
		var exit exitError
		require.ErrorAs(t, err, &exit)
		assert.Equal(t, 1, exit.code)
	})
}

func TestTaskValidateCommandFlagsBadDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"instance_id": "oops"}`), 0o600))

	err := execute("task", "validate", path)
	var exit exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.code)
}

func TestVerifyCommandRequiresJobSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	err := execute("verify")
	require.Error(t, err)
	assert.False(t, errors.As(err, &exitError{}), "missing settings is a usage error, not a verdict")
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, execute("version"))
	})
	assert.Contains(t, out, "fixcheck")
}
