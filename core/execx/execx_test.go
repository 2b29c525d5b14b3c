package execx

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCapturesOutputAndExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX sh")
	}

	result, err := Default(context.Background(), t.TempDir(), []string{"sh", "-c", "echo out; echo err >&2; exit 3"})
	require.NoError(t, err)
	require.Equal(t, 3, result.ExitCode)
	require.Equal(t, "out\n", result.Stdout)
	require.Equal(t, "err\n", result.Stderr)
}

func TestDefaultMissingExecutable(t *testing.T) {
	_, err := Default(context.Background(), t.TempDir(), []string{"definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
}

func TestDefaultEmptyArgv(t *testing.T) {
	_, err := Default(context.Background(), "", nil)
	require.Error(t, err)
}
