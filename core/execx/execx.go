// Package execx runs external commands for the harness. The Runner type is
// injectable so repository and test-run behavior can be faked in tests
// without spawning processes.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result captures one finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes argv inside workDir and returns the captured result. A
// non-zero exit is reported through Result.ExitCode, not the error; the
// error is reserved for failures to run at all (missing executable, bad
// working directory).
type Runner func(ctx context.Context, workDir string, argv []string) (Result, error)

// Default is the process-spawning Runner used outside of tests.
func Default(ctx context.Context, workDir string, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("missing command")
	}
	command := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- argv is harness configuration.
	command.Dir = strings.TrimSpace(workDir)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	err := command.Run()
	exitCode := 0
	if err != nil {
		exitErr := &exec.ExitError{}
		if !errors.As(err, &exitErr) {
			return Result{}, err
		}
		exitCode = exitErr.ExitCode()
	}
	return Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
