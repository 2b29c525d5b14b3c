// Package testrun invokes the test runner over a test scope and converts
// its structured report into a status map.
package testrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/davidahmann/fixcheck/core/errs"
	"github.com/davidahmann/fixcheck/core/execx"
	"github.com/davidahmann/fixcheck/core/junitxml"
)

const defaultBinary = "pytest"

// Runner executes pytest once per call over a filtered test scope and
// parses the JUnit report it produces. The same Runner is used for the pre-
// and post-change runs of a job so both observe identical invocation
// settings.
type Runner struct {
	// RepoDir is the working tree the tests run in.
	RepoDir string
	// ReportPath is where pytest writes the JUnit XML report. A relative
	// path is resolved against the harness working directory, never
	// RepoDir. The file is consumed (and deleted) on every run.
	ReportPath string
	// Binary overrides the pytest executable, for environments that need
	// python -m dispatch wrappers.
	Binary string

	Exec   execx.Runner
	Logger *zap.Logger
}

// Run executes the scope and returns the per-test status map. Scope entries
// that do not exist on disk are silently dropped: a patch may reference
// files absent at the current revision. Individual test failures never fail
// the run; a missing runner executable or an unusable report does.
func (r Runner) Run(ctx context.Context, scope []string) (junitxml.StatusMap, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := r.Exec
	if executor == nil {
		executor = execx.Default
	}
	binary := r.Binary
	if binary == "" {
		binary = defaultBinary
	}

	// pytest resolves a relative --junitxml path against RepoDir while the
	// parse below resolves against the harness cwd; anchoring the path here
	// keeps both sides pointed at the same file.
	reportPath, err := filepath.Abs(r.ReportPath)
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("resolve report path %s: %w", r.ReportPath, err), errs.CategoryIO, "report_path_invalid")
	}

	existing := make([]string, 0, len(scope))
	for _, file := range scope {
		if info, err := os.Stat(filepath.Join(r.RepoDir, filepath.FromSlash(file))); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	logger.Info("executing test scope",
		zap.String("binary", binary),
		zap.Strings("files", existing),
		zap.Int("dropped", len(scope)-len(existing)))

	argv := make([]string, 0, len(existing)+2)
	argv = append(argv, binary)
	argv = append(argv, existing...)
	argv = append(argv, "--junitxml="+reportPath)

	result, err := executor(ctx, r.RepoDir, argv)
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("spawn %s: %w", binary, err), errs.CategoryEnvironment, "test_runner_spawn_failed")
	}
	// A non-zero exit only means tests failed; the report carries the detail.
	logger.Debug("test runner finished", zap.Int("exit_code", result.ExitCode))

	statuses, err := junitxml.ParseReport(reportPath)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryReport, "report_unusable")
	}
	logger.Info("parsed test report", zap.Int("tests", len(statuses)))
	return statuses, nil
}
