// Package harness sequences one verification job: resolve the test scope,
// run the suite against the baseline plus test patch, run it again with the
// code patch added, classify every test's transition, and persist the
// verdict. Everything is strictly sequential; the working tree is a single
// shared mutable resource and the two runs are only comparable because no
// other mutation interleaves them.
package harness

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidahmann/fixcheck/core/classify"
	"github.com/davidahmann/fixcheck/core/console"
	"github.com/davidahmann/fixcheck/core/errs"
	"github.com/davidahmann/fixcheck/core/execx"
	"github.com/davidahmann/fixcheck/core/gitrepo"
	"github.com/davidahmann/fixcheck/core/junitxml"
	"github.com/davidahmann/fixcheck/core/patchscan"
	"github.com/davidahmann/fixcheck/core/record"
	"github.com/davidahmann/fixcheck/core/testrun"
)

// State names the orchestrator's position in the job state machine.
type State string

const (
	StateInit          State = "INIT"
	StateScopeResolved State = "SCOPE_RESOLVED"
	StatePreReset      State = "PRE_RESET"
	StatePrePatched    State = "PRE_PATCHED"
	StatePreTested     State = "PRE_TESTED"
	StatePostReset     State = "POST_RESET"
	StatePostPatched   State = "POST_PATCHED"
	StatePostTested    State = "POST_TESTED"
	StateClassified    State = "CLASSIFIED"
	StatePersisted     State = "PERSISTED"
	StateAborted       State = "ABORTED"
)

// Job configures one verification run.
type Job struct {
	InstanceID string
	RepoDir    string
	Baseline   string

	TestPatchPath string
	CodePatchPath string

	OutputPath string
	ReportPath string

	PytestBinary  string
	TestExtension string
	DefaultScope  []string

	// Exec may be nil for the default process runner.
	Exec execx.Runner
	// Logger may be nil to disable structured logging.
	Logger *zap.Logger
	// Console may be nil to disable human-readable progress output.
	Console *console.Console
}

// Result is the terminal outcome of one job run.
type Result struct {
	RunID     string
	State     State
	Scope     patchscan.Scope
	Record    record.Record
	Outcome   classify.Outcome
	Digest    string
	Persisted bool
}

// ExitCode maps the result onto the process exit status: 0 only when the
// verdict is resolved and the record was persisted.
func (r Result) ExitCode() int {
	if r.Record.Resolved && r.Persisted {
		return 0
	}
	return 1
}

type run struct {
	job     Job
	logger  *zap.Logger
	console *console.Console
	result  Result
}

// Run executes the job to a terminal state. The returned error is non-nil
// when the job aborted or the record could not be persisted; the Result is
// meaningful in every case, including aborts, where the partially-filled
// record (resolved=false) has already been persisted on a best-effort
// basis. Cancellation is honored only between steps; a running step is
// never interrupted.
func Run(ctx context.Context, job Job) (Result, error) {
	logger := job.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID), zap.String("instance_id", job.InstanceID))

	r := &run{
		job:     job,
		logger:  logger,
		console: job.Console,
		result: Result{
			RunID:  runID,
			State:  StateInit,
			Record: record.New(),
		},
	}
	return r.execute(ctx)
}

func (r *run) execute(ctx context.Context) (Result, error) {
	job := r.job
	r.noteCodePatchPresence()

	// Scope is resolved exactly once and reused for both runs; the two
	// status maps are only comparable over an identical input file set.
	r.result.Scope = patchscan.Resolve(job.TestPatchPath, patchscan.Options{
		Extension: job.TestExtension,
		Defaults:  job.DefaultScope,
	})
	r.result.State = StateScopeResolved
	r.logger.Info("test scope resolved",
		zap.String("source", string(r.result.Scope.Source)),
		zap.Strings("files", r.result.Scope.Files))
	if !r.result.Scope.FromPatch() {
		r.console.Warnf("no test files derived from %s (%s), using default scope", job.TestPatchPath, r.result.Scope.Source)
	}

	checkout := gitrepo.NewCheckout(job.RepoDir, job.Baseline, job.Exec, r.logger)
	tests := testrun.Runner{
		RepoDir:    job.RepoDir,
		ReportPath: job.ReportPath,
		Binary:     job.PytestBinary,
		Exec:       job.Exec,
		Logger:     r.logger,
	}

	// Pre-change run: baseline plus test patch only.
	r.console.Header("STEP 1: PRE-PATCH - running tests with only the test patch")
	if err := r.step(ctx, StatePreReset, func() error { return checkout.Reset(ctx) }); err != nil {
		return r.abort(err)
	}
	if err := r.step(ctx, StatePrePatched, func() error {
		return r.applyPatch(ctx, checkout, job.TestPatchPath)
	}); err != nil {
		return r.abort(err)
	}
	var pre junitxml.StatusMap
	if err := r.step(ctx, StatePreTested, func() error {
		statuses, err := tests.Run(ctx, r.result.Scope.Files)
		pre = statuses
		return err
	}); err != nil {
		return r.abort(err)
	}

	// Post-change run: identical reset, then test patch plus code patch.
	// Applying onto leftover state from the pre run would make the two
	// status maps incomparable.
	r.console.Header("STEP 2: POST-PATCH - running tests with test and code patches")
	if err := r.step(ctx, StatePostReset, func() error { return checkout.Reset(ctx) }); err != nil {
		return r.abort(err)
	}
	if err := r.step(ctx, StatePostPatched, func() error {
		if err := r.applyPatch(ctx, checkout, job.TestPatchPath); err != nil {
			return err
		}
		return r.applyPatch(ctx, checkout, job.CodePatchPath)
	}); err != nil {
		return r.abort(err)
	}
	r.result.Record.PatchSuccessfullyApplied = true
	var post junitxml.StatusMap
	if err := r.step(ctx, StatePostTested, func() error {
		statuses, err := tests.Run(ctx, r.result.Scope.Files)
		post = statuses
		return err
	}); err != nil {
		return r.abort(err)
	}

	r.console.Header("STEP 3: CLASSIFYING TRANSITIONS")
	r.result.Outcome = classify.Classify(pre, post)
	r.result.State = StateClassified
	r.result.Record.SetOutcome(r.result.Outcome)
	r.reportOutcome()

	if err := r.persist(); err != nil {
		r.result.State = StateAborted
		return r.result, err
	}
	r.result.State = StatePersisted
	r.console.Verdict(r.result.Record.Resolved)
	return r.result, nil
}

// step runs one transition, consulting cancellation before starting. A
// running step is never interrupted: cancellation only means "do not start
// the next step".
func (r *run) step(ctx context.Context, next State, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(fmt.Errorf("job cancelled before %s: %w", next, err), errs.CategoryEnvironment, "job_cancelled")
	}
	if err := fn(); err != nil {
		return err
	}
	r.result.State = next
	return nil
}

func (r *run) applyPatch(ctx context.Context, checkout *gitrepo.Checkout, path string) error {
	if path == "" {
		return nil
	}
	applied, err := checkout.Apply(ctx, path)
	if err != nil {
		return err
	}
	if applied {
		r.console.Successf("applied patch %s", path)
	} else {
		r.console.Warnf("patch file %s not found, skipping", path)
	}
	return nil
}

func (r *run) noteCodePatchPresence() {
	rec := &r.result.Record
	rec.PatchIsNone = r.job.CodePatchPath == ""
	rec.PatchExists = false
	if !rec.PatchIsNone {
		if _, err := os.Stat(r.job.CodePatchPath); err == nil {
			rec.PatchExists = true
		}
	}
}

func (r *run) reportOutcome() {
	buckets := r.result.Record.TestsStatus
	r.console.Infof("FAIL_TO_PASS: %d fixed", len(buckets.FailToPass.Success))
	r.console.Infof("PASS_TO_PASS: %d stable", len(buckets.PassToPass.Success))
	if n := len(buckets.FailToFail.Failure); n > 0 {
		r.console.Failuref("FAIL_TO_FAIL: %d still failing", n)
	}
	if n := len(buckets.PassToFail.Failure); n > 0 {
		r.console.Failuref("PASS_TO_FAIL: %d regressions", n)
	}
	if len(r.result.Outcome.Removed) > 0 {
		// Removed tests default to failed post-change; surface them so a
		// deliberate removal is not mistaken for a regression.
		r.console.Warnf("%d test(s) present pre-change disappeared post-change: %v",
			len(r.result.Outcome.Removed), r.result.Outcome.Removed)
		r.logger.Warn("tests removed between runs", zap.Strings("tests", r.result.Outcome.Removed))
	}
	r.logger.Info("classification complete",
		zap.Int("fail_to_pass", len(buckets.FailToPass.Success)),
		zap.Int("pass_to_pass", len(buckets.PassToPass.Success)),
		zap.Int("fail_to_fail", len(buckets.FailToFail.Failure)),
		zap.Int("pass_to_fail", len(buckets.PassToFail.Failure)),
		zap.Bool("resolved", r.result.Record.Resolved))
}

// abort persists what is known with resolved=false and reports the fatal
// error. The persisted record is the primary failure signal downstream.
func (r *run) abort(cause error) (Result, error) {
	r.result.State = StateAborted
	r.result.Record.Resolved = false
	r.console.Failuref("job aborted: %v", cause)
	r.logger.Error("job aborted",
		zap.String("category", string(errs.CategoryOf(cause))),
		zap.String("code", errs.CodeOf(cause)),
		zap.Error(cause))
	if err := r.persist(); err != nil {
		r.logger.Error("could not persist record after abort", zap.Error(err))
	}
	return r.result, cause
}

func (r *run) persist() error {
	sink := record.Sink{Path: r.job.OutputPath, Logger: r.logger}
	digest, err := sink.Write(r.job.InstanceID, r.result.Record)
	if err != nil {
		r.console.Failuref("could not persist verification record: %v", err)
		return err
	}
	r.result.Digest = digest
	r.result.Persisted = true
	r.console.Successf("verification record written to %s", r.job.OutputPath)
	return nil
}
