// Package gitrepo controls the repository working tree of one verification
// job: resetting to the baseline revision and applying patch files.
package gitrepo

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/davidahmann/fixcheck/core/errs"
	"github.com/davidahmann/fixcheck/core/execx"
)

// Checkout is the explicit state of a working tree: which directory, which
// baseline it was last reset to, and the patch stack applied since. Every
// transition goes through Reset or Apply so the orchestrator always sees
// the current state rather than an ambient side effect.
type Checkout struct {
	Dir      string
	Baseline string
	// Applied lists patch paths applied since the last reset, in order.
	Applied []string

	runner execx.Runner
	logger *zap.Logger
}

// NewCheckout binds a working tree to its baseline revision. runner may be
// nil for the default process runner; logger may be nil to stay quiet.
func NewCheckout(dir, baseline string, runner execx.Runner, logger *zap.Logger) *Checkout {
	if runner == nil {
		runner = execx.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checkout{
		Dir:      dir,
		Baseline: baseline,
		Applied:  []string{},
		runner:   runner,
		logger:   logger,
	}
}

// Reset forcibly discards all tracked modifications and untracked files,
// returning the tree to the baseline revision. On success the applied patch
// stack is cleared. A failure leaves the checkout in an unknown state; the
// caller must abort the job.
func (c *Checkout) Reset(ctx context.Context) error {
	c.logger.Info("resetting repository", zap.String("dir", c.Dir), zap.String("baseline", c.Baseline))

	if err := c.git(ctx, "reset", "--hard", c.Baseline); err != nil {
		return errs.Wrap(err, errs.CategoryEnvironment, "git_reset_failed")
	}
	if err := c.git(ctx, "clean", "-df"); err != nil {
		return errs.Wrap(err, errs.CategoryEnvironment, "git_clean_failed")
	}
	c.Applied = c.Applied[:0]
	return nil
}

// Apply applies the patch at path onto the current tree. A missing patch
// file is a successful no-op: absence means there is nothing to apply, not
// an error. A diff that fails to apply is an environment error and the
// caller must abort.
func (c *Checkout) Apply(ctx context.Context, path string) (applied bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			c.logger.Info("patch file not found, skipping", zap.String("patch", path))
			return false, nil
		}
		return false, errs.Wrap(fmt.Errorf("stat patch %s: %w", path, statErr), errs.CategoryEnvironment, "patch_stat_failed")
	}

	c.logger.Info("applying patch", zap.String("patch", path))
	if err := c.git(ctx, "apply", path); err != nil {
		return false, errs.Wrap(err, errs.CategoryEnvironment, "git_apply_failed")
	}
	c.Applied = append(c.Applied, path)
	return true, nil
}

func (c *Checkout) git(ctx context.Context, args ...string) error {
	argv := append([]string{"git"}, args...)
	result, err := c.runner(ctx, c.Dir, argv)
	if err != nil {
		return fmt.Errorf("run git %s: %w", args[0], err)
	}
	if result.ExitCode != 0 {
		c.logger.Error("git command failed",
			zap.Strings("argv", argv),
			zap.Int("exit_code", result.ExitCode),
			zap.String("stderr", result.Stderr))
		return fmt.Errorf("git %s exited %d: %s", args[0], result.ExitCode, result.Stderr)
	}
	return nil
}
