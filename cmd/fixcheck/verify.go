package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidahmann/fixcheck/core/harness"
	"github.com/davidahmann/fixcheck/core/jobconfig"
	"github.com/davidahmann/fixcheck/core/taskdesc"
)

func newVerifyCmd() *cobra.Command {
	var (
		configPath string
		taskPath   string
		workDir    string

		instanceID string
		repoDir    string
		baseline   string
		testPatch  string
		codePatch  string
		output     string
		report     string
		pytest     string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run one verification job and persist its verdict",
		Long: "verify resolves the test scope from the test patch, runs the suite " +
			"against the baseline plus test patch, runs it again with the code patch " +
			"added, classifies every test transition, and writes the verification " +
			"record. The exit status is 0 only for a resolved verdict.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := jobconfig.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			override := func(name string, target *string, value string) {
				if flags.Changed(name) {
					*target = value
				}
			}
			override("instance", &cfg.InstanceID, instanceID)
			override("repo", &cfg.RepoDir, repoDir)
			override("baseline", &cfg.Baseline, baseline)
			override("test-patch", &cfg.TestPatch, testPatch)
			override("code-patch", &cfg.CodePatch, codePatch)
			override("output", &cfg.Output, output)
			override("report", &cfg.Report, report)
			override("pytest", &cfg.Pytest, pytest)

			if taskPath != "" {
				if err := materializeTask(taskPath, workDir, &cfg); err != nil {
					return err
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := buildLogger()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			// Interrupts stop the job between steps; a running git or
			// pytest invocation is left to finish.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, runErr := harness.Run(ctx, harness.Job{
				InstanceID:    cfg.InstanceID,
				RepoDir:       cfg.RepoDir,
				Baseline:      cfg.Baseline,
				TestPatchPath: cfg.TestPatch,
				CodePatchPath: cfg.CodePatch,
				OutputPath:    cfg.Output,
				ReportPath:    cfg.Report,
				PytestBinary:  cfg.Pytest,
				TestExtension: cfg.TestExtension,
				DefaultScope:  cfg.DefaultScope,
				Logger:        logger,
				Console:       buildConsole(),
			})
			if runErr != nil {
				logger.Error("verification job failed", zap.Error(runErr))
			}
			if code := result.ExitCode(); code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "job config file (default fixcheck.yaml if present)")
	cmd.Flags().StringVar(&taskPath, "task", "", "task descriptor JSON to materialize patches and settings from")
	cmd.Flags().StringVar(&workDir, "workdir", ".", "directory patches are materialized into with --task")
	cmd.Flags().StringVar(&instanceID, "instance", "", "instance identifier keying the record")
	cmd.Flags().StringVar(&repoDir, "repo", "", "git working tree under test")
	cmd.Flags().StringVar(&baseline, "baseline", "", "baseline revision to reset to")
	cmd.Flags().StringVar(&testPatch, "test-patch", "", "test patch file")
	cmd.Flags().StringVar(&codePatch, "code-patch", "", "code patch file")
	cmd.Flags().StringVar(&output, "output", "", "verification record path")
	cmd.Flags().StringVar(&report, "report", "", "transient JUnit report path")
	cmd.Flags().StringVar(&pytest, "pytest", "", "test runner binary")
	return cmd
}

// materializeTask fills job settings from a task descriptor and writes its
// patches into workDir. Explicit config values win over descriptor values.
func materializeTask(taskPath, workDir string, cfg *jobconfig.Config) error {
	desc, err := taskdesc.Load(taskPath)
	if err != nil {
		return err
	}
	testPatch, codePatch, err := desc.WritePatches(workDir)
	if err != nil {
		return err
	}
	cfg.TestPatch = testPatch
	cfg.CodePatch = codePatch
	if cfg.InstanceID == "" {
		cfg.InstanceID = desc.InstanceID
	}
	if cfg.Baseline == "" {
		cfg.Baseline = desc.BaseCommit
	}
	if cfg.Output == "" || cfg.Output == jobconfig.Default().Output {
		cfg.Output = filepath.Join(workDir, "results.json")
	}
	return nil
}
