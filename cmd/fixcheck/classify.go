package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidahmann/fixcheck/core/classify"
	"github.com/davidahmann/fixcheck/core/junitxml"
	"github.com/davidahmann/fixcheck/core/record"
)

type classifyOutput struct {
	Resolved    bool               `json:"resolved"`
	Removed     []string           `json:"removed,omitempty"`
	TestsStatus record.TestsStatus `json:"tests_status"`
}

func newClassifyCmd() *cobra.Command {
	var prePath, postPath string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify transitions between two existing JUnit reports",
		Long: "classify reads two JUnit XML reports produced outside the harness and " +
			"prints the transition buckets and verdict. Unlike a verification run, the " +
			"report files are left in place. The exit status is 0 only for a resolved verdict.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			pre, err := parseReportFile(prePath)
			if err != nil {
				return err
			}
			post, err := parseReportFile(postPath)
			if err != nil {
				return err
			}

			outcome := classify.Classify(pre, post)
			rec := record.New()
			rec.SetOutcome(outcome)

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(classifyOutput{
				Resolved:    outcome.Resolved,
				Removed:     outcome.Removed,
				TestsStatus: rec.TestsStatus,
			}); err != nil {
				return err
			}
			if !outcome.Resolved {
				return exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prePath, "pre", "", "pre-change JUnit XML report")
	cmd.Flags().StringVar(&postPath, "post", "", "post-change JUnit XML report")
	_ = cmd.MarkFlagRequired("pre")
	_ = cmd.MarkFlagRequired("post")
	return cmd
}

func parseReportFile(path string) (junitxml.StatusMap, error) {
	// #nosec G304 -- report paths come from the operator.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer func() { _ = file.Close() }()
	return junitxml.Parse(file)
}
