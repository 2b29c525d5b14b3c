// Command fixcheck decides whether a candidate code patch fixes previously
// failing tests without breaking previously passing ones, by running the
// test suite before and after the patch and classifying every transition.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/davidahmann/fixcheck/core/console"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

var (
	flagDebug bool
	flagQuiet bool
)

// exitError carries a specific process exit status out of a subcommand.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fixcheck",
		Short:         "Differential regression verdicts for candidate patches",
		Long:          "fixcheck resets a repository to a baseline, runs the test suite with and without a candidate patch, and classifies every test transition into a resolution verdict.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress progress output")

	root.AddCommand(newVerifyCmd())
	root.AddCommand(newScopeCmd())
	root.AddCommand(newClassifyCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// buildLogger returns a structured logger writing to stderr, leaving stdout
// to the progress console and JSON outputs.
func buildLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if flagDebug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// buildConsole returns the progress console, or a silent one under --quiet.
func buildConsole() *console.Console {
	if flagQuiet {
		return nil
	}
	return console.New(os.Stdout)
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
