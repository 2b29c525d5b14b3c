package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidahmann/fixcheck/core/patchscan"
)

type scopeOutput struct {
	Files  []string `json:"files"`
	Source string   `json:"source"`
}

func newScopeCmd() *cobra.Command {
	var (
		patchPath  string
		extension  string
		defaults   []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Print the test scope a patch resolves to",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			scope := patchscan.Resolve(patchPath, patchscan.Options{
				Extension: extension,
				Defaults:  defaults,
			})
			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(scopeOutput{
					Files:  scope.Files,
					Source: string(scope.Source),
				})
			}
			for _, file := range scope.Files {
				fmt.Println(file)
			}
			if !scope.FromPatch() {
				fmt.Fprintf(os.Stderr, "note: default scope used (%s)\n", scope.Source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patchPath, "patch", "test.patch", "patch file to scan")
	cmd.Flags().StringVar(&extension, "extension", "", "test-source extension (default .py)")
	cmd.Flags().StringSliceVar(&defaults, "default", nil, "fallback scope entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	return cmd
}
