package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidahmann/fixcheck/core/taskdesc"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work with task descriptor files",
	}
	cmd.AddCommand(newTaskValidateCmd())
	cmd.AddCommand(newTaskPatchesCmd())
	return cmd
}

func newTaskValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <descriptor.json>...",
		Short: "Validate task descriptors against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			invalid := 0
			for _, path := range args {
				// #nosec G304 -- descriptor paths come from the operator.
				raw, err := os.ReadFile(path)
				if err == nil {
					err = taskdesc.Validate(raw)
				}
				if err != nil {
					invalid++
					fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Printf("OK   %s\n", path)
			}
			if invalid > 0 {
				return exitError{code: 1}
			}
			return nil
		},
	}
}

func newTaskPatchesCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "patches <descriptor.json>",
		Short: "Materialize test.patch and code.patch from a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			desc, err := taskdesc.Load(args[0])
			if err != nil {
				return err
			}
			testPatch, codePatch, err := desc.WritePatches(outDir)
			if err != nil {
				return err
			}
			fmt.Println(testPatch)
			fmt.Println(codePatch)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the patch files into")
	return cmd
}
