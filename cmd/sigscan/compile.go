package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brahma-adshonor/sigpatch"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile PATTERN...",
		Short: "Check patterns and print them in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, text := range args {
				p, err := sigpatch.CompilePattern(text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%d bytes)\n", p, p.Len())
			}
			return nil
		},
	}
}
