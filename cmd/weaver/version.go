package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alvmarrod/graph-weaver/internal/version"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "weaver version %s\n", version.String())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", version.CommitHash())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", version.BuildDate())
		},
	}
}
