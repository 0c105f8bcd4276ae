package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewSnapshotsCmd creates the snapshots command
func NewSnapshotsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List persisted graph snapshots, newest first",
		Example: `  weaver snapshots
  weaver rank --run <run-id>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc, db, err := newService(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := svc.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), "", list)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tCREATED\tNODES\tEDGES\tSEEDS")
			for _, info := range list {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%v\n",
					info.RunID, info.CreatedAt.Format(time.RFC3339), info.NodeCount, info.EdgeCount, info.Seeds)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the list as JSON")

	return cmd
}
