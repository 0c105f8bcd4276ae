package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRankCmd creates the rank command
func NewRankCmd() *cobra.Command {
	var (
		n      int
		runID  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a snapshot and print the top URLs per domain",
		Long: `Rank loads a graph snapshot (the most recent one unless --run is given),
scores its edges with TF-IDF and the domain prior, runs weighted PageRank and
prints the top N URLs of every domain.`,
		Example: `  weaver rank -n 3
  weaver rank --run 0b6c5a7e-3f0e-4c55-9d3c-0a9f2e1c7b11`,
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

			if _, err := svc.LoadSnapshot(cmd.Context(), runID); err != nil {
				return fmt.Errorf("failed to load snapshot from %s: %w", cfg.DBPath, err)
			}

			clusters, err := svc.TopNPerDomain(n)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), output, clusters)
		},
	}

	cmd.Flags().IntVarP(&n, "top", "n", 0, "URLs per domain (defaults to ranking.top_n)")
	cmd.Flags().StringVar(&runID, "run", "", "Snapshot run id (see weaver snapshots)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the ranking to this file instead of stdout")

	return cmd
}
