package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	var (
		seeds      []string
		extractors []string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl from seeds, persist a snapshot and print the graph",
		Long: `Crawl runs one bounded crawl per seed, merges the resulting graphs,
saves the merged graph as a snapshot and writes it in node-link JSON form.

Seeds and extractors default to the configured values. Interrupting the
crawl stops it after the current round.`,
		Example: `  weaver crawl --seed example.com --extractor email
  weaver crawl -c config.yaml -o graph.json`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			nl, err := svc.BuildGraph(ctx, seeds, extractors)
			if err != nil {
				return fmt.Errorf("crawl failed: %w", err)
			}

			m := svc.Metrics()
			logrus.Infof("Crawl finished (%s): %d pages fetched, %d failed, %d nodes, %d edges, snapshot %s",
				m.TerminationReason, m.PagesFetched, m.PagesFailed, len(nl.Nodes), len(nl.Links), m.RunID)

			return writeJSON(cmd.OutOrStdout(), output, nl)
		},
	}

	cmd.Flags().StringSliceVarP(&seeds, "seed", "s", nil, "Seed URL (repeatable, defaults to configured seeds)")
	cmd.Flags().StringSliceVarP(&extractors, "extractor", "e", nil, "Extractor name (repeatable, defaults to configured extractors)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph to this file instead of stdout")

	return cmd
}

// writeJSON writes v indented to path, or to out when path is empty
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if path == "" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logrus.Infof("Output written to %s", path)
	return nil
}
