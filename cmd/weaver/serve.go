package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alvmarrod/graph-weaver/internal/server"
	"github.com/alvmarrod/graph-weaver/internal/storage"
	"github.com/alvmarrod/graph-weaver/internal/version"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API over HTTP",
		Long: `Serve exposes POST /api/v1/graph to build a graph from seeds and
GET /api/v1/graph/top?n=N to rank it. The latest snapshot is loaded on start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			svc, db, err := newService(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := svc.LoadSnapshot(cmd.Context(), ""); err != nil {
				if !errors.Is(err, storage.ErrNoSnapshot) {
					return err
				}
				logrus.Info("No snapshot found, starting with an empty graph")
			}

			if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logrus.Infof("graph-weaver %s starting", version.String())
			return server.New(cfg.Server.Addr, server.NewRouter(svc, version.String())).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")

	return cmd
}
