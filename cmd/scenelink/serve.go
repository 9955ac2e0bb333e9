package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/codefionn/scenelink/internal/bridgeserver"
	"github.com/codefionn/scenelink/internal/logger"
	"github.com/codefionn/scenelink/internal/tempdir"
)

const staleSweepInterval = 10 * time.Minute

func serveCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo host with the built-in command executor",
		Long: `serve runs the host side of the bridge with a small built-in
executor (ping, get_scene_info, save_snapshot). A real host application
embeds bridgeserver directly and registers its own executor; this
command exists for integration testing and demos.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			payloads, err := tempdir.New()
			if err != nil {
				return err
			}
			defer payloads.Close()

			srv := bridgeserver.NewServer(cfg.Bridge, nil, newDemoExecutor(payloads))
			if err := srv.Start(); err != nil {
				return err
			}
			defer srv.Stop()

			if metricsAddr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.Error("Metrics endpoint failed: %v", err)
					}
				}()
				logger.Info("Prometheus metrics on http://%s/metrics", metricsAddr)
			}

			sweep := time.NewTicker(staleSweepInterval)
			defer sweep.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			fmt.Printf("scenelink host listening on %s (payload dir: %s)\n", srv.Addr(), payloads.Root())

			for {
				select {
				case <-sweep.C:
					payloads.CleanupStale(time.Hour)
				case s := <-sig:
					logger.Info("Received signal %v, shutting down", s)
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. 127.0.0.1:9877)")

	return cmd
}
