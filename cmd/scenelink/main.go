package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codefionn/scenelink/internal/config"
	"github.com/codefionn/scenelink/internal/logger"
)

var (
	flagConfig   string
	flagHost     string
	flagPort     int
	flagLogLevel string
	flagLogFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scenelink",
		Short: "Socket bridge between LLM clients and a 3D content tool",
		Long: `scenelink bridges an LLM-facing control process to a stateful,
single-threaded 3D content tool over a local TCP socket. Commands are
JSON documents; all domain execution is serialized onto one host
execution loop no matter how many clients are connected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "bridge host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "bridge port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, none")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path (default: stderr)")

	rootCmd.AddCommand(
		serveCmd(),
		sendCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration from file, environment
// and command-line flags, and initializes the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	if flagHost != "" {
		cfg.Bridge.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Bridge.Port = flagPort
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFile != "" {
		cfg.Log.Path = flagLogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(logger.ParseLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}
