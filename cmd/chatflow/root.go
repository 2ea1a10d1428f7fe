package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/internal/logging"
	"github.com/spf13/cobra"
)

// defaultConfigFile is picked up from the working directory when --config is not set.
const defaultConfigFile = "chatflow.yaml"

var rootCmd = &cobra.Command{
	Use:   "chatflow",
	Short: "chatflow is a graph-based conversational assistant",
	Long: `chatflow runs each conversation turn as a walk through a small graph of nodes
(respond, analyze) and persists the transcript per session.

Configuration is read from chatflow.yaml (or --config) and CHATFLOW_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file (default ./chatflow.yaml if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "Override the session store (memory, file, redis)")
}

// loadConfig resolves the configuration for cmd, applying flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Kind = store
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg.
func newLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.New(level)
}
