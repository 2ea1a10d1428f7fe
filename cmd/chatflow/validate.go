package main

import (
	"fmt"

	"github.com/aretw0/chatflow"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the conversation graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if _, err := chatflow.New(chatflow.WithMaxSteps(cfg.MaxSteps)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (provider=%s, store=%s).\n", cfg.Provider, cfg.Store.Kind)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
