package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "urbanaccess",
	Short: "Spatial accessibility of city services",
	Long:  "Builds an evaluation grid over a city's zones, aggregates service accessibility per age group with a distance-decay kernel, and exports zone indicators for visualization.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
