package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChetanaCoder/bom-comparison-clientversion/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bomcli",
	Short: "QA-to-supplier BOM comparison workflows",
	Long:  "Translates QA work instructions, extracts classified materials, and matches them against supplier catalogs with classification-aware thresholds.",
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
