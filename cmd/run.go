package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runQADoc    string
	runSupplier string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one BOM comparison workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initWorkflow(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Store.CreateRun(ctx, runQADoc, runSupplier)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		result, err := env.Pipeline.Run(ctx, run)
		if err != nil {
			return eris.Wrap(err, "workflow run")
		}

		zap.L().Info("comparison complete",
			zap.String("run_id", run.ID),
			zap.Int("qa_items", result.TotalQAItems),
			zap.Int("supplier_items", result.TotalSupplierItems),
			zap.Int("green", result.Summary.Green),
			zap.Int("amber", result.Summary.Amber),
			zap.Int("red", result.Summary.Red),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runQADoc, "qa-doc", "", "QA work-instruction document path (required)")
	runCmd.Flags().StringVar(&runSupplier, "supplier", "", "supplier catalog path or ftp:// URL (required)")
	_ = runCmd.MarkFlagRequired("qa-doc")
	_ = runCmd.MarkFlagRequired("supplier")
	rootCmd.AddCommand(runCmd)
}
