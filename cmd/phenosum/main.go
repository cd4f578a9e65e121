package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
	"phenosum/internal/config"
	"phenosum/internal/container"
	"phenosum/internal/report"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	var dataDir string
	rootCmd := &cobra.Command{
		Use:          "phenosum",
		Short:        "Summarize phenotypic cohorts and previously-run classifier models",
		Long:         rootHelp(),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override PHENOSUM_DATA_DIR")

	load := func() (*container.Container, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if dataDir != "" {
			cfg.Data.Dir = dataDir
		}
		return container.New(cfg)
	}

	rootCmd.AddCommand(
		newCohortCmd(load),
		newProfileCmd(load),
		newComorbidityCmd(load),
		newCountCmd(load),
		newRewriteCmd(load),
		newModelsCmd(load),
		newFilterModelsCmd(load),
		newSummarizeCmd(load),
		newBatchesCmd(load),
		newReportCmd(load),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootHelp() string {
	return fmt.Sprintf(`phenosum joins questionnaire responses with the clinical diagnosis table,
filters diagnostic cohorts, counts comorbidities and aggregates the results of
previously-run classifier models.

Configuration is read from the environment (see .env):
- PHENOSUM_DATA_DIR (default: %s)
- PHENOSUM_ASSESSMENTS (default: %s)
- PHENOSUM_DATA_TYPE %s|%s (default: %s)
- PHENOSUM_DIAGNOSIS_FILE (default: %s)
- PHENOSUM_ANALYSIS_FILE (optional YAML label lists)
- DATABASE_URL (optional, for --export, --batch and batches)
- LOG_LEVEL (default: INFO)`,
		config.DefaultDataDir, strings.Join(config.DefaultAssessments, ","),
		config.DataTypePreprocessed, config.DataTypeRaw, config.DataTypePreprocessed,
		diagnosis.DefaultFile)
}

type loader func() (*container.Container, error)

// emit writes t to out, or prints it when out is empty.
func emit(ctx context.Context, c *container.Container, out string, t *table.Table) error {
	if out == "" {
		report.Terminal(os.Stdout, t)
		return nil
	}
	return c.Writer.WriteTable(ctx, out, t)
}
