package main

import (
	"context"
	"fmt"

	"phenosum/app"
	"phenosum/domain/table"
	"phenosum/internal/container"
	"phenosum/internal/modelresults"
	"phenosum/ports"

	"github.com/spf13/cobra"
)

type modelFlags struct {
	in       string
	batch    string
	models   []string
	criteria modelresults.Criteria
	ages     []string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	d := modelresults.DefaultCriteria()
	f.criteria = d
	cmd.Flags().StringVar(&f.in, "in", "", "Aggregated model table to read instead of scanning the run directories")
	cmd.Flags().StringVar(&f.batch, "batch", "", "Exported batch id to read from DATABASE_URL instead of scanning the run directories")
	cmd.MarkFlagsMutuallyExclusive("in", "batch")
	cmd.Flags().StringSliceVar(&f.models, "model", nil, "Model names (default from analysis config)")
	cmd.Flags().StringSliceVar(&f.criteria.Sexes, "sex", d.Sexes, "Allowed sex values")
	cmd.Flags().StringSliceVar(&f.criteria.DataVariants, "data", d.DataVariants, "Allowed data variants")
	cmd.Flags().StringSliceVar(&f.criteria.Assessments, "measure", d.Assessments, "Allowed assessment measures")
	cmd.Flags().StringSliceVar(&f.criteria.Classifiers, "clf", d.Classifiers, "Allowed classifiers")
	cmd.Flags().StringSliceVar(&f.criteria.Categories, "category", d.Categories, "Allowed category_new values")
	cmd.Flags().StringSliceVar(&f.ages, "age", nil, "Allowed age labels (default: any)")
}

func (f *modelFlags) modelNames(c *container.Container) []string {
	if len(f.models) > 0 {
		return f.models
	}
	return c.Config.Analysis.ModelNames
}

// filtered loads the aggregated table and applies the criteria flags.
func (f *modelFlags) filtered(ctx context.Context, cmd *cobra.Command, c *container.Container) (*table.Table, error) {
	var models *table.Table
	var err error
	switch {
	case f.in != "":
		models, err = c.Reader.ReadTable(ctx, f.in)
	case f.batch != "":
		models, err = loadBatch(ctx, c, f.batch)
	default:
		req := c.LoadRequest()
		req.ModelNames = f.modelNames(c)
		models, err = c.Models.Load(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	criteria := f.criteria
	criteria.ModelNames = f.modelNames(c)
	if cmd.Flags().Changed("age") {
		criteria.Ages = f.ages
	}
	return modelresults.Filter(models, criteria)
}

func loadBatch(ctx context.Context, c *container.Container, id string) (*table.Table, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Exports.LoadModelResults(ctx, id)
}

func newBatchesCmd(load loader) *cobra.Command {
	var kind, out string
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List the batches exported to DATABASE_URL",
		Long: `List exported batches, newest first. A model_results batch id can be passed to
filter-models, summarize or report with --batch.

Example: phenosum batches --kind comorbidities --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			if err := c.Connect(cmd.Context()); err != nil {
				return err
			}
			defer c.Close()

			batches, err := c.Exports.Batches(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, app.BatchTable(batches))
		},
	}

	cmd.Flags().StringVar(&kind, "kind", ports.BatchKindModelResults, "Batch kind: model_results or comorbidities")
	cmd.Flags().IntVar(&limit, "limit", app.DefaultBatchLimit, "Maximum number of batches")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}

func newModelsCmd(load loader) *cobra.Command {
	var models []string
	var save, export bool
	var out string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Aggregate the performance tables of previously-run models",
		Long: `Scan <data-dir>/models/*<model>/* for run directories, annotate every run's
performance table with its cohort's diagnoses, category, sex and age, and
concatenate the runs. Runs without a usable performance file are skipped.

Example: phenosum models --save --out all-models.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			req := c.LoadRequest()
			if len(models) > 0 {
				req.ModelNames = models
			}
			req.Save = save

			results, err := c.Models.Load(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("%d model rows from %d models\n", results.NumRows(), len(req.ModelNames))

			if export {
				if err := c.Connect(cmd.Context()); err != nil {
					return err
				}
				defer c.Close()
				if _, err := c.Exports.ExportModelResults(cmd.Context(), req.RootDir, results); err != nil {
					return err
				}
			}
			if out == "" {
				return nil
			}
			return c.Writer.WriteTable(cmd.Context(), out, results)
		},
	}

	cmd.Flags().StringSliceVar(&models, "model", nil, "Model names (default from analysis config)")
	cmd.Flags().BoolVar(&save, "save", false, "Write <data-dir>/models/<model>.csv for each model")
	cmd.Flags().BoolVar(&export, "export", false, "Also export the aggregated table to DATABASE_URL")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path for all models")
	return cmd
}

func newFilterModelsCmd(load loader) *cobra.Command {
	var flags modelFlags
	var out string

	cmd := &cobra.Command{
		Use:   "filter-models",
		Short: "Select model rows by sex, data variant, assessment, classifier and category",
		Long: `Filter the aggregated model table. Every list flag is an allow-list and all of
them must match. Defaults select real-data decision tree runs on parent measures
for the depressive-disorder cohort of all sexes.

Example: phenosum filter-models --in all-models.csv --sex all --clf SVC,DecisionTreeClassifier
         phenosum filter-models --batch <id from "phenosum batches">`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			t, err := flags.filtered(cmd.Context(), cmd, c)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, t)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}

func newSummarizeCmd(load loader) *cobra.Command {
	var flags modelFlags
	var req modelresults.SummaryRequest
	var out string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Describe a model metric per group of the filtered model table",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			t, err := flags.filtered(cmd.Context(), cmd, c)
			if err != nil {
				return err
			}
			summaries, err := modelresults.Summarize(t, req)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, modelresults.SummaryTable(summaries))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&req.Group, "group", modelresults.DefaultGroupColumn, "Grouping column")
	cmd.Flags().StringVar(&req.Hue, "hue", "", "Optional second grouping column")
	cmd.Flags().StringVar(&req.Metric, "metric", modelresults.DefaultMetric, "Metric column")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}
