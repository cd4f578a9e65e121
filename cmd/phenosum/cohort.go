package main

import (
	"context"
	"fmt"

	"phenosum/app"
	"phenosum/domain/table"
	"phenosum/internal/comorbidity"
	"phenosum/internal/container"
	"phenosum/internal/profiling"

	"github.com/spf13/cobra"
)

type cohortFlags struct {
	filterColumn       string
	filterValues       []string
	noFilter           bool
	removeDemographics bool
	keepIdentifiers    bool
	assessments        []string
	dataType           string
}

func (f *cohortFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filterColumn, "filter-column", "", "Diagnosis column to filter on (default from analysis config)")
	cmd.Flags().StringSliceVar(&f.filterValues, "filter-value", nil, "Allowed values of the filter column (repeatable)")
	cmd.Flags().BoolVar(&f.noFilter, "no-filter", false, "Keep every participant present in both tables")
	cmd.Flags().BoolVar(&f.removeDemographics, "remove-demographics", false, "Drop response columns that duplicate diagnosis fields")
	cmd.Flags().BoolVar(&f.keepIdentifiers, "keep-identifiers", false, "Keep the Identifiers column")
	cmd.Flags().StringSliceVar(&f.assessments, "assessment", nil, "Assessments to load (default from PHENOSUM_ASSESSMENTS)")
	cmd.Flags().StringVar(&f.dataType, "data-type", "", "Response data type: preprocessed|raw")
}

// request applies the flags over the configured feature request.
func (f *cohortFlags) request(c *container.Container) app.FeatureRequest {
	req := c.FeatureRequest()
	if f.filterColumn != "" {
		req.Filter.FilterColumn = f.filterColumn
	}
	if len(f.filterValues) > 0 {
		req.Filter.FilterValues = f.filterValues
	}
	if f.noFilter {
		req.Filter.FilterValues = nil
	}
	if len(f.assessments) > 0 {
		req.Assessments = f.assessments
	}
	if f.dataType != "" {
		req.DataType = f.dataType
	}
	req.Filter.RemoveDemographics = f.removeDemographics
	req.Filter.DropIdentifiers = !f.keepIdentifiers
	return req
}

// sourceTable is the cohort table, or the whole diagnosis table when every
// participant is requested.
func (f *cohortFlags) sourceTable(ctx context.Context, c *container.Container, allParticipants bool) (*table.Table, error) {
	req := f.request(c)
	if allParticipants {
		return c.Cohorts.LoadDiagnosis(ctx, req.DiagnosisPath())
	}
	fs, err := c.Cohorts.BuildFeatureTable(ctx, req)
	if err != nil {
		return nil, err
	}
	return fs.Table, nil
}

func newCohortCmd(load loader) *cobra.Command {
	var flags cohortFlags
	var out string

	cmd := &cobra.Command{
		Use:   "cohort",
		Short: "Build the filtered feature table of a diagnostic cohort",
		Long: `Join every assessment's responses with the clinical diagnosis table and keep the
participants matching the filter. The feature table is written to --out and the
feature names to a "-columns" file next to it.

Example: phenosum cohort --filter-column Category --filter-value ADHD --out adhd.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			fs, err := c.Cohorts.BuildFeatureTable(cmd.Context(), flags.request(c))
			if err != nil {
				return err
			}
			fmt.Printf("%d participants, %d features\n", fs.Table.NumRows(), len(fs.Features))
			if out == "" {
				return nil
			}
			return c.Cohorts.WriteFeatureSet(cmd.Context(), out, fs)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}

func newComorbidityCmd(load loader) *cobra.Command {
	var flags cohortFlags
	var disorders []string
	var all bool
	var out string
	var export bool

	cmd := &cobra.Command{
		Use:   "comorbidity",
		Short: "Count comorbid disorders in each diagnosis slot",
		Long: `Count, for each of the ten diagnosis slots, the participants whose slot category
mentions each disorder. Runs on the filtered cohort unless --all is given.

Example: phenosum comorbidity --filter-value "Specific Learning Disorder with Impairment in Reading"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			t, err := flags.sourceTable(cmd.Context(), c, all)
			if err != nil {
				return err
			}
			if len(disorders) == 0 {
				disorders = c.Config.Analysis.ComorbidDisorders
			}
			counts, err := comorbidity.Comorbidities(t, disorders)
			if err != nil {
				return err
			}

			if export {
				if err := c.Connect(cmd.Context()); err != nil {
					return err
				}
				defer c.Close()
				if _, err := c.Exports.ExportComorbidities(cmd.Context(), c.Config.Data.Dir, counts); err != nil {
					return err
				}
			}
			return emit(cmd.Context(), c, out, comorbidity.ComorbidityTable(counts))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringSliceVar(&disorders, "disorder", nil, "Disorders to count (default from analysis config)")
	cmd.Flags().BoolVar(&all, "all", false, "Count over every participant of the diagnosis table")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	cmd.Flags().BoolVar(&export, "export", false, "Also export the counts to DATABASE_URL")
	return cmd
}

func newCountCmd(load loader) *cobra.Command {
	var flags cohortFlags
	var label string
	var all bool
	var out string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count exact occurrences of one diagnosis label in each slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			t, err := flags.sourceTable(cmd.Context(), c, all)
			if err != nil {
				return err
			}
			if label == "" {
				label = c.Config.Analysis.PrimaryDiagnosis
			}
			counts, err := comorbidity.CountDiagnosis(t, label)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, comorbidity.DiagnosisCountTable(counts))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&label, "label", "", "Diagnosis label (default: primary diagnosis)")
	cmd.Flags().BoolVar(&all, "all", false, "Count over every participant of the diagnosis table")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}

func newRewriteCmd(load loader) *cobra.Command {
	var from, to, out string

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Replace a diagnosis label in the slot category columns",
		Long: `Replace every slot category equal to --from with --to in the normalized
diagnosis table and write the result.

Example: phenosum rewrite --from "Attention-Deficit/Hyperactivity Disorder" --to ADHD --out dx.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			diag, err := c.Cohorts.LoadDiagnosis(cmd.Context(), c.FeatureRequest().DiagnosisPath())
			if err != nil {
				return err
			}
			rewritten, err := comorbidity.RewriteLabel(diag, from, to)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, rewritten)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Label to replace")
	cmd.Flags().StringVar(&to, "to", "", "Replacement label")
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newProfileCmd(load loader) *cobra.Command {
	var flags cohortFlags
	var out string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Describe every feature column of the cohort",
		Long: `Build the cohort feature table and report, for each feature, its missing
rate, distinct values and, for numeric features, the distribution shape.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			fs, err := c.Cohorts.BuildFeatureTable(cmd.Context(), flags.request(c))
			if err != nil {
				return err
			}
			profiles, err := profiling.ProfileFeatures(fs.Table, fs.Features)
			if err != nil {
				return err
			}
			return emit(cmd.Context(), c, out, profiling.ProfileTable(profiles))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output .csv or .xlsx path")
	return cmd
}
