package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"phenosum/internal/comorbidity"
	"phenosum/internal/modelresults"
	"phenosum/internal/report"

	"github.com/spf13/cobra"
)

func newReportCmd(load loader) *cobra.Command {
	var cohort cohortFlags
	var models modelFlags
	var out string
	var skipModels bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown or HTML report of the cohort and model summaries",
		Long: `Collect the comorbidity counts of the cohort, the primary diagnosis counts and
the model metric summary into one document. The format follows the --out
extension (.md or .html); without --out the markdown is printed.

Example: phenosum report --out report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			t, err := cohort.sourceTable(ctx, c, false)
			if err != nil {
				return err
			}
			comorbid, err := comorbidity.Comorbidities(t, c.Config.Analysis.ComorbidDisorders)
			if err != nil {
				return err
			}
			primary, err := comorbidity.CountDiagnosis(t, c.Config.Analysis.PrimaryDiagnosis)
			if err != nil {
				return err
			}

			req := cohort.request(c)
			doc := report.Document{
				Title: "Phenotypic cohort summary",
				Sections: []report.Section{
					{
						Title: "Comorbidities",
						Note: fmt.Sprintf("%d participants with %s in %v.",
							t.NumRows(), req.Filter.FilterColumn, req.Filter.FilterValues),
						Table: comorbidity.ComorbidityTable(comorbid),
					},
					{
						Title: "Primary diagnosis by slot",
						Note:  c.Config.Analysis.PrimaryDiagnosis,
						Table: comorbidity.DiagnosisCountTable(primary),
					},
				},
			}

			if !skipModels {
				filtered, err := models.filtered(ctx, cmd, c)
				if err != nil {
					return err
				}
				summaries, err := modelresults.Summarize(filtered, modelresults.SummaryRequest{})
				if err != nil {
					return err
				}
				doc.Sections = append(doc.Sections, report.Section{
					Title: "Model performance",
					Note: fmt.Sprintf("%s by %s over %d runs; chance level is %.1f.",
						modelresults.DefaultMetric, modelresults.DefaultGroupColumn, filtered.NumRows(), modelresults.ChanceLevel),
					Table: modelresults.SummaryTable(summaries),
				})
			}

			var body []byte
			switch strings.ToLower(filepath.Ext(out)) {
			case ".html", ".htm":
				body = doc.HTML()
			default:
				body = doc.Markdown()
			}
			if out == "" {
				_, err := os.Stdout.Write(body)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			c.Logger.Info("Report written to %s", out)
			return nil
		},
	}

	cohort.register(cmd)
	models.register(cmd)
	cmd.Flags().BoolVar(&skipModels, "skip-models", false, "Leave out the model performance section")
	cmd.Flags().StringVar(&out, "out", "", "Output .md or .html path")
	return cmd
}
