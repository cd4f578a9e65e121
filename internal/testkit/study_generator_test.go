package testkit

import (
	"context"
	"io"
	"testing"

	"phenosum/adapters/tabular"
	"phenosum/app"
	"phenosum/internal"
	"phenosum/internal/cohort"
	"phenosum/internal/comorbidity"
	"phenosum/internal/modelresults"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() StudyConfig {
	cfg := DefaultStudyConfig()
	cfg.ParticipantCount = 60
	cfg.RunsPerModel = 2
	return cfg
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := NewStudyGenerator(smallConfig()).Generate()
	require.NoError(t, err)
	b, err := NewStudyGenerator(smallConfig()).Generate()
	require.NoError(t, err)

	assert.Equal(t, a.Diagnosis.Records(), b.Diagnosis.Records())
	assert.Equal(t, a.Responses["Parent"].Records(), b.Responses["Parent"].Records())
	assert.Len(t, a.Runs, 2)
}

func TestGenerateRejectsEmptyStudy(t *testing.T) {
	cfg := smallConfig()
	cfg.ParticipantCount = 0
	_, err := NewStudyGenerator(cfg).Generate()
	assert.Error(t, err)
}

func TestGeneratedStudyRunsThroughPipeline(t *testing.T) {
	ctx := context.Background()
	cfg := smallConfig()
	study, err := NewStudyGenerator(cfg).Generate()
	require.NoError(t, err)

	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	reader, writer := tabular.NewReader(logger), tabular.NewWriter(logger)
	dir := t.TempDir()
	require.NoError(t, study.Write(ctx, dir, cfg.DataType, writer))

	cohorts := app.NewCohortService(reader, writer, logger)
	opts := cohort.DefaultFilterOptions()
	opts.FilterValues = []string{cfg.PrimaryDiagnosis}
	opts.RemoveDemographics = true
	fs, err := cohorts.BuildFeatureTable(ctx, app.FeatureRequest{
		DataDir:     dir,
		Assessments: cfg.Assessments,
		DataType:    cfg.DataType,
		Filter:      opts,
	})
	require.NoError(t, err)
	assert.Positive(t, fs.Table.NumRows())
	assert.Len(t, fs.Features, len(cfg.Assessments)*cfg.ItemsPerAssessment)
	assert.NotContains(t, fs.Features, "Sex")

	counts, err := comorbidity.CountDiagnosis(fs.Table, cfg.PrimaryDiagnosis)
	require.NoError(t, err)
	assert.Equal(t, fs.Table.NumRows(), counts[0].Count)

	models := app.NewModelResultsService(reader, writer, logger)
	results, err := models.Load(ctx, app.LoadRequest{
		RootDir:        dir,
		ModelNames:     cfg.Models,
		DiagnosisName:  cfg.PrimaryDiagnosis,
		KnownDiagnoses: []string{"ADHD", "Anxiety Disorders", "Depressive Disorders", "Autism Spectrum Disorder"},
	})
	require.NoError(t, err)
	assert.Equal(t, cfg.RunsPerModel*18, results.NumRows())

	sexes, err := results.Unique("sex")
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, sexes)

	criteria := modelresults.DefaultCriteria()
	criteria.ModelNames = cfg.Models
	criteria.Categories = []string{"ADHD", "Anxiety Disorders", "Depressive Disorders", "Autism Spectrum Disorder"}
	filtered, err := modelresults.Filter(results, criteria)
	require.NoError(t, err)
	assert.Equal(t, cfg.RunsPerModel, filtered.NumRows())
}
