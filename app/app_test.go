package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phenosum/adapters/tabular"
	"phenosum/domain/core"
	"phenosum/internal"
	"phenosum/internal/cohort"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func services(t *testing.T) (*CohortService, *ModelResultsService, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := internal.NewLoggerTo(&buf, internal.LogLevelDebug)
	reader, writer := tabular.NewReader(logger), tabular.NewWriter(logger)
	return NewCohortService(reader, writer, logger), NewModelResultsService(reader, writer, logger), &buf
}

func diagnosisCSV() string {
	header := []string{"Identifiers", "Sex", "Age", "PreInt_Demos_Fam,Child_Race_cat",
		"PreInt_Demos_Fam,Child_Ethnicity_cat", "Enroll_Year", "Site", "comorbidities"}
	for i := 1; i <= 10; i++ {
		header = append(header, fmt.Sprintf("DX_%02d_Cat_new", i), fmt.Sprintf("DX_%02d", i))
	}
	line := func(id, sex, age, cat, dx string) string {
		cells := []string{id, sex, age, "1", "0", "2019", "Staten Island", "1", cat, dx}
		for len(cells) < len(header) {
			cells = append(cells, "")
		}
		return strings.Join(cells, ",")
	}
	quoted := make([]string, len(header))
	for i, h := range header {
		quoted[i] = `"` + h + `"`
	}
	return strings.Join([]string{
		strings.Join(quoted, ","),
		line("A", "1", "10.4", "ADHD", "ADHD-Combined Type"),
		line("B", "0", "11.6", "Specific Learning Disorder with Impairment in Reading", "Reading"),
		line("C", "1", "9.9", "Depressive Disorders", "Major Depressive Disorder"),
	}, "\n") + "\n"
}

func TestLoadResponsesJoinsAssessments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Parent-features-preprocessed.csv"),
		"Identifiers,numeric__SDQ_01,Sex\nA,1,F\nB,2,M\nC,3,F\n")
	writeFile(t, filepath.Join(dir, "Child-features-preprocessed.csv"),
		"Identifiers,numeric__SCARED_01\nB,4\nA,5\n")

	svc, _, _ := services(t)
	joined, err := svc.LoadResponses(context.Background(), dir, []string{"Parent", "Child"}, "preprocessed")
	require.NoError(t, err)

	assert.Equal(t, []string{"Identifiers", "SDQ_01", "Sex", "SCARED_01"}, joined.Labels())
	assert.Equal(t, [][]string{{"A", "1", "F", "5"}, {"B", "2", "M", "4"}}, joined.Records())
}

func TestLoadResponsesMissingFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Parent-features-raw.csv"), "Identifiers,X\nA,1\n")

	svc, _, _ := services(t)
	_, err := svc.LoadResponses(context.Background(), dir, []string{"Parent", "Teacher"}, "raw")
	assert.ErrorIs(t, err, core.ErrMissingInputFile)
}

func TestBuildFeatureTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Parent-features-preprocessed.csv"),
		"Identifiers,numeric__SDQ_01,Sex\nA,1,F\nB,2,M\nC,3,F\n")
	writeFile(t, filepath.Join(dir, "Clinical_Diagnosis_Demographics.csv"), diagnosisCSV())

	svc, _, _ := services(t)
	fs, err := svc.BuildFeatureTable(context.Background(), FeatureRequest{
		DataDir:     dir,
		Assessments: []string{"Parent"},
		DataType:    "preprocessed",
		Filter:      cohort.DefaultFilterOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fs.Table.NumRows())
	assert.Equal(t, []string{"SDQ_01", "Sex"}, fs.Features)

	out := filepath.Join(dir, "out", "features.csv")
	require.NoError(t, svc.WriteFeatureSet(context.Background(), out, fs))
	assert.FileExists(t, out)
	columns, err := os.ReadFile(filepath.Join(dir, "out", "features-columns.csv"))
	require.NoError(t, err)
	assert.Equal(t, "feature\nSDQ_01\nSex\n", string(columns))
}

const perfHeader = "participants,target,data,clf,assessment,roc_auc_score\n"

func TestModelResultsLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Clinical_Diagnosis_Demographics.csv"), diagnosisCSV())

	models := filepath.Join(root, "models", "2023-01-reading-models")
	writeFile(t, filepath.Join(models, "run-a", "classifier-all-phenotypic-models-performance.csv"),
		perfHeader+"A-B,Reading,model-data,SVC,Parent Measures,0.7\nA-B,Reading,model-null,SVC,Parent Measures,0.5\n")
	writeFile(t, filepath.Join(models, "run-a", "classifier-feature_importance.csv"), "feature,importance\n")
	writeFile(t, filepath.Join(models, "run-b", "classifier-all-phenotypic-models-performance.csv"),
		perfHeader+"C,Reading,model-data,SVC,Child Measures,0.6\n")
	require.NoError(t, os.MkdirAll(filepath.Join(models, "run-empty"), 0o755))
	writeFile(t, filepath.Join(models, "run-unknown", "classifier-all-phenotypic-models-performance.csv"),
		perfHeader+"Z,Reading,model-data,SVC,Child Measures,0.6\n")

	_, svc, logs := services(t)
	req := LoadRequest{
		RootDir:        root,
		ModelNames:     []string{"reading-models"},
		DiagnosisName:  "Specific Learning Disorder with Impairment in Reading",
		KnownDiagnoses: []string{"ADHD", "Depressive Disorders"},
		Save:           true,
	}
	out, err := svc.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())

	sex, _ := out.Values("sex")
	assert.Equal(t, []string{"all", "all", "1"}, sex)
	age, _ := out.Values("age")
	assert.Equal(t, []string{"10-12", "10-12", "10"}, age)
	data, _ := out.Values("data")
	assert.Equal(t, []string{"null", "data", "null"}, data)
	cat, _ := out.Values("category_new")
	assert.Equal(t, []string{"ADHD", "ADHD", "Depressive Disorders"}, cat)
	group, _ := out.Values("participant_group")
	assert.Equal(t, []string{"all_10-12", "all_10-12", "1_10"}, group)
	importance, _ := out.Values("feature_importance")
	assert.True(t, strings.HasSuffix(importance[0], "classifier-feature_importance.csv"))
	assert.Empty(t, importance[2])

	assert.FileExists(t, filepath.Join(root, "models", "reading-models.csv"))
	assert.Contains(t, logs.String(), "run-empty")
	assert.Contains(t, logs.String(), "run-unknown")
}

func TestModelResultsLoadMissingDiagnosis(t *testing.T) {
	_, svc, _ := services(t)
	_, err := svc.Load(context.Background(), LoadRequest{RootDir: t.TempDir(), ModelNames: []string{"m"}})
	assert.ErrorIs(t, err, core.ErrMissingInputFile)
}

func TestModelResultsLoadNoRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Clinical_Diagnosis_Demographics.csv"), diagnosisCSV())

	_, svc, _ := services(t)
	out, err := svc.Load(context.Background(), LoadRequest{RootDir: root, ModelNames: []string{"m"}})
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "dx.csv"), ResolvePath("data", "dx.csv", "x.csv"))
	assert.Equal(t, filepath.Join("data", "x.csv"), ResolvePath("data", "", "x.csv"))
	assert.Equal(t, "/abs/dx.csv", ResolvePath("data", "/abs/dx.csv", "x.csv"))
}
