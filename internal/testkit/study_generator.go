// Package testkit generates synthetic study directories with the layout the
// loaders expect: per-assessment response files, the clinical diagnosis
// table and previously-run model directories.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"phenosum/app"
	"phenosum/domain/diagnosis"
	"phenosum/domain/modelrun"
	"phenosum/domain/table"
	"phenosum/ports"
)

// StudyConfig configures the synthetic study generator
type StudyConfig struct {
	ParticipantCount   int      `json:"participant_count"`
	Assessments        []string `json:"assessments"`
	ItemsPerAssessment int      `json:"items_per_assessment"`
	DataType           string   `json:"data_type"`
	PrimaryDiagnosis   string   `json:"primary_diagnosis"`
	Models             []string `json:"models"`
	RunsPerModel       int      `json:"runs_per_model"`
	Seed               int64    `json:"seed"`
}

// DefaultStudyConfig returns a small reading-impairment study
func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		ParticipantCount:   200,
		Assessments:        []string{"Parent", "Child", "Teacher"},
		ItemsPerAssessment: 5,
		DataType:           "preprocessed",
		PrimaryDiagnosis:   "Specific Learning Disorder with Impairment in Reading",
		Models:             []string{"reading-basic_demographics-multiple-classifiers-models"},
		RunsPerModel:       4,
		Seed:               42,
	}
}

// Study is a generated dataset
type Study struct {
	Responses map[string]*table.Table
	Diagnosis *table.Table
	// Runs maps a run directory, relative to the study root, to its
	// performance table.
	Runs map[string]*table.Table
}

// StudyGenerator generates synthetic phenotypic studies
type StudyGenerator struct {
	config StudyConfig
	rng    *rand.Rand
}

// NewStudyGenerator creates a new study generator
func NewStudyGenerator(config StudyConfig) *StudyGenerator {
	return &StudyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

type participant struct {
	id         string
	sex        string
	age        float64
	categories []string
}

// Generate builds every table of the study
func (g *StudyGenerator) Generate() (*Study, error) {
	if g.config.ParticipantCount <= 0 {
		return nil, fmt.Errorf("participant count must be positive")
	}

	people := make([]participant, g.config.ParticipantCount)
	for i := range people {
		people[i] = g.newParticipant(i)
	}

	study := &Study{
		Responses: make(map[string]*table.Table, len(g.config.Assessments)),
		Runs:      make(map[string]*table.Table),
	}

	var err error
	if study.Diagnosis, err = g.diagnosisTable(people); err != nil {
		return nil, err
	}
	for _, assessment := range g.config.Assessments {
		if study.Responses[assessment], err = g.responseTable(assessment, people); err != nil {
			return nil, err
		}
	}
	for m, model := range g.config.Models {
		for r := 0; r < g.config.RunsPerModel; r++ {
			dir := filepath.Join(modelrun.ModelsDir, fmt.Sprintf("2023-%02d-%s", m+1, model), fmt.Sprintf("run-%02d", r+1))
			if study.Runs[dir], err = g.performanceTable(people); err != nil {
				return nil, err
			}
		}
	}
	return study, nil
}

var comorbidCategories = []string{"ADHD", "Anxiety Disorders", "Depressive Disorders", "Autism Spectrum Disorder"}

func (g *StudyGenerator) newParticipant(i int) participant {
	p := participant{
		id:  fmt.Sprintf("NDAR%06d", i+1),
		sex: strconv.Itoa(g.rng.Intn(2)),
		age: math.Round((5+g.rng.Float64()*16)*10) / 10,
	}

	// Primary category is weighted toward the study diagnosis
	switch r := g.rng.Float64(); {
	case r < 0.1:
		p.categories = []string{"No Diagnosis Given"}
		return p
	case r < 0.45:
		p.categories = []string{g.config.PrimaryDiagnosis}
	default:
		p.categories = []string{comorbidCategories[g.rng.Intn(len(comorbidCategories))]}
	}

	// Each further slot is less likely to be filled
	for slot := 2; slot <= diagnosis.SlotCount; slot++ {
		if g.rng.Float64() > 0.6/float64(slot-1) {
			break
		}
		pool := append([]string{g.config.PrimaryDiagnosis}, comorbidCategories...)
		p.categories = append(p.categories, pool[g.rng.Intn(len(pool))])
	}
	return p
}

func (g *StudyGenerator) diagnosisTable(people []participant) (*table.Table, error) {
	header := make([]string, 0, len(diagnosis.DemographicRenames)+2*diagnosis.SlotCount)
	for _, r := range diagnosis.DemographicRenames {
		header = append(header, r.From)
	}
	header = append(header, diagnosis.SlotColumns()...)

	sites := []string{"Staten Island", "Midtown", "Harlem"}
	records := make([][]string, len(people))
	for i, p := range people {
		row := make([]string, len(header))
		for j, r := range diagnosis.DemographicRenames {
			switch r.To {
			case diagnosis.IdentifierField:
				row[j] = p.id
			case diagnosis.SexField:
				row[j] = p.sex
			case diagnosis.AgeField:
				row[j] = strconv.FormatFloat(p.age, 'f', 1, 64)
			case diagnosis.RaceField:
				row[j] = strconv.Itoa(g.rng.Intn(6))
			case diagnosis.EthnicityField:
				row[j] = strconv.Itoa(g.rng.Intn(2))
			case diagnosis.EnrollYearField:
				row[j] = strconv.Itoa(2015 + g.rng.Intn(6))
			case diagnosis.SiteField:
				row[j] = sites[g.rng.Intn(len(sites))]
			case diagnosis.ComorbiditiesField:
				row[j] = strconv.Itoa(len(p.categories) - 1)
			}
		}
		base := len(diagnosis.DemographicRenames)
		for s, cat := range p.categories {
			row[base+2*s] = cat
			row[base+2*s+1] = cat + " (synthetic)"
		}
		records[i] = row
	}
	return table.FromRecords(header, records)
}

func (g *StudyGenerator) responseTable(assessment string, people []participant) (*table.Table, error) {
	prefix := strings.ToUpper(assessment[:min(3, len(assessment))])
	header := []string{diagnosis.IdentifierField}
	for item := 1; item <= g.config.ItemsPerAssessment; item++ {
		header = append(header, fmt.Sprintf("numeric__%s_%02d", prefix, item))
	}
	header = append(header, diagnosis.SexField)

	var records [][]string
	for _, p := range people {
		// Not every participant completes every assessment
		if g.rng.Float64() < 0.1 {
			continue
		}
		row := []string{p.id}
		for item := 0; item < g.config.ItemsPerAssessment; item++ {
			if g.rng.Float64() < 0.05 {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.Itoa(g.rng.Intn(4)))
		}
		row = append(row, p.sex)
		records = append(records, row)
	}
	return table.FromRecords(header, records)
}

func (g *StudyGenerator) performanceTable(people []participant) (*table.Table, error) {
	// A run's cohort is the primary diagnosis plus one comorbid category
	comorbid := comorbidCategories[g.rng.Intn(len(comorbidCategories))]
	var ids []string
	for _, p := range people {
		if p.categories[0] == g.config.PrimaryDiagnosis || p.categories[0] == comorbid {
			ids = append(ids, p.id)
		}
	}
	participants := strings.Join(ids, modelrun.ParticipantSeparator)

	header := []string{modelrun.ParticipantsColumn, modelrun.TargetColumn, modelrun.DataColumn,
		modelrun.ClassifierColumn, modelrun.AssessmentColumn, "roc_auc_score"}
	var records [][]string
	for _, assessment := range []string{"Parent Measures", "Child Measures", "Teacher Measures"} {
		for _, clf := range []string{"DecisionTreeClassifier", "SVC", "LogisticRegression"} {
			for _, variant := range []string{modelrun.VariantModelData, modelrun.VariantModelNull} {
				score := 0.45 + g.rng.Float64()*0.1
				if variant == modelrun.VariantModelData {
					score = 0.6 + g.rng.Float64()*0.2
				}
				records = append(records, []string{participants, g.config.PrimaryDiagnosis, variant,
					clf, assessment, strconv.FormatFloat(score, 'f', 4, 64)})
			}
		}
	}
	return table.FromRecords(header, records)
}

// Write lays the study out under dir the way the loaders read it.
func (s *Study) Write(ctx context.Context, dir, dataType string, w ports.TableWriter) error {
	for assessment, t := range s.Responses {
		if err := w.WriteTable(ctx, filepath.Join(dir, app.ResponseFile(assessment, dataType)), t); err != nil {
			return err
		}
	}
	if err := w.WriteTable(ctx, filepath.Join(dir, diagnosis.DefaultFile), s.Diagnosis); err != nil {
		return err
	}
	for runDir, t := range s.Runs {
		if err := w.WriteTable(ctx, filepath.Join(dir, runDir, modelrun.PerformanceFile), t); err != nil {
			return err
		}
	}
	return nil
}
