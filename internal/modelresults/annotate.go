// Package modelresults turns per-run classifier performance tables into one
// analysis table annotated with each run's cohort metadata.
package modelresults

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/modelrun"
	"phenosum/domain/table"
)

// DeriveCohort looks up the participants of a run in the clinical diagnosis
// table. Values are collected in diagnosis-table order and deduplicated;
// nulls are ignored. Ages are rounded half to even.
func DeriveCohort(dx *table.Table, participants []string) (modelrun.Cohort, error) {
	var cohort modelrun.Cohort
	if len(participants) == 0 {
		return cohort, core.ErrNoParticipants
	}

	cols, err := requireAll(dx, diagnosis.IdentifierField, diagnosis.LabelColumn(1),
		diagnosis.CategoryColumn(1), diagnosis.SexField, diagnosis.AgeField)
	if err != nil {
		return cohort, fmt.Errorf("diagnosis table: %w", err)
	}
	idCol, dxCol, catCol, sexCol, ageCol := cols[0], cols[1], cols[2], cols[3], cols[4]

	member := make(map[string]bool, len(participants))
	for _, p := range participants {
		member[p] = true
	}

	diagnoses, categories, sexes := newOrderedSet(), newOrderedSet(), newOrderedSet()
	seenAge := make(map[int]bool)
	matched := 0
	for i := 0; i < dx.NumRows(); i++ {
		if !member[dx.Value(i, idCol)] {
			continue
		}
		matched++
		diagnoses.add(dx.Value(i, dxCol))
		categories.add(dx.Value(i, catCol))
		sexes.add(dx.Value(i, sexCol))

		raw := strings.TrimSpace(dx.Value(i, ageCol))
		age, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(age) {
			return cohort, fmt.Errorf("%w: participant %s has age %q", core.ErrInvalidAge, dx.Value(i, idCol), raw)
		}
		rounded := int(math.RoundToEven(age))
		if !seenAge[rounded] {
			seenAge[rounded] = true
			cohort.Ages = append(cohort.Ages, rounded)
		}
	}
	if matched == 0 {
		return cohort, core.ErrEmptyCohort
	}

	cohort.Diagnoses = diagnoses.values
	cohort.Categories = categories.values
	cohort.Sexes = sexes.values
	return cohort, nil
}

// AnnotateRun broadcasts the run's cohort metadata to every row of its
// performance table and swaps the data-variant labels. featureImportance is
// the path of the companion importance file, or empty.
func AnnotateRun(perf, dx *table.Table, featureImportance string) (*table.Table, error) {
	pj, err := perf.Require(modelrun.ParticipantsColumn)
	if err != nil {
		return nil, err
	}
	dj, err := perf.Require(modelrun.DataColumn)
	if err != nil {
		return nil, err
	}
	if perf.NumRows() == 0 {
		return nil, core.ErrNoParticipants
	}

	cohort, err := DeriveCohort(dx, modelrun.DecodeParticipants(perf.Value(0, pj)))
	if err != nil {
		return nil, err
	}

	out := perf.
		WithConstant(table.Column{Name: modelrun.DiagnosesColumn}, cohort.DiagnosesLabel()).
		WithConstant(table.Column{Name: modelrun.CategoryColumn}, cohort.CategoryLabel()).
		WithConstant(table.Column{Name: modelrun.SexColumn}, cohort.SexLabel()).
		WithConstant(table.Column{Name: modelrun.AgeColumn}, cohort.AgeLabel()).
		MapColumn(dj, modelrun.SwapDataVariant).
		WithConstant(table.Column{Name: modelrun.FeatureImportanceColumn}, featureImportance)
	return out, nil
}

// ShortenCategory strips the primary diagnosis name, joined as a prefix or a
// suffix, from a run's category string and buckets anything outside known.
func ShortenCategory(category, primary string, known []string) string {
	short := strings.ReplaceAll(category, primary+modelrun.LabelSeparator, "")
	short = strings.ReplaceAll(short, modelrun.LabelSeparator+primary, "")
	for _, k := range known {
		if short == k {
			return short
		}
	}
	return modelrun.OtherDiagnoses
}

// Recode adds participant_group, category_new and model_name to the
// annotated runs of one model.
func Recode(runs *table.Table, modelName, primary string, known []string) (*table.Table, error) {
	cols, err := requireAll(runs, modelrun.SexColumn, modelrun.AgeColumn, modelrun.CategoryColumn)
	if err != nil {
		return nil, err
	}
	sexCol, ageCol, catCol := cols[0], cols[1], cols[2]

	out := runs.
		WithColumn(table.Column{Name: modelrun.ParticipantGroupColumn}, func(_ int, row []string) string {
			return row[sexCol] + "_" + row[ageCol]
		}).
		WithColumn(table.Column{Name: modelrun.CategoryNewColumn}, func(_ int, row []string) string {
			return ShortenCategory(row[catCol], primary, known)
		}).
		WithConstant(table.Column{Name: modelrun.ModelNameColumn}, modelName)
	return out, nil
}

func requireAll(t *table.Table, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for k, name := range names {
		j, err := t.Require(name)
		if err != nil {
			return nil, err
		}
		out[k] = j
	}
	return out, nil
}

type orderedSet struct {
	seen   map[string]bool
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.values = append(s.values, v)
}
