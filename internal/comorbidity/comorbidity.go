// Package comorbidity summarizes how diagnoses spread over the ten ranked
// diagnosis slots of a cohort.
package comorbidity

import (
	"strconv"
	"strings"

	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
)

// DefaultDisorders are the comorbid disorders counted when none are given
var DefaultDisorders = []string{"Anxiety Disorders", "Depressive Disorders", "ADHD", "Autism Spectrum Disorder"}

// Comorbidities counts, for every slot and disorder, the participants whose
// slot category contains the disorder name. A slot may list several
// disorders jointly, hence the substring match.
func Comorbidities(t *table.Table, disorders []string) ([]diagnosis.ComorbidityCount, error) {
	participants, err := diagnosis.ReadSlots(t)
	if err != nil {
		return nil, err
	}

	total := len(participants)
	out := make([]diagnosis.ComorbidityCount, 0, diagnosis.SlotCount*len(disorders))
	for s := 0; s < diagnosis.SlotCount; s++ {
		column := diagnosis.CategoryColumn(s + 1)
		for _, disorder := range disorders {
			count := 0
			for _, slots := range participants {
				if v := slots[s].Category; v != "" && strings.Contains(v, disorder) {
					count++
				}
			}
			out = append(out, diagnosis.ComorbidityCount{
				Diagnosis: disorder,
				Count:     count,
				Percent:   percent(count, total),
				Category:  column,
				Rank:      diagnosis.RankFromColumn(column),
			})
		}
	}
	return out, nil
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// CountDiagnosis counts exact matches of label in each slot category.
func CountDiagnosis(t *table.Table, label string) ([]diagnosis.DiagnosisCount, error) {
	participants, err := diagnosis.ReadSlots(t)
	if err != nil {
		return nil, err
	}

	var counts [diagnosis.SlotCount]int
	for _, slots := range participants {
		for s, slot := range slots {
			if slot.Category == label {
				counts[s]++
			}
		}
	}

	out := make([]diagnosis.DiagnosisCount, 0, diagnosis.SlotCount)
	for s, count := range counts {
		out = append(out, diagnosis.DiagnosisCount{
			Count:            count,
			Category:         diagnosis.CategoryColumn(s + 1),
			PrimaryDiagnosis: label,
		})
	}
	return out, nil
}

// RewriteLabel replaces slot categories equal to oldLabel with newLabel. No
// other cell is touched.
func RewriteLabel(t *table.Table, oldLabel, newLabel string) (*table.Table, error) {
	return diagnosis.MapSlots(t, func(s diagnosis.Slot) diagnosis.Slot {
		if s.Category == oldLabel {
			s.Category = newLabel
		}
		return s
	})
}

// ComorbidityTable renders counts with the column names used downstream.
func ComorbidityTable(counts []diagnosis.ComorbidityCount) *table.Table {
	columns := []table.Column{{Name: "Diagnosis"}, {Name: "Count"}, {Name: "Percent"}, {Name: "Category"}, {Name: "Diagnosis Categories"}}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Diagnosis, strconv.Itoa(c.Count), strconv.FormatFloat(c.Percent, 'f', -1, 64), c.Category, c.Rank}
	}
	t, _ := table.New(columns, rows)
	return t
}

// DiagnosisCountTable renders per-slot counts.
func DiagnosisCountTable(counts []diagnosis.DiagnosisCount) *table.Table {
	columns := []table.Column{{Name: "count"}, {Name: "diagnosis_categories"}, {Name: "primary_diagnosis"}}
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{strconv.Itoa(c.Count), c.Category, c.PrimaryDiagnosis}
	}
	t, _ := table.New(columns, rows)
	return t
}
