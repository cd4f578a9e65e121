package modelresults

import (
	"phenosum/domain/modelrun"
	"phenosum/domain/table"
)

// Criteria is a conjunction of allow-lists over the aggregated table. An
// empty list matches nothing; Ages is only applied when non-nil.
type Criteria struct {
	ModelNames   []string `json:"model_names"`
	Sexes        []string `json:"sexes"`
	DataVariants []string `json:"data"`
	Assessments  []string `json:"assessments"`
	Classifiers  []string `json:"classifiers"`
	Categories   []string `json:"categories"`
	Ages         []string `json:"ages,omitempty"`
}

// DefaultCriteria selects real-data decision tree runs on parent measures
// for the depressive-disorder cohort of all sexes.
func DefaultCriteria() Criteria {
	return Criteria{
		ModelNames:   []string{"reading-basic_demographics-multiple-classifiers-models"},
		Sexes:        []string{modelrun.AllSexes},
		DataVariants: []string{modelrun.VariantData},
		Assessments:  []string{"Parent Measures"},
		Categories:   []string{"Depressive Disorders"},
		Classifiers:  []string{"DecisionTreeClassifier"},
	}
}

type allowList struct {
	column string
	values []string
}

func (c Criteria) lists() []allowList {
	lists := []allowList{
		{modelrun.ModelNameColumn, c.ModelNames},
		{modelrun.SexColumn, c.Sexes},
		{modelrun.DataColumn, c.DataVariants},
		{modelrun.AssessmentColumn, c.Assessments},
		{modelrun.ClassifierColumn, c.Classifiers},
		{modelrun.CategoryNewColumn, c.Categories},
	}
	if c.Ages != nil {
		lists = append(lists, allowList{modelrun.AgeColumn, c.Ages})
	}
	return lists
}

// Filter keeps the rows of an aggregated model table that satisfy every
// allow-list of c.
func Filter(t *table.Table, c Criteria) (*table.Table, error) {
	lists := c.lists()
	cols := make([]int, len(lists))
	sets := make([]map[string]bool, len(lists))
	for k, l := range lists {
		j, err := t.Require(l.column)
		if err != nil {
			return nil, err
		}
		cols[k] = j
		sets[k] = make(map[string]bool, len(l.values))
		for _, v := range l.values {
			sets[k][v] = true
		}
	}

	return t.FilterRows(func(row []string) bool {
		for k, j := range cols {
			if !sets[k][row[j]] {
				return false
			}
		}
		return true
	}), nil
}
