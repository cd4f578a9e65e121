// Package modelrun names the files and columns of previously-run classifier
// models and the cohort metadata derived for each run.
package modelrun

import (
	"fmt"
	"strings"
)

// Run directory artifacts
const (
	PerformanceFile       = "classifier-all-phenotypic-models-performance.csv"
	FeatureImportanceFile = "classifier-feature_importance.csv"
	ModelsDir             = "models"
)

// Columns read from a performance file
const (
	ParticipantsColumn = "participants"
	TargetColumn       = "target"
	DataColumn         = "data"
	ClassifierColumn   = "clf"
	AssessmentColumn   = "assessment"
)

// Columns added during aggregation
const (
	DiagnosesColumn         = "diagnoses"
	CategoryColumn          = "category"
	SexColumn               = "sex"
	AgeColumn               = "age"
	FeatureImportanceColumn = "feature_importance"
	ParticipantGroupColumn  = "participant_group"
	CategoryNewColumn       = "category_new"
	ModelNameColumn         = "model_name"
)

const (
	// AllSexes labels a cohort with more than one sex.
	AllSexes = "all"
	// OtherDiagnoses buckets shortened categories outside the known list.
	OtherDiagnoses = "All Other Diagnoses"
	// ParticipantSeparator joins identifiers in the participants column.
	ParticipantSeparator = "-"
	// LabelSeparator joins distinct diagnoses or categories of a cohort.
	LabelSeparator = "_"
)

// Data variants as written by the model runs and as reported after
// aggregation. A run's self-description is the opposite of its tag.
const (
	VariantModelData = "model-data"
	VariantModelNull = "model-null"
	VariantNull      = "null"
	VariantData      = "data"
)

var variantSwap = map[string]string{
	VariantModelData: VariantNull,
	VariantModelNull: VariantData,
	VariantNull:      VariantModelData,
	VariantData:      VariantModelNull,
}

// SwapDataVariant maps model-data to null and model-null to data, and back.
// Unknown values map to the empty (null) value.
func SwapDataVariant(v string) string {
	return variantSwap[v]
}

// DecodeParticipants splits a hyphen-joined identifier list.
func DecodeParticipants(encoded string) []string {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, ParticipantSeparator)
}

// Cohort is the participant metadata of one model run.
type Cohort struct {
	Diagnoses  []string
	Categories []string
	Sexes      []string
	Ages       []int
}

// DiagnosesLabel joins the distinct primary diagnoses.
func (c Cohort) DiagnosesLabel() string {
	return strings.Join(c.Diagnoses, LabelSeparator)
}

// CategoryLabel joins the distinct primary categories.
func (c Cohort) CategoryLabel() string {
	return strings.Join(c.Categories, LabelSeparator)
}

// SexLabel is the single sex of the cohort or AllSexes when mixed.
func (c Cohort) SexLabel() string {
	switch len(c.Sexes) {
	case 0:
		return ""
	case 1:
		return c.Sexes[0]
	default:
		return AllSexes
	}
}

// AgeLabel is the zero-padded age, or a "min-max" range for mixed ages.
func (c Cohort) AgeLabel() string {
	if len(c.Ages) == 0 {
		return ""
	}
	lo, hi := c.Ages[0], c.Ages[0]
	for _, a := range c.Ages[1:] {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	if len(c.Ages) > 1 {
		return fmt.Sprintf("%02d-%02d", lo, hi)
	}
	return fmt.Sprintf("%02d", lo)
}

// ParticipantGroup is sex and age joined by an underscore.
func (c Cohort) ParticipantGroup() string {
	return c.SexLabel() + "_" + c.AgeLabel()
}
