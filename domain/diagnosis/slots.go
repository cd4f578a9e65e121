// Package diagnosis describes the clinical diagnosis/demographics table: its
// canonical field names and the ten ranked diagnosis slots per participant.
package diagnosis

import (
	"fmt"
	"regexp"
)

// SlotCount is the number of ranked diagnosis slots per participant.
const SlotCount = 10

// Canonical field names
const (
	IdentifierField    = "Identifiers"
	SexField           = "Sex"
	AgeField           = "Age"
	RaceField          = "Race"
	EthnicityField     = "Ethnicity"
	EnrollYearField    = "Enroll_Year"
	SiteField          = "Site"
	ComorbiditiesField = "comorbidities"
	CategoryField      = "Category"
	DiagnosisField     = "Diagnosis"
)

// DefaultFile is the diagnosis/demographics file name inside a data directory.
const DefaultFile = "Clinical_Diagnosis_Demographics.csv"

// Rename maps a source column to its canonical name.
type Rename struct {
	From string
	To   string
}

// DemographicRenames is the fixed, ordered rename map applied to the raw
// diagnosis file. Its order is the canonical demographic column order.
var DemographicRenames = []Rename{
	{From: "Identifiers", To: IdentifierField},
	{From: "Sex", To: SexField},
	{From: "Age", To: AgeField},
	{From: "PreInt_Demos_Fam,Child_Race_cat", To: RaceField},
	{From: "PreInt_Demos_Fam,Child_Ethnicity_cat", To: EthnicityField},
	{From: "Enroll_Year", To: EnrollYearField},
	{From: "Site", To: SiteField},
	{From: "comorbidities", To: ComorbiditiesField},
}

// CategoryColumn is the category field name of slot rank (1-based).
func CategoryColumn(rank int) string {
	return fmt.Sprintf("DX_%02d_Cat_new", rank)
}

// LabelColumn is the diagnosis label field name of slot rank (1-based).
func LabelColumn(rank int) string {
	return fmt.Sprintf("DX_%02d", rank)
}

// CategoryColumns lists the ten slot category fields in rank order.
func CategoryColumns() []string {
	out := make([]string, SlotCount)
	for i := range out {
		out[i] = CategoryColumn(i + 1)
	}
	return out
}

// SlotColumns lists the twenty slot fields as (category, label) pairs in rank
// order.
func SlotColumns() []string {
	out := make([]string, 0, 2*SlotCount)
	for rank := 1; rank <= SlotCount; rank++ {
		out = append(out, CategoryColumn(rank), LabelColumn(rank))
	}
	return out
}

// CanonicalColumns is the column order of a normalized diagnosis table:
// demographics, slot pairs, then the derived primary fields.
func CanonicalColumns() []string {
	out := make([]string, 0, len(DemographicRenames)+2*SlotCount+2)
	for _, r := range DemographicRenames {
		out = append(out, r.To)
	}
	out = append(out, SlotColumns()...)
	return append(out, CategoryField, DiagnosisField)
}

var digits = regexp.MustCompile(`\d+`)

// RankFromColumn extracts the first run of digits of a slot field name, e.g.
// "DX_03_Cat_new" -> "03". It returns "" when there are none.
func RankFromColumn(name string) string {
	return digits.FindString(name)
}
