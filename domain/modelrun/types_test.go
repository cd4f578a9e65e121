package modelrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwapDataVariantIsInvolution(t *testing.T) {
	for _, v := range []string{VariantModelData, VariantModelNull, VariantNull, VariantData} {
		assert.Equal(t, v, SwapDataVariant(SwapDataVariant(v)), v)
	}
	assert.Equal(t, VariantNull, SwapDataVariant(VariantModelData))
	assert.Equal(t, VariantData, SwapDataVariant(VariantModelNull))
	assert.Equal(t, "", SwapDataVariant("permuted"))
}

func TestDecodeParticipants(t *testing.T) {
	assert.Equal(t, []string{"NDARAA1", "NDARBB2"}, DecodeParticipants("NDARAA1-NDARBB2"))
	assert.Nil(t, DecodeParticipants("  "))
}

func TestCohortLabels(t *testing.T) {
	tests := []struct {
		name   string
		cohort Cohort
		sex    string
		age    string
	}{
		{"single", Cohort{Sexes: []string{"F"}, Ages: []int{7}}, "F", "07"},
		{"mixed", Cohort{Sexes: []string{"M", "F"}, Ages: []int{12, 6, 9}}, AllSexes, "06-12"},
		{"adjacent ages", Cohort{Sexes: []string{"M"}, Ages: []int{11, 10}}, "M", "10-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sex, tt.cohort.SexLabel())
			assert.Equal(t, tt.age, tt.cohort.AgeLabel())
			assert.Equal(t, tt.sex+"_"+tt.age, tt.cohort.ParticipantGroup())
		})
	}

	c := Cohort{Diagnoses: []string{"Dyslexia", "ADHD-Inattentive"}, Categories: []string{"SLD", "ADHD"}}
	assert.Equal(t, "Dyslexia_ADHD-Inattentive", c.DiagnosesLabel())
	assert.Equal(t, "SLD_ADHD", c.CategoryLabel())
}
