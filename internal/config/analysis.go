package config

import (
	"os"

	"phenosum/internal/errors"

	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds the label lists that drive the summaries. It can be
// overridden with a YAML file.
type AnalysisConfig struct {
	ComorbidDisorders []string `yaml:"comorbid_disorders"`
	PrimaryDiagnosis  string   `yaml:"primary_diagnosis"`
	KnownDiagnoses    []string `yaml:"known_diagnoses"`
	ModelNames        []string `yaml:"model_names"`
	Filter            Filter   `yaml:"filter"`
}

// Filter is the default cohort filter
type Filter struct {
	Column string   `yaml:"column"`
	Values []string `yaml:"values"`
}

// DefaultAnalysis returns the label lists used by the reading-impairment study
func DefaultAnalysis() AnalysisConfig {
	return AnalysisConfig{
		ComorbidDisorders: []string{"Anxiety Disorders", "Depressive Disorders", "ADHD", "Autism Spectrum Disorder"},
		PrimaryDiagnosis:  "Specific Learning Disorder with Impairment in Reading",
		KnownDiagnoses:    []string{"Depressive Disorders", "Anxiety Disorders", "Autism Spectrum Disorder", "No Diagnosis Given", "ADHD"},
		ModelNames:        []string{"reading-basic_demographics-multiple-classifiers-models"},
		Filter:            Filter{Column: "Category", Values: []string{"ADHD"}},
	}
}

// LoadAnalysisFile reads a YAML file on top of the defaults. Keys missing from
// the file keep their default value.
func LoadAnalysisFile(path string) (AnalysisConfig, error) {
	cfg := DefaultAnalysis()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.MissingInput(path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the lists are usable
func (a AnalysisConfig) Validate() error {
	if len(a.ComorbidDisorders) == 0 {
		return errors.ConfigInvalid("comorbid_disorders cannot be empty")
	}
	if a.PrimaryDiagnosis == "" {
		return errors.ConfigInvalid("primary_diagnosis is required")
	}
	if len(a.ModelNames) == 0 {
		return errors.ConfigInvalid("model_names cannot be empty")
	}
	return nil
}
