package main

import (
	"testing"

	"phenosum/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRootHelpMatchesConfigDefaults(t *testing.T) {
	help := rootHelp()
	assert.Contains(t, help, "PHENOSUM_DATA_DIR (default: "+config.DefaultDataDir+")")
	assert.Contains(t, help, "PHENOSUM_ASSESSMENTS (default: Parent,Child,Teacher)")
	assert.Contains(t, help, "PHENOSUM_DATA_TYPE preprocessed|raw (default: preprocessed)")
	assert.NotContains(t, help, "./data")
}
