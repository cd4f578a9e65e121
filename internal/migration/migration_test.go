package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatementsAreIdempotentAndOrdered(t *testing.T) {
	r := NewRunner()
	assert.Equal(t, "1.0.0", r.Version())

	stmts := r.Statements()
	assert.Len(t, stmts, 4)
	assert.Contains(t, stmts[0].SQL, "export_batches")
	for _, s := range stmts {
		for _, line := range strings.Split(s.SQL, ";") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			assert.Contains(t, line, "IF NOT EXISTS", s.Name)
		}
	}
}

func TestRunnerImplementsMigrator(t *testing.T) {
	var _ Migrator = NewRunner()
}
