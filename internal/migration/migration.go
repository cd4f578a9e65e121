package migration

import (
	"context"

	"phenosum/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the export schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statement is one named schema step
type Statement struct {
	Name string
	SQL  string
}

// Statements returns the schema steps in execution order. Every step is
// idempotent.
func (r *MigrationRunner) Statements() []Statement {
	return []Statement{
		{Name: "export_batches table", SQL: `
		CREATE TABLE IF NOT EXISTS export_batches (
			id UUID PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			row_count INTEGER NOT NULL DEFAULT 0,
			columns JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`},
		{Name: "model_results table", SQL: `
		CREATE TABLE IF NOT EXISTS model_results (
			batch_id UUID NOT NULL REFERENCES export_batches(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			model_name TEXT,
			sex VARCHAR(20),
			data_variant VARCHAR(20),
			assessment TEXT,
			clf TEXT,
			category_new TEXT,
			age VARCHAR(20),
			cells JSONB NOT NULL,
			PRIMARY KEY (batch_id, row_index)
		)`},
		{Name: "comorbidity_counts table", SQL: `
		CREATE TABLE IF NOT EXISTS comorbidity_counts (
			batch_id UUID NOT NULL REFERENCES export_batches(id) ON DELETE CASCADE,
			rank VARCHAR(4) NOT NULL,
			category TEXT NOT NULL,
			diagnosis TEXT NOT NULL,
			count INTEGER NOT NULL,
			percent DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (batch_id, category, diagnosis)
		)`},
		{Name: "indexes", SQL: `
		CREATE INDEX IF NOT EXISTS idx_export_batches_kind_created ON export_batches(kind, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_model_results_selection ON model_results(model_name, sex, data_variant, clf);
		CREATE INDEX IF NOT EXISTS idx_comorbidity_counts_category ON comorbidity_counts(category)
		`},
	}
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range r.Statements() {
		if _, err := db.ExecContext(ctx, stmt.SQL); err != nil {
			return errors.DatabaseError("failed to create "+stmt.Name, err)
		}
	}
	return nil
}
