package container

import (
	"context"
	"fmt"

	"phenosum/adapters/api"
	"phenosum/adapters/postgres"
	"phenosum/adapters/tabular"
	"phenosum/app"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/cohort"
	"phenosum/internal/config"
	"phenosum/internal/errors"
	"phenosum/internal/migration"
	"phenosum/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Adapters
	Reader  ports.TableReader
	Writer  ports.TableWriter
	Results ports.ResultRepository

	// Services
	Cohorts *app.CohortService
	Models  *app.ModelResultsService
	Exports *app.ExportService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	reader := tabular.NewReader(logger)
	writer := tabular.NewWriter(logger)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Reader:  reader,
		Writer:  writer,
		Cohorts: app.NewCohortService(reader, writer, logger),
		Models:  app.NewModelResultsService(reader, writer, logger),
	}, nil
}

// Connect opens the export database when one is configured
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		return errors.ConfigInvalid("DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	c.DB = db
	c.Results = postgres.NewResultRepository(db)
	c.Exports = app.NewExportService(c.Results, c.Logger)
	c.Logger.Info("Export database connected")
	return nil
}

// Migrate creates the export schema
func (c *Container) Migrate(ctx context.Context) error {
	if c.DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	runner := migration.NewRunner()
	if err := runner.Run(ctx, c.DB); err != nil {
		return err
	}
	c.Logger.Info("Schema version %s applied", runner.Version())
	return nil
}

// FeatureRequest is the cohort build described by the configuration
func (c *Container) FeatureRequest() app.FeatureRequest {
	opts := cohort.DefaultFilterOptions()
	opts.FilterColumn = c.Config.Analysis.Filter.Column
	opts.FilterValues = c.Config.Analysis.Filter.Values
	return app.FeatureRequest{
		DataDir:       c.Config.Data.Dir,
		Assessments:   c.Config.Data.Assessments,
		DataType:      c.Config.Data.DataType,
		DiagnosisFile: c.Config.Data.DiagnosisFile,
		Filter:        opts,
	}
}

// LoadRequest is the model aggregation described by the configuration
func (c *Container) LoadRequest() app.LoadRequest {
	return app.LoadRequest{
		RootDir:        c.Config.Data.Dir,
		ModelNames:     c.Config.Analysis.ModelNames,
		DiagnosisName:  c.Config.Analysis.PrimaryDiagnosis,
		KnownDiagnoses: c.Config.Analysis.KnownDiagnoses,
		DiagnosisFile:  c.Config.Data.DiagnosisFile,
	}
}

// APILoaders binds the HTTP API datasets to the services
func (c *Container) APILoaders() api.Loaders {
	return api.Loaders{
		Diagnosis: func(ctx context.Context) (*table.Table, error) {
			return c.Cohorts.LoadDiagnosis(ctx, c.FeatureRequest().DiagnosisPath())
		},
		ModelResults: func(ctx context.Context) (*table.Table, error) {
			return c.Models.Load(ctx, c.LoadRequest())
		},
	}
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
