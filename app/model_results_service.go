package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/modelrun"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/modelresults"
	"phenosum/ports"
)

// ModelResultsService aggregates the performance tables of previously-run
// classifier models into one annotated table.
type ModelResultsService struct {
	reader ports.TableReader
	writer ports.TableWriter
	logger *internal.Logger
}

// NewModelResultsService creates a model results service
func NewModelResultsService(reader ports.TableReader, writer ports.TableWriter, logger *internal.Logger) *ModelResultsService {
	return &ModelResultsService{
		reader: reader,
		writer: writer,
		logger: logger.With("ModelResults"),
	}
}

// LoadRequest selects the models to aggregate
type LoadRequest struct {
	RootDir        string
	ModelNames     []string
	DiagnosisName  string
	KnownDiagnoses []string
	DiagnosisFile  string
	Save           bool
}

// DiagnosisPath resolves the diagnosis file against the root directory.
func (r LoadRequest) DiagnosisPath() string {
	return ResolvePath(r.RootDir, r.DiagnosisFile, diagnosis.DefaultFile)
}

// SavedPath is where the aggregated table of one model is written.
func (r LoadRequest) SavedPath(model string) string {
	return filepath.Join(r.RootDir, modelrun.ModelsDir, model+".csv")
}

// Load aggregates every run of every requested model. Runs whose performance
// file is missing or unusable are logged and skipped.
func (s *ModelResultsService) Load(ctx context.Context, req LoadRequest) (*table.Table, error) {
	dx, err := s.reader.ReadTable(ctx, req.DiagnosisPath())
	if err != nil {
		return nil, fmt.Errorf("loading diagnosis table: %w", err)
	}
	for _, col := range []string{diagnosis.IdentifierField, diagnosis.SexField, diagnosis.AgeField,
		diagnosis.LabelColumn(1), diagnosis.CategoryColumn(1)} {
		if _, err := dx.Require(col); err != nil {
			return nil, fmt.Errorf("diagnosis table %s: %w", req.DiagnosisPath(), err)
		}
	}

	var tables []*table.Table
	for _, model := range req.ModelNames {
		runs, err := s.LoadModel(ctx, req, model, dx)
		if err != nil {
			return nil, err
		}
		tables = append(tables, runs)
	}
	return table.Concat(tables...), nil
}

// LoadModel aggregates the runs of one model against an already-loaded raw
// diagnosis table.
func (s *ModelResultsService) LoadModel(ctx context.Context, req LoadRequest, model string, dx *table.Table) (*table.Table, error) {
	pattern := filepath.Join(req.RootDir, modelrun.ModelsDir, "*"+model, "*")
	runDirs, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", pattern, err)
	}
	sort.Strings(runDirs)

	var runs []*table.Table
	for _, runDir := range runDirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(runDir)
		if err != nil || !info.IsDir() {
			continue
		}

		annotated, err := s.loadRun(ctx, runDir, dx)
		if err != nil {
			if core.IsRecoverableRunError(err) {
				s.logger.Warn("Skipping run %s: %v", runDir, err)
				continue
			}
			return nil, err
		}
		runs = append(runs, annotated)
	}

	aggregated := table.Concat(runs...)
	if aggregated.NumRows() > 0 {
		aggregated, err = modelresults.Recode(aggregated, model, req.DiagnosisName, req.KnownDiagnoses)
		if err != nil {
			return nil, err
		}
	}
	s.logger.Info("Model %s: %d runs, %d rows", model, len(runs), aggregated.NumRows())

	if req.Save {
		if err := s.writer.WriteTable(ctx, req.SavedPath(model), aggregated); err != nil {
			return nil, fmt.Errorf("saving %s: %w", model, err)
		}
	}
	return aggregated, nil
}

func (s *ModelResultsService) loadRun(ctx context.Context, runDir string, dx *table.Table) (*table.Table, error) {
	perfPath := filepath.Join(runDir, modelrun.PerformanceFile)
	if _, err := os.Stat(perfPath); err != nil {
		return nil, core.NewMissingArtifactError(runDir, modelrun.PerformanceFile)
	}
	perf, err := s.reader.ReadTable(ctx, perfPath)
	if err != nil {
		return nil, err
	}

	importance := filepath.Join(runDir, modelrun.FeatureImportanceFile)
	if _, err := os.Stat(importance); err != nil {
		importance = ""
	}

	annotated, err := modelresults.AnnotateRun(perf, dx, importance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runDir, err)
	}
	s.logger.Debug("Annotated %s: %d rows", filepath.Base(runDir), annotated.NumRows())
	return annotated, nil
}
