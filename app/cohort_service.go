package app

import (
	"context"
	"fmt"
	"path/filepath"

	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/cohort"
	"phenosum/ports"
)

// CohortService loads the questionnaire responses and clinical diagnosis
// table from a data directory and builds the filtered feature table.
type CohortService struct {
	reader ports.TableReader
	writer ports.TableWriter
	logger *internal.Logger
}

// NewCohortService creates a cohort service
func NewCohortService(reader ports.TableReader, writer ports.TableWriter, logger *internal.Logger) *CohortService {
	return &CohortService{
		reader: reader,
		writer: writer,
		logger: logger.With("CohortService"),
	}
}

// ResponseFile is the name of one assessment's response table.
func ResponseFile(assessment, dataType string) string {
	return fmt.Sprintf("%s-features-%s.csv", assessment, dataType)
}

// LoadResponses reads every assessment's response file, strips the numeric
// prefix from the headers and joins them on the participant identifier. A
// missing file fails the whole load.
func (s *CohortService) LoadResponses(ctx context.Context, dir string, assessments []string, dataType string) (*table.Table, error) {
	tables := make([]*table.Table, 0, len(assessments))
	for _, assessment := range assessments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, ResponseFile(assessment, dataType))
		t, err := s.reader.ReadTable(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading %s responses: %w", assessment, err)
		}
		s.logger.Debug("Loaded %s responses: %d participants, %d columns", assessment, t.NumRows(), t.NumCols())
		tables = append(tables, cohort.StripPrefix(t))
	}

	joined, err := cohort.JoinResponses(tables...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Joined %d assessments: %d participants, %d columns", len(assessments), joined.NumRows(), joined.NumCols())
	return joined, nil
}

// LoadRawDiagnosis reads the clinical diagnosis file as-is.
func (s *CohortService) LoadRawDiagnosis(ctx context.Context, path string) (*table.Table, error) {
	t, err := s.reader.ReadTable(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading diagnosis table: %w", err)
	}
	return t, nil
}

// LoadDiagnosis reads and normalizes the clinical diagnosis file.
func (s *CohortService) LoadDiagnosis(ctx context.Context, path string) (*table.Table, error) {
	raw, err := s.LoadRawDiagnosis(ctx, path)
	if err != nil {
		return nil, err
	}
	diag, err := cohort.NormalizeDiagnosis(raw)
	if err != nil {
		return nil, fmt.Errorf("normalizing %s: %w", path, err)
	}
	return diag, nil
}

// FeatureRequest describes one feature table build
type FeatureRequest struct {
	DataDir       string
	Assessments   []string
	DataType      string
	DiagnosisFile string
	Filter        cohort.FilterOptions
}

// DiagnosisPath resolves the diagnosis file against the data directory.
func (r FeatureRequest) DiagnosisPath() string {
	return ResolvePath(r.DataDir, r.DiagnosisFile, diagnosis.DefaultFile)
}

// FeatureSet is a filtered cohort with its model feature columns.
type FeatureSet struct {
	Table    *table.Table
	Features []string
}

// BuildFeatureTable loads, joins, normalizes and filters the cohort.
func (s *CohortService) BuildFeatureTable(ctx context.Context, req FeatureRequest) (*FeatureSet, error) {
	responses, err := s.LoadResponses(ctx, req.DataDir, req.Assessments, req.DataType)
	if err != nil {
		return nil, err
	}
	diag, err := s.LoadDiagnosis(ctx, req.DiagnosisPath())
	if err != nil {
		return nil, err
	}

	filtered, features, err := cohort.Filter(responses, diag, req.Filter)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cohort %s=%v: %d participants, %d features",
		req.Filter.FilterColumn, req.Filter.FilterValues, filtered.NumRows(), len(features))
	return &FeatureSet{Table: filtered, Features: features}, nil
}

// WriteFeatureSet writes the feature table and, next to it, a one-column
// table listing the feature names.
func (s *CohortService) WriteFeatureSet(ctx context.Context, path string, fs *FeatureSet) error {
	if err := s.writer.WriteTable(ctx, path, fs.Table); err != nil {
		return err
	}
	rows := make([][]string, len(fs.Features))
	for i, f := range fs.Features {
		rows[i] = []string{f}
	}
	list, err := table.New([]table.Column{{Name: "feature"}}, rows)
	if err != nil {
		return err
	}
	ext := filepath.Ext(path)
	return s.writer.WriteTable(ctx, path[:len(path)-len(ext)]+"-columns"+ext, list)
}

// ResolvePath joins name to dir unless it is absolute; an empty name falls
// back to def.
func ResolvePath(dir, name, def string) string {
	if name == "" {
		name = def
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
