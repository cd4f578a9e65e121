package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrMissingInputFile   = errors.New("missing input file")
	ErrMissingRunArtifact = errors.New("missing run artifact")
	ErrMissingColumn      = errors.New("missing column")
	ErrMalformedTable     = errors.New("malformed table")

	// Cohort errors
	ErrEmptyCohort    = errors.New("cohort has no participants in diagnosis table")
	ErrInvalidAge     = fmt.Errorf("%w: age is not numeric", ErrMalformedTable)
	ErrNoParticipants = fmt.Errorf("%w: participants list is empty", ErrMalformedTable)
	ErrRaggedRow      = fmt.Errorf("%w: row width does not match header", ErrMalformedTable)
)

// Error constructors with context
func NewMissingInputError(path string) error {
	return fmt.Errorf("%w: %s", ErrMissingInputFile, path)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

func NewMissingArtifactError(runDir, artifact string) error {
	return fmt.Errorf("%w: %s does not exist for %s", ErrMissingRunArtifact, artifact, runDir)
}

// Error checking helpers
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInputFile)
}

// IsRecoverableRunError reports whether a single model run can be skipped
// while aggregation continues over the remaining runs.
func IsRecoverableRunError(err error) bool {
	return errors.Is(err, ErrMissingRunArtifact) ||
		errors.Is(err, ErrMissingInputFile) ||
		errors.Is(err, ErrMalformedTable) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrEmptyCohort)
}
