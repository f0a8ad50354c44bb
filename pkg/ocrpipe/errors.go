package ocrpipe

import (
	"errors"
	"fmt"

	"github.com/gardar/ocrpipe/pkg/engine"
	"github.com/gardar/ocrpipe/pkg/imagefmt"
)

// The pipeline's error taxonomy. Image and engine failures keep the
// identity of the sentinels defined where they originate, so callers can
// match with errors.Is against either name.
var (
	ErrUnreadableImage        = imagefmt.ErrUnreadableImage
	ErrUnsupportedImageFormat = imagefmt.ErrUnsupportedFormat
	ErrEngineUnavailable      = engine.ErrUnavailable
	ErrEngineTimeout          = engine.ErrTimeout
	ErrEngineExecutionFailed  = engine.ErrExecutionFailed

	// ErrMissingLanguageResource indicates a requested language has no
	// resource file in the configured directory.
	ErrMissingLanguageResource = errors.New("missing language resource")

	// ErrMalformedOutput indicates the engine's output artifact could not
	// be parsed.
	ErrMalformedOutput = errors.New("malformed engine output")

	// ErrCleanupFailed indicates temporary artifacts could not be
	// removed. It is logged, never returned as a run's primary error.
	ErrCleanupFailed = errors.New("temporary resource cleanup failed")
)

// MissingLanguageResourceError identifies the missing language and the
// directory that was searched.
type MissingLanguageResourceError struct {
	Language string
	Dir      string
}

func (e *MissingLanguageResourceError) Error() string {
	return fmt.Sprintf("missing language resource: no %s%s under %s", e.Language, resourceExt, e.Dir)
}

func (e *MissingLanguageResourceError) Unwrap() error { return ErrMissingLanguageResource }

// Stage labels the pipeline step an error originated from.
type Stage string

const (
	StageValidate   Stage = "validating"
	StageCountPages Stage = "counting-pages"
	StageWorkspace  Stage = "workspace"
	StagePreprocess Stage = "preprocessing"
	StageInvoke     Stage = "invoking-engine"
	StageParse      Stage = "parsing"
)

// PipelineError wraps a failure with the stage it occurred in and, when
// page-scoped, the 1-based page number (0 otherwise). It is the single
// terminating error a caller receives from an aborted run.
type PipelineError struct {
	Stage Stage
	Page  int
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s (page %d): %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
