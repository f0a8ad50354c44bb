// Package engine abstracts the external OCR recognition engine behind a
// single capability interface.
//
// Backends differ in where recognition runs (a tesseract process, an
// in-process tesseract library call, or a remote Document AI processor)
// but share one contract: given an input image and an output path stem,
// the engine writes its result file at the stem — plain text or hOCR —
// and the caller parses that file. Callers never branch on which backend
// is active.
//
// Key Types:
//
// - Engine: The capability interface implemented by every backend
// - Request: One recognition invocation's inputs
//
// Backends:
//
// - NewTesseract: Drives the tesseract executable via os/exec
// - NewGosseract: In-process tesseract bindings (build tag 'gosseract')
// - NewDocumentAI: Google Document AI processor rendered to hOCR
package engine

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the engine binary, library, or service could
// not be located or initialized.
var ErrUnavailable = errors.New("ocr engine unavailable")

// ErrTimeout indicates the bounded wait for an invocation elapsed before
// the engine completed.
var ErrTimeout = errors.New("ocr engine timed out")

// ErrExecutionFailed indicates the engine started but terminated
// abnormally; the wrapped message carries the engine's diagnostic output.
var ErrExecutionFailed = errors.New("ocr engine execution failed")

// Request describes one recognition invocation.
type Request struct {
	InputPath   string   // Image the engine reads
	OutputStem  string   // Output path without extension; the engine appends it
	Languages   []string // Language codes in priority order; empty means engine default
	ResourceDir string   // Directory holding per-language trained models
	PageSegMode *int     // Optional page segmentation hint, passed through opaquely
	LexiconPath string   // Optional custom word list; forces the legacy recognizer
	HOCR        bool     // Request positional hOCR markup instead of plain text
	PageIndex   int      // Zero-based frame of a multi-frame input; -1 for the whole input
}

// OutputPath returns the file the engine writes for this request.
func (r Request) OutputPath() string {
	if r.HOCR {
		return r.OutputStem + ".hocr"
	}
	return r.OutputStem + ".txt"
}

// Engine is the capability boundary to the external recognition engine.
// Invoke blocks until the engine completes, the context is canceled, or
// its deadline passes, and returns the path of the artifact the engine
// wrote.
type Engine interface {
	Name() string
	Invoke(ctx context.Context, req Request) (string, error)
}
