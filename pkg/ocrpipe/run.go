package ocrpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gardar/ocrpipe/pkg/engine"
	"github.com/gardar/ocrpipe/pkg/imagefmt"
	"github.com/gardar/ocrpipe/pkg/imageprep"
)

// workspace is the run-scoped directory for every temporary artifact:
// preprocessed page images, the staged lexicon, and the engine's output
// files. It is removed unconditionally when the run ends.
type workspace struct {
	dir    string
	logger zerolog.Logger
}

func newWorkspace(base string, logger zerolog.Logger) (*workspace, error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "ocrpipe-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &workspace{dir: dir, logger: logger}, nil
}

// pagePath returns the workspace path for a page-scoped artifact.
func (w *workspace) pagePath(page int, ext string) string {
	return filepath.Join(w.dir, fmt.Sprintf("page-%04d%s", page, ext))
}

// outputStem returns the extension-less path the engine writes to for a
// page.
func (w *workspace) outputStem(page int) string {
	return filepath.Join(w.dir, fmt.Sprintf("out-%04d", page))
}

// stageLexicon copies the caller's word list into the workspace so the
// engine reads a path that lives and dies with the run.
func (w *workspace) stageLexicon(src string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading lexicon %s: %w", src, err)
	}
	dst := filepath.Join(w.dir, "lexicon"+filepath.Ext(src))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("staging lexicon: %w", err)
	}
	return dst, nil
}

// cleanup removes the workspace. Removal failures are logged as
// ErrCleanupFailed and never surface as the run's error; cleanup is
// idempotent and safe to call more than once.
func (w *workspace) cleanup() {
	if err := os.RemoveAll(w.dir); err != nil {
		w.logger.Warn().
			Str("dir", w.dir).
			Err(fmt.Errorf("%w: %v", ErrCleanupFailed, err)).
			Msg("workspace cleanup failed")
	}
}

// Run executes the full pipeline for one image: language validation,
// page counting, then per page optional preprocessing, one bounded
// engine invocation, and output parsing, aggregating units under 1-based
// page numbers.
//
// Pages run in ascending order and the first failure aborts the run. An
// aborted run that already completed pages returns those pages in a
// Result with Partial set, alongside the terminating *PipelineError;
// failures before any page work return a nil Result. The temporary
// workspace is removed before Run returns on every path.
func Run(ctx context.Context, imagePath string, cfg Config) (*Result, error) {
	logger := cfg.logger().With().Str("image", imagePath).Logger()

	if err := validateConfig(cfg); err != nil {
		return nil, &PipelineError{Stage: StageValidate, Err: err}
	}
	if err := ValidateLanguages(cfg.Languages, cfg.ResourceDir); err != nil {
		return nil, &PipelineError{Stage: StageValidate, Err: err}
	}

	if cfg.Seen != nil && cfg.DocumentID != "" {
		if cfg.Seen.MarkSeen(cfg.DocumentID) {
			logger.Info().Str("document_id", cfg.DocumentID).Msg("processing new document")
		} else {
			logger.Debug().Str("document_id", cfg.DocumentID).Msg("document already seen")
		}
	}

	info, err := imagefmt.Inspect(imagePath)
	if err != nil {
		return nil, &PipelineError{Stage: StageCountPages, Err: err}
	}
	logger.Info().
		Str("format", string(info.Format)).
		Int("pages", info.Pages).
		Msg("input inspected")

	ws, err := newWorkspace(cfg.WorkDir, logger)
	if err != nil {
		return nil, &PipelineError{Stage: StageWorkspace, Err: err}
	}
	defer ws.cleanup()

	lexicon := cfg.LexiconPath
	if lexicon != "" {
		lexicon, err = ws.stageLexicon(lexicon)
		if err != nil {
			return nil, &PipelineError{Stage: StageWorkspace, Err: err}
		}
	}

	eng := cfg.engineOrDefault()
	result := &Result{
		Format:      cfg.Format,
		Granularity: cfg.Granularity,
		Pages:       make(map[int][]Unit, info.Pages),
	}

	for page := 1; page <= info.Pages; page++ {
		result.Pages[page] = []Unit{}

		units, err := runPage(ctx, imagePath, page, info, ws, lexicon, eng, cfg, logger)
		if err != nil {
			result.Partial = true
			return result, err
		}
		result.Pages[page] = units
	}

	logger.Info().Int("pages", info.Pages).Msg("pipeline completed")
	return result, nil
}

// runPage performs the preprocess, invoke, and parse steps for one page.
func runPage(ctx context.Context, imagePath string, page int, info imagefmt.Info,
	ws *workspace, lexicon string, eng engine.Engine, cfg Config, logger zerolog.Logger) ([]Unit, error) {

	pageLogger := logger.With().Int("page", page).Logger()

	inputPath := imagePath
	pageIndex := -1
	if info.Pages > 1 && !cfg.Preprocess {
		// Multi-frame containers are addressed natively by the engine
		// when the pixels are passed through untouched.
		pageIndex = page - 1
	}

	if cfg.Preprocess {
		img, err := imagefmt.DecodePage(imagePath, page-1)
		if err != nil {
			return nil, &PipelineError{Stage: StagePreprocess, Page: page, Err: err}
		}
		prepared := imageprep.Prepare(img, pageLogger)
		inputPath = ws.pagePath(page, ".png")
		if err := imageprep.WriteArtifact(prepared, inputPath); err != nil {
			return nil, &PipelineError{Stage: StagePreprocess, Page: page, Err: err}
		}
	}

	req := engine.Request{
		InputPath:   inputPath,
		OutputStem:  ws.outputStem(page),
		Languages:   effectiveLanguages(cfg.Languages),
		ResourceDir: cfg.ResourceDir,
		PageSegMode: cfg.PageSegMode,
		LexiconPath: lexicon,
		HOCR:        cfg.Format == FormatHOCR,
		PageIndex:   pageIndex,
	}

	invokeCtx, cancel := context.WithTimeout(ctx, cfg.timeoutOrDefault())
	defer cancel()

	pageLogger.Debug().Str("engine", eng.Name()).Msg("invoking engine")
	outPath, err := eng.Invoke(invokeCtx, req)
	if err != nil {
		return nil, &PipelineError{Stage: StageInvoke, Page: page, Err: err}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &PipelineError{
			Stage: StageParse,
			Page:  page,
			Err:   fmt.Errorf("%w: reading engine output: %v", ErrMalformedOutput, err),
		}
	}

	var units []Unit
	if cfg.Format == FormatHOCR {
		units, err = unitsFromHOCR(data, cfg.Granularity)
		if err != nil {
			return nil, &PipelineError{Stage: StageParse, Page: page, Err: err}
		}
	} else {
		units = unitsFromPlainText(data)
	}

	pageLogger.Debug().Int("units", len(units)).Msg("page parsed")
	return units, nil
}

// RunPlainText runs the pipeline in plain-text mode and returns the
// recognized text with pages joined by blank lines. Partial text from an
// aborted run is discarded; callers that want it use Run directly.
func RunPlainText(ctx context.Context, imagePath string, cfg Config) (string, error) {
	cfg.Format = FormatPlainText
	result, err := Run(ctx, imagePath, cfg)
	if err != nil {
		return "", err
	}
	return result.PlainText(), nil
}
