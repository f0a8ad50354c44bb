package ocrpipe

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrpipe/pkg/engine"
)

// Config holds the caller's options for a pipeline run. A Config is
// read-only for the duration of a run and may be reused across runs.
type Config struct {
	// Languages are the engine language codes in priority order. Empty
	// means the default language.
	Languages []string

	// ResourceDir is the directory holding per-language trained models.
	ResourceDir string

	// Format selects plain text or positional hOCR output.
	Format OutputFormat

	// Granularity selects word- or line-level units for positional
	// output. It has no effect on plain-text output.
	Granularity Granularity

	// Preprocess enables the grayscale + binarization transform per page.
	Preprocess bool

	// PageSegMode is an optional engine-specific layout hint, passed
	// through opaquely.
	PageSegMode *int

	// LexiconPath points at an optional custom word list. It is staged
	// into the run's workspace before the first invocation.
	LexiconPath string

	// EngineTimeout bounds every individual engine invocation.
	EngineTimeout time.Duration

	// Engine overrides the recognition backend; nil selects the
	// tesseract executable from PATH.
	Engine engine.Engine

	// Logger receives structured pipeline events; nil disables logging.
	Logger *zerolog.Logger

	// Seen, when set together with DocumentID, suppresses the
	// once-per-document processing event after the first run that
	// carries the same identifier. Owned by the caller and shared
	// across runs; the pipeline itself keeps no cross-run state.
	Seen SeenRecorder

	// DocumentID identifies the logical document for the Seen recorder.
	DocumentID string

	// WorkDir is the base directory for the run's temporary workspace;
	// empty means the system temp directory.
	WorkDir string
}

// DefaultEngineTimeout bounds an engine invocation when the config does
// not set one. Recognition of large pages on slow hosts can legitimately
// take hours, so the default is generous.
const DefaultEngineTimeout = 3 * time.Hour

// DefaultConfig returns a config with sensible defaults: positional
// output at word granularity, no preprocessing, and the default engine
// timeout.
func DefaultConfig() Config {
	return Config{
		Format:        FormatHOCR,
		Granularity:   GranularityWord,
		Preprocess:    false,
		EngineTimeout: DefaultEngineTimeout,
	}
}

// logger returns the configured logger or a disabled one.
func (c Config) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

// engineOrDefault returns the configured backend or the tesseract
// executable resolved from PATH.
func (c Config) engineOrDefault() engine.Engine {
	if c.Engine != nil {
		return c.Engine
	}
	return engine.NewTesseract("")
}

// timeoutOrDefault returns the configured invocation timeout or the
// default.
func (c Config) timeoutOrDefault() time.Duration {
	if c.EngineTimeout > 0 {
		return c.EngineTimeout
	}
	return DefaultEngineTimeout
}
