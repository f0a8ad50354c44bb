package ocrpipe

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLanguage is assumed when the caller requests no languages.
const DefaultLanguage = "eng"

// resourceExt is the file extension of per-language trained models in
// the resource directory.
const resourceExt = ".traineddata"

// ValidateLanguages checks that every requested language has a trained
// model file in dir. An empty langs slice is validated against the
// default language. The first missing language aborts the check; its
// error matches ErrMissingLanguageResource and carries the language and
// directory.
func ValidateLanguages(langs []string, dir string) error {
	if len(langs) == 0 {
		langs = []string{DefaultLanguage}
	}
	for _, lang := range langs {
		path := filepath.Join(dir, lang+resourceExt)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return &MissingLanguageResourceError{Language: lang, Dir: dir}
		}
	}
	return nil
}

// effectiveLanguages returns the language list a run will pass to the
// engine, substituting the default when empty.
func effectiveLanguages(langs []string) []string {
	if len(langs) == 0 {
		return []string{DefaultLanguage}
	}
	return langs
}

// validateConfig rejects option combinations the pipeline cannot honor.
func validateConfig(cfg Config) error {
	switch cfg.Format {
	case FormatPlainText, FormatHOCR:
	default:
		return fmt.Errorf("unknown output format %q", cfg.Format)
	}
	if cfg.Format == FormatHOCR {
		switch cfg.Granularity {
		case GranularityWord, GranularityLine:
		default:
			return fmt.Errorf("unknown granularity %q", cfg.Granularity)
		}
	}
	return nil
}
