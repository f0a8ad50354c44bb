package ocrpipe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resourceDir creates a directory holding a trained model file for each
// given language.
func resourceDir(t *testing.T, langs ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, lang := range langs {
		path := filepath.Join(dir, lang+resourceExt)
		require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))
	}
	return dir
}

func TestValidateLanguages(t *testing.T) {
	dir := resourceDir(t, "eng", "isl")

	assert.NoError(t, ValidateLanguages([]string{"eng"}, dir))
	assert.NoError(t, ValidateLanguages([]string{"isl", "eng"}, dir))
	assert.NoError(t, ValidateLanguages(nil, dir), "empty list validates the default language")
}

func TestValidateLanguagesMissing(t *testing.T) {
	dir := resourceDir(t, "eng")

	err := ValidateLanguages([]string{"eng", "deu"}, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingLanguageResource)

	var missing *MissingLanguageResourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "deu", missing.Language)
	assert.Equal(t, dir, missing.Dir)
}

func TestValidateLanguagesDefaultMissing(t *testing.T) {
	dir := t.TempDir()

	err := ValidateLanguages(nil, dir)
	require.Error(t, err)

	var missing *MissingLanguageResourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, DefaultLanguage, missing.Language)
}

func TestValidateLanguagesDirectoryNotFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "eng"+resourceExt), 0o755))

	assert.ErrorIs(t, ValidateLanguages([]string{"eng"}, dir), ErrMissingLanguageResource)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, validateConfig(cfg))

	cfg.Format = FormatPlainText
	cfg.Granularity = ""
	assert.NoError(t, validateConfig(cfg), "granularity is irrelevant for plain text")

	cfg.Format = "pdf"
	assert.Error(t, validateConfig(cfg))

	cfg = DefaultConfig()
	cfg.Granularity = "paragraph"
	assert.Error(t, validateConfig(cfg))
}

func TestEffectiveLanguages(t *testing.T) {
	assert.Equal(t, []string{DefaultLanguage}, effectiveLanguages(nil))
	assert.Equal(t, []string{"isl", "eng"}, effectiveLanguages([]string{"isl", "eng"}))
}
