package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Tesseract invokes the tesseract executable as a child process.
//
// os/exec passes arguments as an argv vector with no intervening shell,
// so paths with embedded whitespace need no quoting on any platform.
type Tesseract struct {
	// Path is the executable name or full path; "tesseract" resolved via
	// PATH when empty.
	Path string
}

// NewTesseract returns a process-based engine using the given executable
// path, or "tesseract" from PATH when path is empty.
func NewTesseract(path string) *Tesseract {
	if path == "" {
		path = "tesseract"
	}
	return &Tesseract{Path: path}
}

// Name implements Engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Invoke runs the executable and blocks until it exits or ctx ends.
// When ctx ends first the child process is killed before returning, so
// no engine process can outlive its run's temporary files.
func (t *Tesseract) Invoke(ctx context.Context, req Request) (string, error) {
	bin, err := exec.LookPath(t.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %q not found: %v", ErrUnavailable, t.Path, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, t.buildArgs(req)...)
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctxErr)
		}
		return "", ctxErr
	}
	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrExecutionFailed, diag)
	}

	return req.OutputPath(), nil
}

// buildArgs assembles the command line. The engine is positional-argument
// sensitive, so the order here is part of the contract: resource
// directory, input, output stem, page segmentation mode, page selection,
// lexicon, languages, output format config.
func (t *Tesseract) buildArgs(req Request) []string {
	var args []string
	if req.ResourceDir != "" {
		args = append(args, "--tessdata-dir", req.ResourceDir)
	}
	args = append(args, req.InputPath, req.OutputStem)
	if req.PageSegMode != nil {
		args = append(args, "--psm", strconv.Itoa(*req.PageSegMode))
	}
	if req.PageIndex >= 0 {
		args = append(args, "-c", fmt.Sprintf("tessedit_page_number=%d", req.PageIndex))
	}
	if req.LexiconPath != "" {
		// User lexicons are only honored by the legacy recognizer.
		args = append(args, "--user-words", req.LexiconPath, "--oem", "0")
	}
	if len(req.Languages) > 0 {
		args = append(args, "-l", strings.Join(req.Languages, "+"))
	}
	if req.HOCR {
		args = append(args, "hocr")
	}
	return args
}
