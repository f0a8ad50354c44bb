//go:build gosseract

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract runs recognition in-process through the tesseract C API.
// Requires cgo and an installed libtesseract; enabled with the
// 'gosseract' build tag.
type Gosseract struct{}

// NewGosseract returns the in-process engine backend.
func NewGosseract() *Gosseract { return &Gosseract{} }

// Name implements Engine.
func (g *Gosseract) Name() string { return "gosseract" }

// Invoke performs an in-process recognition call and writes the result
// file at the request's output stem, mirroring the process backend's
// file contract so callers parse output the same way for both.
func (g *Gosseract) Invoke(ctx context.Context, req Request) (string, error) {
	client := gosseract.NewClient()

	if err := g.configure(client, req); err != nil {
		client.Close()
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		// The goroutine owns the client: teardown happens only after the
		// C call has returned, so an abandoned call on timeout never
		// races the close.
		defer client.Close()
		var o outcome
		if req.HOCR {
			o.text, o.err = client.HOCRText()
		} else {
			o.text, o.err = client.Text()
		}
		done <- o
	}()

	// The C call cannot be interrupted; on timeout the goroutine is left
	// to finish on its own and tear the client down when it does.
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return "", ctx.Err()
	case o := <-done:
		if o.err != nil {
			return "", fmt.Errorf("%w: %v", ErrExecutionFailed, o.err)
		}
		out := req.OutputPath()
		if err := os.WriteFile(out, []byte(o.text), 0o644); err != nil {
			return "", fmt.Errorf("%w: writing result: %v", ErrExecutionFailed, err)
		}
		return out, nil
	}
}

// configure applies the request to the client in the same order the
// process backend emits its arguments.
func (g *Gosseract) configure(client *gosseract.Client, req Request) error {
	if req.ResourceDir != "" {
		if err := client.SetTessdataPrefix(req.ResourceDir); err != nil {
			return err
		}
	}
	if err := client.SetImage(req.InputPath); err != nil {
		return err
	}
	if req.PageSegMode != nil {
		if err := client.SetPageSegMode(gosseract.PageSegMode(*req.PageSegMode)); err != nil {
			return err
		}
	}
	if req.PageIndex >= 0 {
		if err := client.SetVariable("tessedit_page_number", strconv.Itoa(req.PageIndex)); err != nil {
			return err
		}
	}
	if req.LexiconPath != "" {
		if err := client.SetVariable("user_words_file", req.LexiconPath); err != nil {
			return err
		}
	}
	if len(req.Languages) > 0 {
		if err := client.SetLanguage(req.Languages...); err != nil {
			return err
		}
	}
	return nil
}
