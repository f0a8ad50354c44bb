//go:build !gosseract

package engine

import (
	"context"
	"fmt"
)

// Gosseract is the in-process tesseract backend. This build does not
// include the cgo bindings; rebuild with the 'gosseract' tag to enable
// it.
type Gosseract struct{}

// NewGosseract returns the in-process engine backend.
func NewGosseract() *Gosseract { return &Gosseract{} }

// Name implements Engine.
func (g *Gosseract) Name() string { return "gosseract" }

// Invoke always fails: the binary was built without the bindings.
func (g *Gosseract) Invoke(ctx context.Context, req Request) (string, error) {
	return "", fmt.Errorf("%w: built without the gosseract tag", ErrUnavailable)
}
