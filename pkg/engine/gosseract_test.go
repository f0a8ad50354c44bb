//go:build gosseract

package engine

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gosseractFixture(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))))

	return Request{
		InputPath:  path,
		OutputStem: filepath.Join(dir, "out"),
		PageIndex:  -1,
	}
}

// An aborted invocation returns promptly while the recognition call is
// still in flight; the client teardown belongs to the recognition
// goroutine, so the early return must not crash the process.
func TestGosseractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGosseract()
	_, err := g.Invoke(ctx, gosseractFixture(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGosseractDeadlineMapsToTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 1)
	defer cancel()
	<-ctx.Done()

	g := NewGosseract()
	_, err := g.Invoke(ctx, gosseractFixture(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}
