package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/gardar/ocrpipe/pkg/hocr"
)

// DocumentAIConfig holds the Google Document AI processor coordinates.
type DocumentAIConfig struct {
	ProjectID   string `yaml:"project_id"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
	// CredentialsFile overrides GOOGLE_APPLICATION_CREDENTIALS when set.
	CredentialsFile string `yaml:"credentials_file"`
}

// DocumentAI sends pages to a Google Document AI OCR processor and
// renders the response at the output stem — as hOCR markup or plain
// text — so downstream parsing is identical to the local backends.
type DocumentAI struct {
	cfg DocumentAIConfig
}

// NewDocumentAI returns the remote Document AI engine backend.
func NewDocumentAI(cfg DocumentAIConfig) *DocumentAI {
	return &DocumentAI{cfg: cfg}
}

// Name implements Engine.
func (d *DocumentAI) Name() string { return "documentai" }

// Invoke processes the input image remotely and writes the rendered
// result file. PageIndex is rejected: the remote processor has no frame
// addressing, so multi-frame containers must be re-sliced by the caller
// (the pipeline does this whenever preprocessing is enabled).
func (d *DocumentAI) Invoke(ctx context.Context, req Request) (string, error) {
	if req.PageIndex >= 0 {
		return "", fmt.Errorf("%w: documentai cannot address frames of a multi-page container", ErrExecutionFailed)
	}

	data, err := os.ReadFile(req.InputPath)
	if err != nil {
		return "", fmt.Errorf("%w: reading input: %v", ErrExecutionFailed, err)
	}

	doc, err := d.process(ctx, data, mimeTypeForPath(req.InputPath))
	if err != nil {
		return "", err
	}

	var rendered string
	if req.HOCR {
		hocrDoc := hocrFromDocument(doc)
		rendered, err = hocr.GenerateDocument(hocrDoc)
		if err != nil {
			return "", fmt.Errorf("%w: rendering hOCR: %v", ErrExecutionFailed, err)
		}
	} else {
		rendered = doc.Text
	}

	out := req.OutputPath()
	if err := os.WriteFile(out, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("%w: writing result: %v", ErrExecutionFailed, err)
	}
	return out, nil
}

// process sends the raw image to the configured processor and returns
// the Document proto.
func (d *DocumentAI) process(ctx context.Context, data []byte, mimeType string) (*documentaipb.Document, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", d.cfg.Location)
	creds := d.cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}

	client, err := documentai.NewDocumentProcessorClient(
		ctx,
		option.WithEndpoint(endpoint),
		option.WithCredentialsFile(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: creating Document AI client: %v", ErrUnavailable, err)
	}
	defer client.Close()

	name := fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		d.cfg.ProjectID, d.cfg.Location, d.cfg.ProcessorID,
	)

	resp, err := client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	return resp.Document, nil
}

// mimeTypeForPath maps the supported container extensions to the MIME
// types the processor accepts.
func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return "image/tiff"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".bmp":
		return "image/bmp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
