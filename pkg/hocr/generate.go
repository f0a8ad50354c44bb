package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

// GenerateDocument creates an hOCR HTML document from the HOCR struct
// using the embedded template. Metadata keys are rendered in sorted order
// so identical input structures always produce identical bytes.
func GenerateDocument(doc *HOCR) (string, error) {
	tmpl, err := template.New("hocr.tmpl").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
		"bbox": func(b BoundingBox) string {
			return fmt.Sprintf("%d %d %d %d", b.X1, b.Y1, b.X2, b.Y2)
		},
		"conf": func(c float64) string {
			return fmt.Sprintf("%d", int(c))
		},
		"sortedKeys": func(m map[string]string) []string {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys
		},
	}).ParseFS(templateFS, "templates/hocr.tmpl")
	if err != nil {
		return "", fmt.Errorf("error parsing hOCR template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("error rendering hOCR template: %w", err)
	}

	return buf.String(), nil
}
