// Package ocrpipe runs raster images through an external OCR engine and
// aggregates the recognized text into positioned, page-ordered units.
//
// A run is a single sequence of blocking steps: validate the requested
// language resources, count the logical pages of the input container,
// then for each page optionally preprocess the pixel buffer, invoke the
// engine under a bounded timeout, parse its output into recognized units,
// and aggregate the units under the page's number. Every temporary
// artifact the run creates lives in a run-scoped workspace that is
// removed before the run returns, on the success and failure paths alike.
//
// Pages are processed in ascending order with no intra-run parallelism;
// the engine invocation dominates the cost and is typically
// single-instance per resource directory. Independent runs may execute
// concurrently: they share nothing but the read-only resource directory.
//
// Key Types:
//
// - Config: Caller-supplied options, read-only for the duration of a run
// - Unit: One recognized word or line with its bounding box
// - Result: Page-ordered aggregation of units
//
// Main Functions:
//
// - Run: Execute the full pipeline for one image
// - RunPlainText: Convenience wrapper returning the recognized text only
// - ValidateLanguages: Check language resources without running anything
package ocrpipe

import (
	"sort"
	"strings"

	"github.com/gardar/ocrpipe/pkg/hocr"
)

// OutputFormat selects the engine output shape and the parser strategy.
type OutputFormat string

const (
	// FormatPlainText requests plain recognized text without positions.
	FormatPlainText OutputFormat = "text"
	// FormatHOCR requests positional hOCR markup with per-word boxes.
	FormatHOCR OutputFormat = "hocr"
)

// Granularity controls whether units are emitted per word or merged into
// line-level units. It affects bounding-box merging, never text content.
type Granularity string

const (
	GranularityWord Granularity = "word"
	GranularityLine Granularity = "line"
)

// Unit is one recognized piece of text with its bounding box in
// source-image pixel coordinates. Units are immutable once produced;
// plain-text output carries the zero box since no positions exist.
type Unit struct {
	Text string
	Box  hocr.BoundingBox
}

// Result aggregates recognized units per page. Keys are 1-based page
// numbers; after a successful run they are contiguous from 1 to the page
// count determined at the start, and a page that produced no text is
// present with an empty slice, never absent. Partial marks a result
// returned alongside an error: it holds only the pages completed before
// the failure.
type Result struct {
	Format      OutputFormat
	Granularity Granularity
	Pages       map[int][]Unit
	Partial     bool
}

// PageNumbers returns the result's page keys in ascending order.
func (r *Result) PageNumbers() []int {
	nums := make([]int, 0, len(r.Pages))
	for n := range r.Pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// PlainText renders the aggregated text in page order. Word units are
// joined with spaces, line units with newlines, and pages with blank
// lines; plain-text pages are passed through verbatim.
func (r *Result) PlainText() string {
	var pages []string
	for _, n := range r.PageNumbers() {
		units := r.Pages[n]
		texts := make([]string, 0, len(units))
		for _, u := range units {
			texts = append(texts, u.Text)
		}
		switch {
		case r.Format == FormatPlainText:
			pages = append(pages, strings.Join(texts, ""))
		case r.Granularity == GranularityLine:
			pages = append(pages, strings.Join(texts, "\n"))
		default:
			pages = append(pages, strings.Join(texts, " "))
		}
	}
	return strings.Join(pages, "\n\n")
}
