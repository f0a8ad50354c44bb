// ocrpipe is a command-line tool for running raster images through an
// OCR engine and saving the recognized text or positioned text units.
//
// It counts the logical pages of the input (multi-frame TIFF containers
// are processed page by page), optionally binarizes each page before
// recognition, invokes the configured engine under a bounded timeout,
// and aggregates the parsed output in page order. All temporary
// artifacts are removed before the tool exits.
//
// Configuration:
//
// An optional YAML configuration file selects the engine backend and its
// settings:
//
//	engine: "tesseract"          # tesseract (default), gosseract, documentai
//	tesseract_path: ""           # explicit binary path; empty means PATH lookup
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//
// A .env file in the working directory is loaded before anything else,
// so GOOGLE_APPLICATION_CREDENTIALS and friends can live there.
//
// Usage:
//
//	ocrpipe -image input.tiff [options]
//
// Required flags:
//
//	-image string   Path to the input image (TIFF, PNG, JPEG, BMP, or GIF)
//
// Output options (at least one required):
//
//	-text string    Path to save the recognized plain text
//	-units string   Path to save positioned units as JSON
//
// Recognition options:
//
//	-config string      Path to the YAML configuration file
//	-languages string   Comma-separated language codes in priority order (default "eng")
//	-tessdata string    Directory holding the per-language trained models
//	-granularity string Unit granularity for -units: word or line (default "word")
//	-preprocess         Binarize each page before recognition
//	-psm int            Page segmentation mode hint (-1 leaves the engine default)
//	-lexicon string     Path to a custom word list
//	-timeout duration   Per-invocation engine timeout (default 3h)
//	-verbose            Log pipeline progress to stderr
//
// Example:
//
//	ocrpipe -image scan.tiff -tessdata /usr/share/tessdata -text scan.txt
//	ocrpipe -image scan.tiff -tessdata /usr/share/tessdata -languages isl+eng -units scan.json -granularity line
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrpipe/pkg/engine"
	"github.com/gardar/ocrpipe/pkg/ocrpipe"
)

type yamlConfig struct {
	Engine        string                  `yaml:"engine"`
	TesseractPath string                  `yaml:"tesseract_path"`
	DocumentAI    engine.DocumentAIConfig `yaml:"documentai"`
}

// loadConfig reads the optional YAML file and builds the engine backend.
func loadConfig(path string) (engine.Engine, error) {
	if path == "" {
		return engine.NewTesseract(""), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, err
	}
	switch yc.Engine {
	case "", "tesseract":
		return engine.NewTesseract(yc.TesseractPath), nil
	case "gosseract":
		return engine.NewGosseract(), nil
	case "documentai":
		return engine.NewDocumentAI(yc.DocumentAI), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", yc.Engine)
	}
}

// unitJSON is the serialized shape of one recognized unit.
type unitJSON struct {
	Page int    `json:"page"`
	Text string `json:"text"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

func main() {
	imagePath := flag.String("image", "", "Path to the input image (required)")
	configPath := flag.String("config", "", "Path to the config YAML file")

	// Output flags
	textPath := flag.String("text", "", "Path to save recognized plain text")
	unitsPath := flag.String("units", "", "Path to save positioned units as JSON")

	// Recognition flags
	languages := flag.String("languages", "", "Comma-separated language codes in priority order")
	resourceDir := flag.String("tessdata", "", "Directory holding per-language trained models")
	granularity := flag.String("granularity", "word", "Unit granularity for -units: word or line")
	preprocess := flag.Bool("preprocess", false, "Binarize each page before recognition")
	psm := flag.Int("psm", -1, "Page segmentation mode hint (-1 leaves the engine default)")
	lexiconPath := flag.String("lexicon", "", "Path to a custom word list")
	timeout := flag.Duration("timeout", ocrpipe.DefaultEngineTimeout, "Per-invocation engine timeout")
	verbose := flag.Bool("verbose", false, "Log pipeline progress to stderr")

	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -image flag is required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *textPath == "" && *unitsPath == "" {
		fmt.Fprintln(os.Stderr, "Error: At least one output flag must be provided (-text or -units)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Credentials and other environment live in .env when present.
	_ = godotenv.Load()

	eng, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	cfg := ocrpipe.DefaultConfig()
	cfg.Engine = eng
	cfg.ResourceDir = *resourceDir
	cfg.Granularity = ocrpipe.Granularity(*granularity)
	cfg.Preprocess = *preprocess
	cfg.LexiconPath = *lexiconPath
	cfg.EngineTimeout = *timeout
	cfg.Logger = &logger
	if *languages != "" {
		cfg.Languages = strings.Split(*languages, "+")
	}
	if *psm >= 0 {
		mode := *psm
		cfg.PageSegMode = &mode
	}
	if *unitsPath == "" {
		// Text-only invocations skip the positional markup entirely.
		cfg.Format = ocrpipe.FormatPlainText
	}

	start := time.Now()
	result, err := ocrpipe.Run(context.Background(), *imagePath, cfg)
	if err != nil {
		if result != nil && result.Partial {
			log.Printf("Aborted after %d completed pages: %v", len(result.PageNumbers())-1, err)
		}
		log.Fatalf("Pipeline failed: %v", err)
	}
	fmt.Printf("Processed %d pages in %s\n", len(result.Pages), time.Since(start).Round(time.Millisecond))

	if *textPath != "" {
		if err := os.WriteFile(*textPath, []byte(result.PlainText()), 0644); err != nil {
			log.Fatalf("Failed to write text output: %v", err)
		}
		fmt.Println("Recognized text saved to:", *textPath)
	}

	if *unitsPath != "" {
		var units []unitJSON
		for _, page := range result.PageNumbers() {
			for _, u := range result.Pages[page] {
				units = append(units, unitJSON{
					Page: page,
					Text: u.Text,
					X1:   u.Box.X1,
					Y1:   u.Box.Y1,
					X2:   u.Box.X2,
					Y2:   u.Box.Y2,
				})
			}
		}
		data, err := json.MarshalIndent(units, "", "  ")
		if err != nil {
			log.Fatalf("Failed to convert units to JSON: %v", err)
		}
		if err := os.WriteFile(*unitsPath, data, 0644); err != nil {
			log.Fatalf("Failed to write units JSON: %v", err)
		}
		fmt.Println("Positioned units saved to:", *unitsPath)
	}
}
