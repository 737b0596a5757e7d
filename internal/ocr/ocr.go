package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "eng"
	TessdataDir string
	MedianSize  int // odd window size for the median filter, default 3
}

// Document is one uploaded file held in memory for the duration of an interaction.
type Document struct {
	Name string
	Ext  string // normalized, no dot
	Data []byte
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	// Degraded is set when OCR was unavailable or some PDF pages had no text layer.
	Degraded bool
}

type Extractor struct {
	cfg     Config
	runner  Runner
	openPDF func(data []byte) (pageReader, error)
	logger  *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = constants.OCRLanguage
	}
	if cfg.MedianSize <= 0 {
		cfg.MedianSize = 3
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, openPDF: openPDF, logger: logger}
}

// WithRunner swaps the command runner, mainly for tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a strategy based on the document extension.
func (e *Extractor) Extract(ctx context.Context, doc Document) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(doc.Ext)
	e.logger.Debug("starting text extraction", "name", doc.Name, "ext", ext, "bytes", len(doc.Data))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(doc.Data)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, doc.Data)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported extraction extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}
