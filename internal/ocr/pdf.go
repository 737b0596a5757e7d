package ocr

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

// pageReader is the slice of a paginated document the extractor needs.
type pageReader interface {
	NumPage() int
	PageText(i int) (string, error) // 1-based
}

type ledongthucReader struct {
	r *pdf.Reader
}

func openPDF(data []byte) (pageReader, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return ledongthucReader{r: r}, nil
}

func (l ledongthucReader) NumPage() int { return l.r.NumPage() }

func (l ledongthucReader) PageText(i int) (text string, err error) {
	// the parser panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, rec)
		}
	}()
	p := l.r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (e *Extractor) extractPDF(data []byte) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF, Method: "pdf-text"}
	r, err := e.openPDF(data)
	if err != nil {
		e.logger.Error("pdf open failed", "error", err)
		return res, fmt.Errorf("open pdf: %w", err)
	}
	text, warns := joinPages(r)
	res.Text = text
	res.Pages = r.NumPage()
	res.Warnings = warns
	res.Degraded = len(warns) > 0
	if len(warns) > 0 {
		e.logger.Warn("pdf pages without text", "pages", res.Pages, "empty", len(warns))
	}
	return res, nil
}

// joinPages concatenates every page's text with a single space. A page that
// yields nothing contributes "" and a warning.
func joinPages(r pageReader) (string, []string) {
	n := r.NumPage()
	parts := make([]string, 0, n)
	var warns []string
	for i := 1; i <= n; i++ {
		txt, err := r.PageText(i)
		if err != nil {
			warns = append(warns, err.Error())
			txt = ""
		} else if txt == "" {
			warns = append(warns, fmt.Sprintf("page %d has no text layer", i))
		}
		parts = append(parts, txt)
	}
	return strings.Join(parts, " "), warns
}
