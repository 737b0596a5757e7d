package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

// buildPDF writes a minimal PDF with one page per entry. An empty entry gets
// an empty content stream, i.e. a page with no text layer.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	// 1 catalog, 2 page tree, 3 font, then a page and a content stream per page.
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled once the kids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var kids []string
	for _, text := range pages {
		pageNum := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pageNum+1))
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestExtractRealPDFWithBlankPage(t *testing.T) {
	e := NewExtractor(Config{}, quietLogger())

	res, err := e.Extract(context.Background(), Document{Name: "three.pdf", Ext: "pdf", Data: buildPDF(t, "Hello", "", "World")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hello  World" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Pages != 3 || res.SourceType != constants.PDF || !res.Degraded {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "page 2 has no text layer") {
		t.Fatalf("unexpected warnings %v", res.Warnings)
	}
}

func TestExtractRealPDFSinglePage(t *testing.T) {
	e := NewExtractor(Config{}, quietLogger())

	res, err := e.Extract(context.Background(), Document{Name: "one.pdf", Ext: "pdf", Data: buildPDF(t, "Hello")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Hello" || res.Pages != 1 || len(res.Warnings) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExtractRealPDFWithoutTextLayer(t *testing.T) {
	e := NewExtractor(Config{}, quietLogger())

	res, err := e.Extract(context.Background(), Document{Name: "scan.pdf", Ext: "pdf", Data: buildPDF(t, "")})
	if err != nil {
		t.Fatalf("a blank page is not an error, got %v", err)
	}
	if res.Text != "" || len(res.Warnings) != 1 {
		t.Fatalf("expected empty text and one warning, got %+v", res)
	}
}

func TestExtractRealPDFGrowsWithPages(t *testing.T) {
	e := NewExtractor(Config{}, quietLogger())
	pages := []string{"Alpha", "", "Beta", "Gamma"}

	prev := -1
	for n := 1; n <= len(pages); n++ {
		res, err := e.Extract(context.Background(), Document{Ext: "pdf", Data: buildPDF(t, pages[:n]...)})
		if err != nil {
			t.Fatalf("%d pages: %v", n, err)
		}
		if len(res.Text) < prev {
			t.Fatalf("text shrank at %d pages: %d < %d", n, len(res.Text), prev)
		}
		prev = len(res.Text)
	}
}
