package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.IMAGE, Method: "image-ocr", Language: e.cfg.Language, Pages: 1}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return res, fmt.Errorf("decode image: %w", err)
	}
	prepared := MedianFilter(Grayscale(img), e.cfg.MedianSize)
	e.logger.Debug("image preprocessed", "format", format, "bounds", prepared.Bounds().String())

	tmpDir, err := os.MkdirTemp("", "da-ocr-*")
	if err != nil {
		return res, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			e.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	path := filepath.Join(tmpDir, "page.png")
	if err := writePNG(path, prepared); err != nil {
		return res, err
	}

	txt, warn, err := e.tesseractOCR(ctx, path)
	res.Warnings = append(res.Warnings, warn...)
	if err != nil {
		// A bare name missing from PATH yields exec.ErrNotFound, a missing
		// absolute path fails at fork/exec with fs.ErrNotExist.
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("ocr engine unavailable", "binary", e.cfg.Tesseract)
			res.Text = constants.OCRUnavailable
			res.Degraded = true
			return res, nil
		}
		return res, err
	}
	res.Text = strings.TrimSpace(txt)
	return res, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		var warns []string
		if len(errb) > 0 {
			warns = []string{string(errb)}
		}
		return "", warns, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
