// Package extract pulls text out of PDF files using the poppler tools, with
// a tesseract OCR fallback for scanned documents. The binaries are consumed
// over their stdin/stdout contract; nothing is parsed beyond their output.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Binary names resolved from PATH.
const (
	pdftotextBin = "pdftotext"
	pdftoppmBin  = "pdftoppm"
	tesseractBin = "tesseract"
)

// PDF extracts text from PDF documents.
type PDF struct {
	ocrLangs string // tesseract language pack spec
	logger   *zap.Logger
}

// NewPDF creates a PDF extractor. OCR runs with Arabic and English packs.
func NewPDF(logger *zap.Logger) *PDF {
	return &PDF{ocrLangs: "ara+eng", logger: logger}
}

// WithOCRLangs overrides the tesseract language pack spec, e.g. "ara+eng".
func (p *PDF) WithOCRLangs(langs string) *PDF {
	if langs != "" {
		p.ocrLangs = langs
	}
	return p
}

// Extract returns the text content of the PDF at path. When pdftotext yields
// no text (scanned document), pages are rasterized and OCRed instead.
func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	text, err := p.pdftotext(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		p.logger.Warn("pdftotext failed, trying OCR",
			zap.String("file", filepath.Base(path)), zap.Error(err))
	} else {
		p.logger.Info("no embedded text, trying OCR",
			zap.String("file", filepath.Base(path)))
	}

	return p.ocr(ctx, path)
}

// pdftotext runs `pdftotext -enc UTF-8 <path> -` and captures stdout.
func (p *PDF) pdftotext(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, pdftotextBin, "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext %s: %w", filepath.Base(path), err)
	}
	return string(out), nil
}

// ocr rasterizes pages via pdftoppm and feeds each page to tesseract.
func (p *PDF) ocr(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "pharmaninja-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create ocr temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, pdftoppmBin, "-png", "-r", "300", path, prefix)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm %s: %w", filepath.Base(path), err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("list ocr pages: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("pdftoppm produced no pages for %s", filepath.Base(path))
	}
	sort.Strings(pages)

	var b strings.Builder
	for _, page := range pages {
		out, err := exec.CommandContext(ctx, tesseractBin, page, "stdout", "-l", p.ocrLangs).Output()
		if err != nil {
			return "", fmt.Errorf("tesseract %s: %w", filepath.Base(page), err)
		}
		b.Write(out)
		b.WriteString("\n")
	}

	return b.String(), nil
}
