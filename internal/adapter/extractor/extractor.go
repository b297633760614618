// Package extractor turns supported document files into cleaned plain
// text. Extraction failures are per-file and recoverable: callers get an
// error (or empty text) and skip the file, the batch continues.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"docfind/internal/domain"
	"docfind/internal/port"
)

var _ port.Extractor = (*Extractor)(nil)

// Extractor extracts and cleans text from .txt, .pdf and .docx files.
type Extractor struct {
	maxTextLen int
	pdf        *pdfExtractor
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCommandRunner replaces the runner used for PDF extraction.
func WithCommandRunner(r CommandRunner) Option {
	return func(e *Extractor) { e.pdf.runner = r }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an extractor. maxTextLen caps cleaned output per document;
// zero or negative means no cap.
func New(maxTextLen int, opts ...Option) *Extractor {
	e := &Extractor{
		maxTextLen: maxTextLen,
		pdf:        newPDFExtractor(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether the extension is handled.
func (e *Extractor) Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}

// Extract reads the file at path and returns its cleaned text.
func (e *Extractor) Extract(ctx context.Context, path, ext string) (string, error) {
	var raw string
	var err error

	switch strings.ToLower(ext) {
	case ".txt":
		raw, err = extractText(path)
	case ".pdf":
		raw, err = e.pdf.extract(ctx, path)
	case ".docx":
		raw, err = extractDocx(path)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, ext)
	}
	if err != nil {
		e.logger.Debug("extraction failed", "path", path, "err", err)
		return "", err
	}

	cleaned := e.clean(raw)
	if cleaned == "" {
		return "", domain.ErrNoContent
	}
	return cleaned, nil
}

// clean collapses whitespace runs to single spaces, drops non-printable
// control characters, and caps the result at maxTextLen characters.
func (e *Extractor) clean(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true // also trims leading whitespace
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) || r == 0xFFFD {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	cleaned := strings.TrimRight(b.String(), " ")
	if e.maxTextLen > 0 {
		cleaned = truncateRunes(cleaned, e.maxTextLen)
	}
	return cleaned
}

// truncateRunes cuts s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
