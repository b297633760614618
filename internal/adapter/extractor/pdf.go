package extractor

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ErrPDFToolNotFound is returned when pdftotext (poppler-utils) is not
// installed. PDF parsing is delegated to it as an external capability.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")

// pdfTimeout bounds a single extraction; a pathological PDF must not
// stall the whole pipeline.
const pdfTimeout = 60 * time.Second

// CommandRunner executes an external command and returns its stdout.
// Seam for testing PDF extraction without poppler installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type pdfExtractor struct {
	runner CommandRunner
}

func newPDFExtractor() *pdfExtractor {
	return &pdfExtractor{runner: execRunner{}}
}

// extract converts a PDF to text via pdftotext. Parser-level failures
// surface as errors and the caller skips the file.
func (p *pdfExtractor) extract(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", ErrPDFToolNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	// "-" writes the text to stdout.
	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
