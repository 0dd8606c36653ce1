// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

const binPdftoppm = "pdftoppm"

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// Pdftoppm renders pages by shelling out to poppler's pdftoppm.
type Pdftoppm struct {
	exec executor
}

// NewPdftoppm returns a Pdftoppm backend using os/exec.
func NewPdftoppm() *Pdftoppm {
	return &Pdftoppm{exec: &osExecutor{}}
}

func (p *Pdftoppm) Name() string { return BackendPdftoppm }

func (p *Pdftoppm) PageCount(path string) (int, error) {
	return countPages(path)
}

func (p *Pdftoppm) RenderPage(ctx context.Context, path string, page, dpi int) ([]byte, error) {
	if _, err := p.exec.LookPath(binPdftoppm); err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", binPdftoppm, err)
	}

	tmp, err := os.MkdirTemp("", "docupload-page-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	// -singlefile suppresses the page-number suffix pdftoppm otherwise adds.
	prefix := filepath.Join(tmp, "page")
	n := strconv.Itoa(page)
	args := []string{"-r", strconv.Itoa(dpi), "-png", "-f", n, "-l", n, "-singlefile", path, prefix}
	if err := p.exec.Run(ctx, binPdftoppm, args...); err != nil {
		return nil, fmt.Errorf("running %s on page %d: %w", binPdftoppm, page, err)
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("reading rendered page %d: %w", page, err)
	}
	return data, nil
}
