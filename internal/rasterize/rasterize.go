// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rasterize turns the pages of the source document into one PNG per
// person. Page i is paired with the i-th name; the image file is named after
// the person.
package rasterize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/docupload/pkg/types"
)

const imageExt = ".png"

// Rasterize renders the pages of pdfPath into cfg.OutputDir and pairs them
// with names by position. When the page and name counts differ it logs a
// warning and pairs only the first min(pages, names) entries. Any render or
// write failure aborts the whole rasterization.
func Rasterize(ctx context.Context, b Backend, pdfPath string, names []string, cfg types.RasterConfig, log *slog.Logger) ([]types.Person, error) {
	pages, err := b.PageCount(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	n := min(pages, len(names))
	if pages != len(names) {
		log.WarnContext(ctx, "page count does not match name count, pairing the first entries only",
			"pages", pages, "names", len(names), "paired", n)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	log.InfoContext(ctx, "rasterizing", "document", pdfPath, "pages", n, "dpi", cfg.DPI, "backend", b.Name())

	used := make(map[string]bool, n)
	people := make([]types.Person, 0, n)
	for i := range n {
		page := i + 1
		name := strings.TrimSpace(names[i])

		base := FileName(name, page)
		// Case-insensitive filesystems would map "Ann Lee" and "ann lee" to one file.
		if used[strings.ToLower(base)] {
			base += "-" + strconv.Itoa(page)
		}
		used[strings.ToLower(base)] = true
		path := filepath.Join(cfg.OutputDir, base+imageExt)

		data, err := b.RenderPage(ctx, pdfPath, page, cfg.DPI)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d for %s: %w", page, name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}

		log.DebugContext(ctx, "page rendered", "page", page, "image", path)
		people = append(people, types.Person{Name: name, Image: path, Page: page})
	}
	return people, nil
}

// FileName derives an image base name from a person's name: surrounding
// space is trimmed, inner spaces become underscores, and path separators,
// reserved characters and control characters are dropped. A name with
// nothing left falls back to "page-<page>".
func FileName(name string, page int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case strings.ContainsRune(`/\<>:"|?*`, r), unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), ".")
	if s == "" {
		return "page-" + strconv.Itoa(page)
	}
	return s
}
