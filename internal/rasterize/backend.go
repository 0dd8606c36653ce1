// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Backend names accepted by NewBackend.
const (
	BackendImageMagick = "imagemagick"
	BackendPdftoppm    = "pdftoppm"
)

// Backend renders single pages of a PDF to PNG bytes.
type Backend interface {
	// Name returns the backend name as accepted by NewBackend.
	Name() string

	// PageCount returns the number of pages in the PDF at path.
	PageCount(path string) (int, error)

	// RenderPage renders the 1-based page of the PDF at path at the given
	// resolution and returns the encoded PNG.
	RenderPage(ctx context.Context, path string, page, dpi int) ([]byte, error)
}

var backends = map[string]func() Backend{
	BackendImageMagick: func() Backend { return &ImageMagick{} },
	BackendPdftoppm:    func() Backend { return NewPdftoppm() },
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown rasterizer backend %q (available: %s)", name, strings.Join(Backends(), ", "))
	}
	return ctor(), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// countPages reads the page count from the PDF's page tree.
func countPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("counting pages in %s: %w", path, err)
	}
	return n, nil
}
