// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"fmt"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
)

// ImageMagick renders pages through document-context's ImageMagick
// renderer. The magick binary must be on PATH.
type ImageMagick struct{}

func (m *ImageMagick) Name() string { return BackendImageMagick }

func (m *ImageMagick) PageCount(path string) (int, error) {
	return countPages(path)
}

func (m *ImageMagick) RenderPage(ctx context.Context, path string, page, dpi int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := document.OpenPDF(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer doc.Close()

	p, err := doc.ExtractPage(page)
	if err != nil {
		return nil, fmt.Errorf("extracting page %d: %w", page, err)
	}

	renderer, err := image.NewImageMagickRenderer(imageConfig(dpi))
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}

	data, err := p.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page, err)
	}
	return data, nil
}

// imageConfig flattens transparency onto white so scans upload as opaque
// images.
func imageConfig(dpi int) config.ImageConfig {
	return config.ImageConfig{
		Format: "png",
		DPI:    dpi,
		Options: map[string]any{
			"background": "white",
		},
	}
}
