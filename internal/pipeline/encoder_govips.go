//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/pixmap/internal/ppm"
)

// govipsEncoder adds webp export on top of the stdlib encoders. The pixmap
// is handed to libvips as a lossless png.
type govipsEncoder struct {
	fallback stdlibEncoder
}

func (e govipsEncoder) Encode(ctx context.Context, img *ppm.Image, format string, quality int) ([]byte, error) {
	if normalizeOutputFormat(format) != "webp" {
		return e.fallback.Encode(ctx, img, format, quality)
	}

	pngData, err := e.fallback.Encode(ctx, img, "png", 0)
	if err != nil {
		return nil, err
	}

	ref, err := vips.NewImageFromBuffer(pngData)
	if err != nil {
		return nil, fmt.Errorf("load image into vips: %w", err)
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	if quality > 0 && quality <= 100 {
		params.Quality = quality
	}
	data, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return data, nil
}
