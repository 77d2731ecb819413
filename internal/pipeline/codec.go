package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/dunamismax/pixmap/internal/ppm"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrDecodeSource      = errors.New("decode source image")
)

type Encoder interface {
	Encode(ctx context.Context, img *ppm.Image, format string, quality int) ([]byte, error)
}

// decodeSource accepts any registered image format. Pixmaps whose tag is
// not P3 are not sniffed by image.Decode and go straight to the ppm codec.
func decodeSource(data []byte) (*ppm.Image, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		img, perr := ppm.Decode(bytes.NewReader(data))
		if perr != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrDecodeSource, perr)
		}
		return img, "ppm", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecodeSource, err)
	}

	if img, ok := src.(*ppm.Image); ok {
		return img, format, nil
	}
	return ppm.FromImage(src), format, nil
}

type stdlibEncoder struct{}

func (stdlibEncoder) Encode(ctx context.Context, img *ppm.Image, format string, quality int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	switch normalizeOutputFormat(format) {
	case "ppm":
		if err := ppm.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode ppm: %w", err)
		}
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode bmp: %w", err)
		}
	case "tiff":
		if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, fmt.Errorf("encode tiff: %w", err)
		}
	case "webp":
		return nil, fmt.Errorf("%w: webp export requires govips build tag", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}
