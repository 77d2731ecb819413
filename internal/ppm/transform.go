package ppm

import (
	"fmt"
	"math"
)

// mapPixels returns a new image with fn applied to every pixel of img.
func (img *Image) mapPixels(fn func(Pixel) Pixel) *Image {
	dst := newImage(img.width, img.height)
	for i, p := range img.pix {
		dst.pix[i] = fn(p)
	}
	return dst
}

func (img *Image) Invert() *Image {
	return img.mapPixels(func(p Pixel) Pixel {
		return Pixel{R: 255 - p.R, G: 255 - p.G, B: 255 - p.B}
	})
}

// Grayscale weights the channels 0.3, 0.6 and 0.1 and truncates.
func (img *Image) Grayscale() *Image {
	return img.mapPixels(func(p Pixel) Pixel {
		y := uint8((3*int(p.R) + 6*int(p.G) + int(p.B)) / 10)
		return Pixel{R: y, G: y, B: y}
	})
}

// GammaCorrect maps each channel c to 255*(c/255)^(1/gamma), rounded.
func (img *Image) GammaCorrect(gamma float64) (*Image, error) {
	if !(gamma > 0) || math.IsInf(gamma, 1) {
		return nil, fmt.Errorf("%w: gamma must be a positive finite number, got %v", ErrInvalidArgument, gamma)
	}

	var lut [256]uint8
	exp := 1 / gamma
	for c := range lut {
		lut[c] = clampChannel(255 * math.Pow(float64(c)/255, exp))
	}

	return img.mapPixels(func(p Pixel) Pixel {
		return Pixel{R: lut[p.R], G: lut[p.G], B: lut[p.B]}
	}), nil
}

// FlipHorizontal mirrors the image around its horizontal midline.
func (img *Image) FlipHorizontal() *Image {
	dst := newImage(img.width, img.height)
	for i := 0; i < img.height; i++ {
		copy(dst.row(i), img.row(img.height-1-i))
	}
	return dst
}

// Resize resamples img to width x height using nearest neighbour. The
// corners of the output map onto the corners of the source.
func (img *Image) Resize(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrInvalidDimension, width, height)
	}
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	if img.width == 0 || img.height == 0 {
		return nil, fmt.Errorf("%w: cannot resample a %dx%d image", ErrInvalidDimension, img.width, img.height)
	}

	dst := newImage(width, height)
	for i := 0; i < height; i++ {
		srcRow := sourceIndex(i, img.height, height)
		for j := 0; j < width; j++ {
			dst.pix[i*width+j] = img.pix[srcRow*img.width+sourceIndex(j, img.width, width)]
		}
	}
	return dst, nil
}

func sourceIndex(i, srcLen, dstLen int) int {
	if dstLen == 1 {
		return 0
	}
	return i * (srcLen - 1) / (dstLen - 1)
}

// Subimage copies the width x height rectangle whose top-left corner is
// at (row, col). The rectangle must lie entirely inside img.
func (img *Image) Subimage(row, col, width, height int) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: subimage %dx%d", ErrInvalidDimension, width, height)
	}
	if row < 0 || col < 0 || row > img.height || col > img.width ||
		height > img.height-row || width > img.width-col {
		return nil, fmt.Errorf("%w: subimage %dx%d at (%d,%d) in %dx%d image",
			ErrOutOfBounds, width, height, row, col, img.width, img.height)
	}

	dst := newImage(width, height)
	for i := 0; i < height; i++ {
		start := (row+i)*img.width + col
		copy(dst.row(i), img.pix[start:start+width])
	}
	return dst, nil
}

// Swirl returns an unmodified copy of img. No distortion is defined for it
// yet.
func (img *Image) Swirl() *Image {
	return img.Clone()
}

func clampChannel(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
