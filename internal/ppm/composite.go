package ppm

import "fmt"

// combine applies fn channel by channel to img and other, which must have
// the same dimensions.
func (img *Image) combine(op string, other *Image, fn func(a, b uint8) uint8) (*Image, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: %s with nil image", ErrInvalidArgument, op)
	}
	if img.width != other.width || img.height != other.height {
		return nil, fmt.Errorf("%w: %s %dx%d with %dx%d",
			ErrDimensionMismatch, op, img.width, img.height, other.width, other.height)
	}

	dst := newImage(img.width, img.height)
	for i, a := range img.pix {
		b := other.pix[i]
		dst.pix[i] = Pixel{R: fn(a.R, b.R), G: fn(a.G, b.G), B: fn(a.B, b.B)}
	}
	return dst, nil
}

// AlphaBlend computes img*(1-alpha) + other*alpha per channel. Alpha values
// outside [0,1] extrapolate and the result is clamped to [0,255].
func (img *Image) AlphaBlend(other *Image, alpha float64) (*Image, error) {
	return img.combine("alpha blend", other, func(a, b uint8) uint8 {
		if a == b {
			return a
		}
		return clampChannel(float64(a) + (float64(b)-float64(a))*alpha)
	})
}

func (img *Image) Lightest(other *Image) (*Image, error) {
	return img.combine("lightest", other, func(a, b uint8) uint8 {
		return max(a, b)
	})
}

func (img *Image) Darkest(other *Image) (*Image, error) {
	return img.combine("darkest", other, func(a, b uint8) uint8 {
		return min(a, b)
	})
}

func (img *Image) Difference(other *Image) (*Image, error) {
	return img.combine("difference", other, func(a, b uint8) uint8 {
		if a > b {
			return a - b
		}
		return b - a
	})
}

// Multiply scales the channel product back into range: round(a*b/255).
func (img *Image) Multiply(other *Image) (*Image, error) {
	return img.combine("multiply", other, func(a, b uint8) uint8 {
		return uint8((int(a)*int(b) + 127) / 255)
	})
}
