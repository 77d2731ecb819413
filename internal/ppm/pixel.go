package ppm

import "image/color"

// Pixel is an opaque 8-bit RGB triple.
type Pixel struct {
	R, G, B uint8
}

var (
	White = Pixel{R: 255, G: 255, B: 255}
	Black = Pixel{}
)

// Model converts any color to a Pixel, dropping alpha after
// un-premultiplying it.
var Model color.Model = color.ModelFunc(pixelModel)

func (p Pixel) RGBA() (r, g, b, a uint32) {
	r = uint32(p.R)
	r |= r << 8
	g = uint32(p.G)
	g |= g << 8
	b = uint32(p.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func pixelModel(c color.Color) color.Color {
	if _, ok := c.(Pixel); ok {
		return c
	}
	return pixelFromColor(c)
}

func pixelFromColor(c color.Color) Pixel {
	if p, ok := c.(Pixel); ok {
		return p
	}
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Black
	}
	if a != 0xffff {
		r = min(r*0xffff/a, 0xffff)
		g = min(g*0xffff/a, 0xffff)
		b = min(b*0xffff/a, 0xffff)
	}
	return Pixel{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}
