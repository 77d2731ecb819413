package ppm

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Image is a row-major RGB pixel buffer. The pixel at (row, col) lives at
// pix[row*width+col]. The zero value is a valid 0x0 image.
type Image struct {
	width  int
	height int
	pix    []Pixel
}

// MaxPixels caps width*height for every image this package allocates.
const MaxPixels = 1 << 26

// checkSize rejects negative sizes and sizes whose pixel count exceeds
// MaxPixels. The product is never computed before the bound is known.
func checkSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
	}
	if height != 0 && width > MaxPixels/height {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidDimension, width, height, MaxPixels)
	}
	return nil
}

// New returns a width x height image with every pixel set to White.
func New(width, height int) (*Image, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	img := newImage(width, height)
	for i := range img.pix {
		img.pix[i] = White
	}
	return img, nil
}

// newImage allocates without filling; callers overwrite every pixel.
func newImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		pix:    make([]Pixel, width*height),
	}
}

// FromImage copies any image.Image into a new buffer. Row 0 is the top of
// src's bounds.
func FromImage(src image.Image) *Image {
	if img, ok := src.(*Image); ok {
		return img.Clone()
	}

	bounds := src.Bounds()
	dst := newImage(bounds.Dx(), bounds.Dy())
	draw.Draw(drawable{dst}, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

func (img *Image) Width() int {
	return img.width
}

func (img *Image) Height() int {
	return img.height
}

// Clone returns a deep copy sharing no storage with img.
func (img *Image) Clone() *Image {
	dst := newImage(img.width, img.height)
	copy(dst.pix, img.pix)
	return dst
}

func (img *Image) inBounds(row, col int) bool {
	return row >= 0 && row < img.height && col >= 0 && col < img.width
}

func (img *Image) Get(row, col int) (Pixel, error) {
	if !img.inBounds(row, col) {
		return Pixel{}, fmt.Errorf("%w: get (%d,%d) in %dx%d image", ErrOutOfBounds, row, col, img.width, img.height)
	}
	return img.pix[row*img.width+col], nil
}

func (img *Image) Set(row, col int, p Pixel) error {
	if !img.inBounds(row, col) {
		return fmt.Errorf("%w: set (%d,%d) in %dx%d image", ErrOutOfBounds, row, col, img.width, img.height)
	}
	img.pix[row*img.width+col] = p
	return nil
}

// Equal reports whether both images have the same size and pixels.
func (img *Image) Equal(other *Image) bool {
	if other == nil || img.width != other.width || img.height != other.height {
		return false
	}
	for i := range img.pix {
		if img.pix[i] != other.pix[i] {
			return false
		}
	}
	return true
}

// Rows returns a copy of the pixels as a slice of rows.
func (img *Image) Rows() [][]Pixel {
	rows := make([][]Pixel, img.height)
	for i := range rows {
		rows[i] = append([]Pixel(nil), img.row(i)...)
	}
	return rows
}

func (img *Image) row(i int) []Pixel {
	return img.pix[i*img.width : (i+1)*img.width]
}

// Replace copies src into img with src's top-left pixel at (row, col).
// Pixels that would land outside img are skipped.
func (img *Image) Replace(src *Image, row, col int) {
	if src == nil {
		return
	}

	r0, r1 := max(0, row), min(img.height, row+src.height)
	c0, c1 := max(0, col), min(img.width, col+src.width)
	if r0 >= r1 || c0 >= c1 {
		return
	}

	for r := r0; r < r1; r++ {
		srcRow := src.row(r - row)
		copy(img.pix[r*img.width+c0:r*img.width+c1], srcRow[c0-col:c1-col])
	}
}

func (img *Image) ColorModel() color.Model {
	return Model
}

func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.width, img.height)
}

// At implements image.Image; x is the column and y the row.
func (img *Image) At(x, y int) color.Color {
	if !img.inBounds(y, x) {
		return color.Transparent
	}
	return img.pix[y*img.width+x]
}

var _ draw.Image = (*drawable)(nil)

// drawable lets draw.Draw write into an Image.
type drawable struct {
	*Image
}

func (d drawable) Set(x, y int, c color.Color) {
	if d.inBounds(y, x) {
		d.pix[y*d.width+x] = pixelFromColor(c)
	}
}
