package ppm

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewFillsWhite(t *testing.T) {
	img, err := New(3, 2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if img.Width() != 3 || img.Height() != 2 {
		t.Fatalf("expected 3x2, got %dx%d", img.Width(), img.Height())
	}
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			p, err := img.Get(row, col)
			if err != nil {
				t.Fatalf("get (%d,%d): %v", row, col, err)
			}
			if p != White {
				t.Fatalf("expected white at (%d,%d), got %+v", row, col, p)
			}
		}
	}
}

func TestNewRejectsNegativeDimensions(t *testing.T) {
	for _, size := range []image.Point{{-1, 0}, {0, -1}, {-3, -3}, {1 << 32, 1 << 32}, {math.MaxInt, 2}, {MaxPixels, 2}} {
		if _, err := New(size.X, size.Y); !errors.Is(err, ErrInvalidDimension) {
			t.Fatalf("New(%d,%d): expected ErrInvalidDimension, got %v", size.X, size.Y, err)
		}
	}
}

func TestZeroValueImage(t *testing.T) {
	var img Image
	if img.Width() != 0 || img.Height() != 0 {
		t.Fatalf("expected 0x0, got %dx%d", img.Width(), img.Height())
	}
	if _, err := img.Get(0, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if !img.Invert().Equal(&img) {
		t.Fatal("expected invert of empty image to be empty")
	}
	empty, err := New(0, 0)
	if err != nil {
		t.Fatalf("New(0,0): %v", err)
	}
	if !empty.Equal(&img) {
		t.Fatal("expected New(0,0) to equal the zero value")
	}
}

func TestCheckSizeLimit(t *testing.T) {
	for _, size := range [][2]int{{MaxPixels, 1}, {1, MaxPixels}, {0, math.MaxInt}, {math.MaxInt, 0}, {1 << 13, 1 << 13}} {
		if err := checkSize(size[0], size[1]); err != nil {
			t.Fatalf("checkSize%v: %v", size, err)
		}
	}
	for _, size := range [][2]int{{MaxPixels + 1, 1}, {1 << 13, 1<<13 + 1}, {1 << 32, 1 << 32}} {
		if err := checkSize(size[0], size[1]); !errors.Is(err, ErrInvalidDimension) {
			t.Fatalf("checkSize%v: expected ErrInvalidDimension, got %v", size, err)
		}
	}
}

func TestFromColorSaturatesInvalidPremultipliedInput(t *testing.T) {
	got := pixelFromColor(color.RGBA64{R: 0xc000, G: 0x4000, B: 0, A: 0x8000})
	if want := (Pixel{R: 255, G: 127, B: 0}); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGetSetBounds(t *testing.T) {
	img, err := New(2, 2)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	want := Pixel{R: 1, G: 2, B: 3}
	if err := img.Set(1, 0, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := img.Get(1, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	for _, pt := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if _, err := img.Get(pt[0], pt[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("get %v: expected ErrOutOfBounds, got %v", pt, err)
		}
		if err := img.Set(pt[0], pt[1], want); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("set %v: expected ErrOutOfBounds, got %v", pt, err)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := randomImage(t, 4, 3, 1)
	want := src.Rows()
	dup := src.Clone()
	if !dup.Equal(src) {
		t.Fatal("expected clone to equal source")
	}

	if err := dup.Set(0, 0, Pixel{R: 7}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff(want, src.Rows()); diff != "" {
		t.Fatalf("mutating the clone changed the source (-want +got):\n%s", diff)
	}

	dupRows := dup.Rows()
	if err := src.Set(2, 3, Pixel{G: 9}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if diff := cmp.Diff(dupRows, dup.Rows()); diff != "" {
		t.Fatalf("mutating the source changed the clone (-want +got):\n%s", diff)
	}
}

func TestImageInterface(t *testing.T) {
	img := gridImage(t, [][]Pixel{
		{{R: 10, G: 20, B: 30}, {R: 40, G: 50, B: 60}},
	})

	if got := img.Bounds(); got != image.Rect(0, 0, 2, 1) {
		t.Fatalf("unexpected bounds %v", got)
	}
	r, g, b, a := img.At(1, 0).RGBA()
	if r>>8 != 40 || g>>8 != 50 || b>>8 != 60 || a != 0xffff {
		t.Fatalf("unexpected color at (1,0): %d %d %d %d", r>>8, g>>8, b>>8, a)
	}
	if img.At(0, 1) != color.Transparent {
		t.Fatal("expected transparent outside bounds")
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	src.Set(6, 5, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	got := FromImage(src)
	want := [][]Pixel{{{R: 200, G: 100, B: 50}, {R: 1, G: 2, B: 3}}}
	if diff := cmp.Diff(want, got.Rows()); diff != "" {
		t.Fatalf("FromImage mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceClampsToBounds(t *testing.T) {
	dst, err := New(3, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	red := Pixel{R: 255}
	patch := gridImage(t, [][]Pixel{
		{red, red},
		{red, red},
	})

	dst.Replace(patch, 2, 2)
	dst.Replace(patch, -1, -1)

	want := [][]Pixel{
		{red, White, White},
		{White, White, White},
		{White, White, red},
	}
	if diff := cmp.Diff(want, dst.Rows()); diff != "" {
		t.Fatalf("replace mismatch (-want +got):\n%s", diff)
	}

	dst.Replace(patch, 10, 10)
	dst.Replace(nil, 0, 0)
	if diff := cmp.Diff(want, dst.Rows()); diff != "" {
		t.Fatalf("out-of-range replace modified image (-want +got):\n%s", diff)
	}
}

func TestSubimageThenReplaceRestoresRegion(t *testing.T) {
	src := randomImage(t, 6, 5, 42)
	region, err := src.Subimage(1, 2, 3, 2)
	if err != nil {
		t.Fatalf("subimage: %v", err)
	}

	work := src.Invert()
	work.Replace(region, 1, 2)

	back, err := work.Subimage(1, 2, 3, 2)
	if err != nil {
		t.Fatalf("subimage: %v", err)
	}
	if diff := cmp.Diff(region.Rows(), back.Rows()); diff != "" {
		t.Fatalf("region not restored (-want +got):\n%s", diff)
	}

	copyOfSrc := src.Clone()
	copyOfSrc.Replace(region, 1, 2)
	if !copyOfSrc.Equal(src) {
		t.Fatal("replacing a region with itself changed the image")
	}
}

func gridImage(t testing.TB, rows [][]Pixel) *Image {
	t.Helper()

	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	img, err := New(width, height)
	if err != nil {
		t.Fatalf("New(%d,%d): %v", width, height, err)
	}
	for r, row := range rows {
		for c, p := range row {
			if err := img.Set(r, c, p); err != nil {
				t.Fatalf("set (%d,%d): %v", r, c, err)
			}
		}
	}
	return img
}

func randomImage(t testing.TB, width, height int, seed int64) *Image {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	img, err := New(width, height)
	if err != nil {
		t.Fatalf("New(%d,%d): %v", width, height, err)
	}
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			p := Pixel{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
			if err := img.Set(r, c, p); err != nil {
				t.Fatalf("set: %v", err)
			}
		}
	}
	return img
}
