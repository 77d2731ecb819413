package ppm

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadTwoByTwo(t *testing.T) {
	want := [][]Pixel{
		{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}},
		{{R: 10, G: 20, B: 30}, {R: 200, G: 100, B: 50}},
	}
	src := gridImage(t, want)

	path := filepath.Join(t.TempDir(), "square.ppm")
	if err := src.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	var loaded Image
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, loaded.Rows()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripRandomImages(t *testing.T) {
	dir := t.TempDir()
	for i, size := range []image.Point{{0, 0}, {1, 1}, {7, 3}, {3, 9}, {16, 16}} {
		src := randomImage(t, size.X, size.Y, int64(i))
		path := filepath.Join(dir, "img.ppm")
		if err := src.Save(path); err != nil {
			t.Fatalf("save %v: %v", size, err)
		}
		got, err := Read(path)
		if err != nil {
			t.Fatalf("read %v: %v", size, err)
		}
		if !got.Equal(src) {
			t.Fatalf("round trip of %v image changed pixels", size)
		}
	}
}

func TestDecodeAcceptsArbitraryWhitespace(t *testing.T) {
	input := "P3 # plain pixmap\n2\n\n1 255\n1\t2 3\n\n4   5\r\n6 # trailing\n"
	img, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := [][]Pixel{{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}}
	if diff := cmp.Diff(want, img.Rows()); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRescalesSmallMaxValue(t *testing.T) {
	img, err := Decode(strings.NewReader("P3 1 1 15 15 0 8"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, _ := img.Get(0, 0)
	if want := (Pixel{R: 255, G: 0, B: 136}); p != want {
		t.Fatalf("expected %+v, got %+v", want, p)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"missing height":   "P3 2",
		"non numeric":      "P3 two 1 255",
		"negative width":   "P3 -1 1 255",
		"zero max":         "P3 1 1 0 0 0 0",
		"wide max":         "P3 1 1 65535 0 0 0",
		"truncated body":   "P3 2 1 255 1 2 3 4",
		"channel over max": "P3 1 1 255 256 0 0",
		"huge":             "P3 100000 100000 255",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
			if !errors.Is(err, ErrIO) {
				t.Fatalf("expected format errors to match ErrIO, got %v", err)
			}
		})
	}
}

func TestLoadFailureKeepsImage(t *testing.T) {
	dir := t.TempDir()
	img := randomImage(t, 3, 2, 7)
	before := img.Rows()

	if err := img.Load(filepath.Join(dir, "missing.ppm")); !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO for missing file, got %v", err)
	}

	bad := filepath.Join(dir, "bad.ppm")
	if err := os.WriteFile(bad, []byte("P3 2 2 255 1 2 3"), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	if err := img.Load(bad); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for truncated file, got %v", err)
	}

	if diff := cmp.Diff(before, img.Rows()); diff != "" {
		t.Fatalf("failed load modified image (-want +got):\n%s", diff)
	}
}

func TestSaveToMissingDirectory(t *testing.T) {
	img := randomImage(t, 1, 1, 1)
	err := img.Save(filepath.Join(t.TempDir(), "no", "such", "dir.ppm"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestImageDecodeRecognisesPixmap(t *testing.T) {
	src := randomImage(t, 4, 2, 3)
	var buf bytes.Buffer
	if err := Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if format != "ppm" || cfg.Width != 4 || cfg.Height != 2 {
		t.Fatalf("unexpected config format=%s %dx%d", format, cfg.Width, cfg.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("image.Decode: %v", err)
	}
	if !FromImage(decoded).Equal(src) {
		t.Fatal("image.Decode produced different pixels")
	}
}
