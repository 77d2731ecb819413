package main

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/dunamismax/pixmap/internal/ppm"
)

func TestRunWritesEveryEffect(t *testing.T) {
	dir := t.TempDir()
	src, err := ppm.New(3, 2)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := src.Set(1, 2, ppm.Pixel{R: 12, G: 200, B: 77}); err != nil {
		t.Fatalf("set: %v", err)
	}
	input := filepath.Join(dir, "input.ppm")
	if err := src.Save(input); err != nil {
		t.Fatalf("save input: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	if err := run(log.New(io.Discard, "", 0), input, outDir, "earth"); err != nil {
		t.Fatalf("run: %v", err)
	}

	copyOf, err := ppm.Read(filepath.Join(outDir, "earth-test-save.ppm"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !copyOf.Equal(src) {
		t.Fatal("test-save output differs from input")
	}

	for _, effect := range effects {
		out, err := ppm.Read(filepath.Join(outDir, "earth-"+effect.name+".ppm"))
		if err != nil {
			t.Fatalf("read %s: %v", effect.name, err)
		}
		if out.Width() != 3 || out.Height() != 2 {
			t.Fatalf("%s: expected 3x2, got %dx%d", effect.name, out.Width(), out.Height())
		}
	}

	inverted, err := ppm.Read(filepath.Join(outDir, "earth-invert.ppm"))
	if err != nil {
		t.Fatalf("read invert: %v", err)
	}
	if p, _ := inverted.Get(1, 2); p != (ppm.Pixel{R: 243, G: 55, B: 178}) {
		t.Fatalf("unexpected inverted pixel %+v", p)
	}
}

func TestRunMissingInput(t *testing.T) {
	err := run(log.New(io.Discard, "", 0), filepath.Join(t.TempDir(), "nope.ppm"), t.TempDir(), "earth")
	if !errors.Is(err, ppm.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}
