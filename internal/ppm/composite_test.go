package ppm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAlphaBlend(t *testing.T) {
	a := randomImage(t, 4, 4, 1)
	b := randomImage(t, 4, 4, 2)

	for _, alpha := range []float64{-3, 0, 0.25, 0.5, 1, 7.5} {
		self, err := a.AlphaBlend(a, alpha)
		if err != nil {
			t.Fatalf("blend alpha=%v: %v", alpha, err)
		}
		if !self.Equal(a) {
			t.Fatalf("blending an image with itself at alpha=%v changed it", alpha)
		}
	}

	zero, err := a.AlphaBlend(b, 0)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	if !zero.Equal(a) {
		t.Fatal("alpha 0 should return the receiver")
	}

	one, err := a.AlphaBlend(b, 1)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	if !one.Equal(b) {
		t.Fatal("alpha 1 should return the argument")
	}

	x := gridImage(t, [][]Pixel{{{R: 100, G: 0, B: 255}}})
	y := gridImage(t, [][]Pixel{{{R: 200, G: 255, B: 0}}})
	half, err := x.AlphaBlend(y, 0.5)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	if diff := cmp.Diff([][]Pixel{{{R: 150, G: 128, B: 128}}}, half.Rows()); diff != "" {
		t.Fatalf("half blend mismatch (-want +got):\n%s", diff)
	}

	over, err := x.AlphaBlend(y, 2)
	if err != nil {
		t.Fatalf("blend: %v", err)
	}
	if diff := cmp.Diff([][]Pixel{{{R: 255, G: 255, B: 0}}}, over.Rows()); diff != "" {
		t.Fatalf("extrapolated blend mismatch (-want +got):\n%s", diff)
	}
}

func TestCompositeOperations(t *testing.T) {
	x := gridImage(t, [][]Pixel{{{R: 10, G: 200, B: 255}, {R: 0, G: 128, B: 77}}})
	y := gridImage(t, [][]Pixel{{{R: 20, G: 100, B: 255}, {R: 255, G: 128, B: 3}}})

	tests := []struct {
		name string
		op   func(*Image) (*Image, error)
		want [][]Pixel
	}{
		{"lightest", x.Lightest, [][]Pixel{{{R: 20, G: 200, B: 255}, {R: 255, G: 128, B: 77}}}},
		{"darkest", x.Darkest, [][]Pixel{{{R: 10, G: 100, B: 255}, {R: 0, G: 128, B: 3}}}},
		{"difference", x.Difference, [][]Pixel{{{R: 10, G: 100, B: 0}, {R: 255, G: 0, B: 74}}}},
		{"multiply", x.Multiply, [][]Pixel{{{R: 1, G: 78, B: 255}, {R: 0, G: 64, B: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(y)
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if diff := cmp.Diff(tt.want, got.Rows()); diff != "" {
				t.Fatalf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestCompositeDimensionMismatch(t *testing.T) {
	a := randomImage(t, 3, 2, 1)
	b := randomImage(t, 2, 3, 2)

	ops := map[string]func(*Image) (*Image, error){
		"lightest":   a.Lightest,
		"darkest":    a.Darkest,
		"difference": a.Difference,
		"multiply":   a.Multiply,
		"blend": func(o *Image) (*Image, error) {
			return a.AlphaBlend(o, 0.5)
		},
	}
	for name, op := range ops {
		if _, err := op(b); !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("%s: expected ErrDimensionMismatch, got %v", name, err)
		}
		if _, err := op(nil); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s with nil: expected ErrInvalidArgument, got %v", name, err)
		}
	}
}

func TestCompositeDoesNotMutateInputs(t *testing.T) {
	a := randomImage(t, 4, 3, 4)
	b := a.Invert()
	wantA, wantB := a.Rows(), b.Rows()

	for _, op := range []func(*Image) (*Image, error){a.Lightest, a.Darkest, a.Difference, a.Multiply} {
		if _, err := op(b); err != nil {
			t.Fatalf("composite: %v", err)
		}
	}
	if diff := cmp.Diff(wantA, a.Rows()); diff != "" {
		t.Fatalf("receiver mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, b.Rows()); diff != "" {
		t.Fatalf("argument mutated (-want +got):\n%s", diff)
	}
}

func BenchmarkGammaCorrect(b *testing.B) {
	img := randomImage(b, 640, 480, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := img.GammaCorrect(2.2); err != nil {
			b.Fatalf("gamma: %v", err)
		}
	}
}

func BenchmarkResize(b *testing.B) {
	img := randomImage(b, 1920, 1080, 1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := img.Resize(640, 360); err != nil {
			b.Fatalf("resize: %v", err)
		}
	}
}
