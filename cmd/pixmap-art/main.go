package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dunamismax/pixmap/internal/ppm"
)

func main() {
	input := flag.String("in", "images/earth-ascii.ppm", "source P3 pixmap")
	outDir := flag.String("out", ".", "directory for generated pixmaps")
	prefix := flag.String("prefix", "earth", "file name prefix for generated pixmaps")
	flag.Parse()

	logger := log.New(os.Stdout, "[pixmap-art] ", log.LstdFlags|log.Lmsgprefix)
	if err := run(logger, *input, *outDir, *prefix); err != nil {
		logger.Fatalf("failed: %v", err)
	}
}

type derived struct {
	name  string
	build func(src, inverted *ppm.Image) (*ppm.Image, error)
}

var effects = []derived{
	{"invert", func(_, inv *ppm.Image) (*ppm.Image, error) { return inv, nil }},
	{"lightest", func(src, inv *ppm.Image) (*ppm.Image, error) { return src.Lightest(inv) }},
	{"darkest", func(src, inv *ppm.Image) (*ppm.Image, error) { return src.Darkest(inv) }},
	{"diff", func(src, inv *ppm.Image) (*ppm.Image, error) { return src.Difference(inv) }},
	{"multiply", func(src, inv *ppm.Image) (*ppm.Image, error) { return src.Multiply(inv) }},
	{"swirl", func(src, _ *ppm.Image) (*ppm.Image, error) { return src.Swirl(), nil }},
	{"grayscale", func(src, _ *ppm.Image) (*ppm.Image, error) { return src.Grayscale(), nil }},
	{"flip", func(src, _ *ppm.Image) (*ppm.Image, error) { return src.FlipHorizontal(), nil }},
	{"gamma", func(src, _ *ppm.Image) (*ppm.Image, error) { return src.GammaCorrect(0.6) }},
	{"blend", func(src, inv *ppm.Image) (*ppm.Image, error) { return src.AlphaBlend(inv, 0.25) }},
}

// run loads the source, writes an unmodified copy, then one pixmap per effect.
func run(logger *log.Logger, input, outDir, prefix string) error {
	var img ppm.Image
	if err := img.Load(input); err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	logger.Printf("loaded %s width=%d height=%d", input, img.Width(), img.Height())

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := save(logger, &img, outDir, prefix, "test-save"); err != nil {
		return err
	}

	inverted := img.Invert()
	for _, effect := range effects {
		out, err := effect.build(&img, inverted)
		if err != nil {
			return fmt.Errorf("%s: %w", effect.name, err)
		}
		if err := save(logger, out, outDir, prefix, effect.name); err != nil {
			return err
		}
	}
	return nil
}

func save(logger *log.Logger, img *ppm.Image, dir, prefix, name string) error {
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.ppm", prefix, name))
	if err := img.Save(path); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	logger.Printf("wrote %s", path)
	return nil
}
