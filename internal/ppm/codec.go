package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
)

const (
	formatTag  = "P3"
	maxChannel = 255

	// Triples per output line; readers accept any layout.
	pixelsPerLine = 5
)

func init() {
	image.RegisterFormat("ppm", formatTag, decodeImage, decodeConfig)
}

// Read loads the pixmap at path into a new image.
func Read(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return img, nil
}

// Load replaces img with the pixmap stored at path. On failure img keeps
// its previous contents.
func (img *Image) Load(path string) error {
	loaded, err := Read(path)
	if err != nil {
		return err
	}
	*img = *loaded
	return nil
}

// Save writes img to path, creating or truncating the file.
func (img *Image) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, path, err)
	}
	return nil
}

// Encode writes img as a P3 pixmap with a maximum channel value of 255.
func Encode(w io.Writer, img *Image) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n%d %d\n%d\n", formatTag, img.width, img.height, maxChannel)

	for row := 0; row < img.height; row++ {
		for col, p := range img.row(row) {
			if col > 0 {
				if col%pixelsPerLine == 0 {
					bw.WriteByte('\n')
				} else {
					bw.WriteString("  ")
				}
			}
			fmt.Fprintf(bw, "%d %d %d", p.R, p.G, p.B)
		}
		if img.width > 0 {
			bw.WriteByte('\n')
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: write pixmap: %v", ErrIO, err)
	}
	return nil
}

type header struct {
	width  int
	height int
	maxval int
}

// Decode parses a plain text pixmap. Tokens may be separated by any
// whitespace and a '#' comments out the rest of its line.
func Decode(r io.Reader) (*Image, error) {
	s := newScanner(r)
	h, err := readHeader(s)
	if err != nil {
		return nil, err
	}

	img := newImage(h.width, h.height)
	for i := range img.pix {
		var ch [3]uint8
		for c := range ch {
			v, err := s.integer()
			if err != nil {
				return nil, fmt.Errorf("%w: pixel %d: %v", ErrFormat, i, err)
			}
			if v < 0 || v > h.maxval {
				return nil, fmt.Errorf("%w: pixel %d: channel value %d outside [0,%d]", ErrFormat, i, v, h.maxval)
			}
			ch[c] = scaleChannel(v, h.maxval)
		}
		img.pix[i] = Pixel{R: ch[0], G: ch[1], B: ch[2]}
	}
	return img, nil
}

func readHeader(s *scanner) (header, error) {
	var h header
	// The tag is not validated; any leading token is accepted.
	if _, err := s.token(); err != nil {
		return h, fmt.Errorf("%w: missing format tag: %v", ErrFormat, err)
	}

	fields := []struct {
		name string
		dst  *int
	}{
		{"width", &h.width},
		{"height", &h.height},
		{"max value", &h.maxval},
	}
	for _, f := range fields {
		v, err := s.integer()
		if err != nil {
			return h, fmt.Errorf("%w: %s: %v", ErrFormat, f.name, err)
		}
		*f.dst = v
	}

	if h.width < 0 || h.height < 0 {
		return h, fmt.Errorf("%w: %w: %dx%d", ErrFormat, ErrInvalidDimension, h.width, h.height)
	}
	if err := checkSize(h.width, h.height); err != nil {
		return h, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if h.maxval < 1 || h.maxval > maxChannel {
		return h, fmt.Errorf("%w: max value %d outside [1,%d]", ErrFormat, h.maxval, maxChannel)
	}
	return h, nil
}

func scaleChannel(v, maxval int) uint8 {
	if maxval == maxChannel {
		return uint8(v)
	}
	return uint8((v*maxChannel + maxval/2) / maxval)
}

func decodeImage(r io.Reader) (image.Image, error) {
	return Decode(r)
}

func decodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(newScanner(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: Model,
		Width:      h.width,
		Height:     h.height,
	}, nil
}

type scanner struct {
	r *bufio.Reader
}

func newScanner(r io.Reader) *scanner {
	return &scanner{r: bufio.NewReader(r)}
}

func (s *scanner) token() (string, error) {
	var buf []byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return string(buf), nil
			}
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}

		switch {
		case b == '#':
			if _, err := s.r.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
				return "", err
			}
			if len(buf) > 0 {
				return string(buf), nil
			}
		case isSpace(b):
			if len(buf) > 0 {
				return string(buf), nil
			}
		default:
			buf = append(buf, b)
		}
	}
}

func (s *scanner) integer() (int, error) {
	tok, err := s.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", tok)
	}
	return v, nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
