// Package media stores announcement images on disk under date-based paths.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height of a stored image.
const MaxDimension = 1024

// MaxUploadBytes caps the size of an accepted upload.
const MaxUploadBytes = 5 << 20

// MaxPixels caps the decoded size of an upload. It is checked against the
// image header before decoding.
const MaxPixels = 40_000_000

const jpegQuality = 85

// ErrInvalidImage is returned for uploads that are too large or are not
// decodable JPEG or PNG images.
var ErrInvalidImage = errors.New("invalid image")

type codec struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var codecs = map[string]codec{
	"image/jpeg": {jpeg.Decode, jpeg.DecodeConfig},
	"image/png":  {png.Decode, png.DecodeConfig},
}

// Store keeps images below a root directory. References handed out are
// slash-separated paths relative to the root, e.g. "2026/10/15/<uuid>.jpg".
type Store struct {
	root string
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory images are stored in.
func (s *Store) Root() string {
	return s.root
}

// Save validates the upload by sniffing its bytes, downscales it to
// MaxDimension, re-encodes it as JPEG and writes it under the upload date.
func (s *Store) Save(r io.Reader, now time.Time) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxUploadBytes)
	}

	encoded, err := normalize(data)
	if err != nil {
		return "", err
	}

	ref := path.Join(now.Format("2006/01/02"), uuid.NewString()+".jpg")
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}
	if err := os.WriteFile(full, encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return ref, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (s *Store) Remove(ref string) error {
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

// Handler serves stored images. Mount it with http.StripPrefix.
func (s *Store) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		fs.ServeHTTP(w, r)
	})
}

func (s *Store) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if ref == "" || clean == "/" || clean[1:] != ref {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

// normalize decodes a JPEG or PNG image, downscales it and encodes it as JPEG.
func normalize(data []byte) ([]byte, error) {
	detected := http.DetectContentType(data)
	c, ok := codecs[detected]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrInvalidImage, detected)
	}

	cfg, err := c.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fit(img, MaxDimension), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales img down so that neither side exceeds limit, keeping the aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	scale := float64(limit) / float64(w)
	if h > w {
		scale = float64(limit) / float64(h)
	}
	nw := min(max(1, int(float64(w)*scale)), limit)
	nh := min(max(1, int(float64(h)*scale)), limit)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
