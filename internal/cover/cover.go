package cover

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
)

// MaxBytes is the largest accepted upload.
const MaxBytes = 10 << 20

// Aspect ratio of the cover band on the page.
const (
	AspectW = 16
	AspectH = 9
)

// MaxPixels bounds width*height of an accepted image, checked before the
// pixels are decoded.
const MaxPixels = 40_000_000

const jpegQuality = 90

var (
	ErrTooLarge      = errors.New("cover: image exceeds 10 MiB")
	ErrUnsupported   = errors.New("cover: unsupported image format")
	ErrTooManyPixels = errors.New("cover: image exceeds 40 megapixels")
)

// Image is a cropped cover ready to embed in the page.
type Image struct {
	Width  int
	Height int
	// DataURL is a base64 JPEG "data:" URL.
	DataURL string
}

// Transform positions the cover inside its band.
type Transform struct {
	Scale    float64 `json:"scale"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Scale bounds, matching the zoom controls of the designer.
const (
	MinScale = 0.5
	MaxScale = 2.0
)

// Normalize clamps Scale into [MinScale, MaxScale] (zero means 1) and
// wraps Rotation into [0, 360).
func (t Transform) Normalize() Transform {
	if t.Scale == 0 {
		t.Scale = 1
	}
	t.Scale = math.Min(MaxScale, math.Max(MinScale, t.Scale))
	t.Rotation = math.Mod(t.Rotation, 360)
	if t.Rotation < 0 {
		t.Rotation += 360
	}
	return t
}

// CSS renders the transform as a CSS transform value.
func (t Transform) CSS() string {
	t = t.Normalize()
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g) rotate(%gdeg)", t.X, t.Y, t.Scale, t.Rotation)
}

// Load reads and prepares a cover image from disk.
func Load(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("cover: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a PNG, JPEG or GIF, crops it to 16:9 around its center and
// re-encodes it as a JPEG data URL.
func Decode(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("cover: read: %w", err)
	}
	if len(data) > MaxBytes {
		return Image{}, ErrTooLarge
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Image{}, ErrUnsupported
		}
		return Image{}, fmt.Errorf("cover: decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, ErrUnsupported
	}
	if cfg.Width > MaxPixels/cfg.Height {
		return Image{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Image{}, ErrUnsupported
		}
		return Image{}, fmt.Errorf("cover: decode: %w", err)
	}

	cropped := CropToAspect(src, AspectW, AspectH)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, fmt.Errorf("cover: encode: %w", err)
	}

	b := cropped.Bounds()
	return Image{
		Width:   b.Dx(),
		Height:  b.Dy(),
		DataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// CropToAspect cuts the largest w:h rectangle out of the middle of src.
// Too-wide images lose columns on both sides, too-tall ones lose rows.
func CropToAspect(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	cropW, cropH := srcW, srcW*h/w
	if cropH > srcH {
		cropW, cropH = srcH*w/h, srcH
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}

	startX := b.Min.X + (srcW-cropW)/2
	startY := b.Min.Y + (srcH-cropH)/2

	dst := image.NewRGBA(image.Rect(0, 0, cropW, cropH))
	draw.Draw(dst, dst.Bounds(), src, image.Pt(startX, startY), draw.Src)
	return dst
}
