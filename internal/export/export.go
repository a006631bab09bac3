package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownFormat      = errors.New("export: unknown format")
	ErrUnknownQuality     = errors.New("export: unknown quality")
	ErrUnknownPageSize    = errors.New("export: unknown page size")
	ErrUnknownOrientation = errors.New("export: unknown orientation")
)

// Format is the output file type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// ParseFormat accepts pdf, png, jpg and jpeg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) Ext() string { return string(f) }

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Quality selects the rasterization scale.
type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityHigh, QualityMedium, QualityLow:
		return q, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// Scale is the device pixel ratio used for capture.
func (q Quality) Scale() float64 {
	switch q {
	case QualityMedium:
		return 2
	case QualityLow:
		return 1.5
	default:
		return 2.5
	}
}

// DPI is the nominal print resolution of the tier.
func (q Quality) DPI() int {
	return int(q.Scale() * 100)
}

// PageSize is an ISO paper size.
type PageSize string

const (
	PageA3 PageSize = "a3"
	PageA4 PageSize = "a4"
)

func ParsePageSize(s string) (PageSize, error) {
	switch p := PageSize(strings.ToLower(strings.TrimSpace(s))); p {
	case PageA3, PageA4:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPageSize, s)
}

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(strings.TrimSpace(s))); o {
	case Portrait, Landscape:
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// Paper returns the paper dimensions in millimetres.
func Paper(size PageSize, o Orientation) (w, h float64) {
	w, h = 297, 420
	if size == PageA4 {
		w, h = 210, 297
	}
	if o == Landscape {
		w, h = h, w
	}
	return w, h
}

// Placement positions content on a page, in page units.
type Placement struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Width   float64
	Height  float64
}

// Fit scales content to fill the page without changing its aspect ratio
// and centers it along the axis with slack.
func Fit(contentW, contentH, pageW, pageH float64) Placement {
	if contentW <= 0 || contentH <= 0 || pageW <= 0 || pageH <= 0 {
		return Placement{Scale: 1}
	}
	var p Placement
	if contentW/contentH > pageW/pageH {
		p.Width = pageW
		p.Height = pageW * contentH / contentW
		p.OffsetY = (pageH - p.Height) / 2
	} else {
		p.Height = pageH
		p.Width = pageH * contentW / contentH
		p.OffsetX = (pageW - p.Width) / 2
	}
	p.Scale = p.Width / contentW
	return p
}

// FileName names an export after its month, e.g. calendar-february-2024.pdf.
// month is 0-based.
func FileName(year, month int, f Format) string {
	name := strings.ToLower(time.Month(month + 1).String())
	return fmt.Sprintf("calendar-%s-%d.%s", name, year, f.Ext())
}

// Options controls one export.
type Options struct {
	Format      Format
	Quality     Quality
	PageSize    PageSize
	Orientation Orientation

	// Sheet size of the rendered document in millimetres.
	SheetWidthMM  float64
	SheetHeightMM float64
}

func (o *Options) normalize() {
	if o.Format == "" {
		o.Format = FormatPDF
	}
	if o.Quality == "" {
		o.Quality = QualityHigh
	}
	if o.PageSize == "" {
		o.PageSize = PageA3
	}
	if o.Orientation == "" {
		o.Orientation = Portrait
	}
	if o.SheetWidthMM <= 0 || o.SheetHeightMM <= 0 {
		o.SheetWidthMM, o.SheetHeightMM = 210, 297
	}
}
