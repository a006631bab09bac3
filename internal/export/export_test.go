package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"pdf", FormatPDF},
		{"PNG", FormatPNG},
		{"jpg", FormatJPG},
		{" jpeg ", FormatJPG},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestQualityTiers(t *testing.T) {
	assert.Equal(t, 2.5, QualityHigh.Scale())
	assert.Equal(t, 2.0, QualityMedium.Scale())
	assert.Equal(t, 1.5, QualityLow.Scale())
	assert.Equal(t, 250, QualityHigh.DPI())
	assert.Equal(t, 200, QualityMedium.DPI())
	assert.Equal(t, 150, QualityLow.DPI())

	_, err := ParseQuality("ultra")
	assert.ErrorIs(t, err, ErrUnknownQuality)
	q, err := ParseQuality("Medium")
	require.NoError(t, err)
	assert.Equal(t, QualityMedium, q)
}

func TestPaper(t *testing.T) {
	w, h := Paper(PageA3, Portrait)
	assert.Equal(t, []float64{297, 420}, []float64{w, h})
	w, h = Paper(PageA4, Landscape)
	assert.Equal(t, []float64{297, 210}, []float64{w, h})

	_, err := ParsePageSize("letter")
	assert.ErrorIs(t, err, ErrUnknownPageSize)
	_, err = ParseOrientation("sideways")
	assert.ErrorIs(t, err, ErrUnknownOrientation)
}

func TestFit(t *testing.T) {
	t.Run("same aspect fills page", func(t *testing.T) {
		p := Fit(210, 297, 297, 420)
		assert.InDelta(t, 297, p.Width, 0.5)
		assert.InDelta(t, 420, p.Height, 0.5)
		assert.InDelta(t, 0, p.OffsetX, 0.5)
		assert.InDelta(t, 0, p.OffsetY, 0.5)
	})

	t.Run("tall content on landscape page centers horizontally", func(t *testing.T) {
		p := Fit(210, 297, 420, 297)
		assert.InDelta(t, 1.0, p.Scale, 1e-9)
		assert.InDelta(t, 105, p.OffsetX, 1e-9)
		assert.Zero(t, p.OffsetY)
	})

	t.Run("wide content centers vertically", func(t *testing.T) {
		p := Fit(400, 100, 200, 200)
		assert.InDelta(t, 0.5, p.Scale, 1e-9)
		assert.InDelta(t, 50, p.Height, 1e-9)
		assert.InDelta(t, 75, p.OffsetY, 1e-9)
		assert.Zero(t, p.OffsetX)
	})

	t.Run("degenerate", func(t *testing.T) {
		assert.Equal(t, Placement{Scale: 1}, Fit(0, 10, 10, 10))
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "calendar-february-2024.pdf", FileName(2024, 1, FormatPDF))
	assert.Equal(t, "calendar-december-1999.jpg", FileName(1999, 11, FormatJPG))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "image/png", FormatPNG.ContentType())
	assert.Equal(t, "image/jpeg", FormatJPG.ContentType())
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := WriteFile(dir, "calendar-february-2024.png", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "calendar-february-2024.png"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.normalize()
	assert.Equal(t, Options{
		Format:        FormatPDF,
		Quality:       QualityHigh,
		PageSize:      PageA3,
		Orientation:   Portrait,
		SheetWidthMM:  210,
		SheetHeightMM: 297,
	}, o)
}
