package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	appLog "caldesign/internal/log"
)

const (
	DefaultTimeoutSec = 60

	jpegQuality = 92
	mmPerInch   = 25.4
	cssPxPerMM  = 96 / mmPerInch
)

// Chromium renders calendar HTML with a headless Chromium driven by chromedp.
type Chromium struct {
	// ExecPath overrides the browser binary; empty lets chromedp find one.
	ExecPath string
	Timeout  time.Duration
}

// Export loads html into a blank page, waits for the document to signal
// data-ready="true" and returns the encoded file.
func (c *Chromium) Export(parentCtx context.Context, html []byte, opts Options) ([]byte, error) {
	opts.normalize()
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeoutSec * time.Second
	}

	ctx := parentCtx
	if c.ExecPath != "" {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(c.ExecPath))
		var allocCancel context.CancelFunc
		ctx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
		defer allocCancel()
	}
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	width := int64(math.Ceil(opts.SheetWidthMM * cssPxPerMM))
	height := int64(math.Ceil(opts.SheetHeightMM * cssPxPerMM))

	var out []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(opts.Quality.Scale())),
		chromedp.Navigate("about:blank"),
		setContent(string(html)),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
	}
	switch opts.Format {
	case FormatPDF:
		tasks = append(tasks, printPDF(opts, &out))
	case FormatPNG:
		tasks = append(tasks, chromedp.FullScreenshot(&out, 100))
	case FormatJPG:
		tasks = append(tasks, chromedp.FullScreenshot(&out, jpegQuality))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("export: chromedp run failed: %w", err)
	}
	appLog.Debug("export rendered",
		"format", opts.Format,
		"quality", opts.Quality,
		"bytes", len(out),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return out, nil
}

func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
	})
}

func printPDF(opts Options, out *[]byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		pw, ph := Paper(opts.PageSize, opts.Orientation)
		fit := Fit(opts.SheetWidthMM, opts.SheetHeightMM, pw, ph)
		scale := math.Min(math.Max(fit.Scale, 0.1), 2)

		inch := func(mm float64) float64 { return mm / mmPerInch }
		data, _, err := page.PrintToPDF().
			WithPaperWidth(inch(pw)).
			WithPaperHeight(inch(ph)).
			WithPrintBackground(true).
			WithScale(scale).
			WithMarginTop(inch(fit.OffsetY)).
			WithMarginBottom(0).
			WithMarginLeft(inch(fit.OffsetX)).
			WithMarginRight(0).
			WithPageRanges("1").
			Do(ctx)
		if err != nil {
			return err
		}
		*out = data
		return nil
	})
}

// WriteFile writes data to dir/name through a temp file so readers never
// observe a partial export.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".caldesign-export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("export: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("export: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("export: chmod temp file: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("export: rename into place: %w", err)
	}
	return path, nil
}
