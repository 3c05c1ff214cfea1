package htmlpress

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Per-step deadlines. Each step gets its own, not one end-to-end deadline;
// a render's total wall-clock time is the sum of whichever steps it
// exercises.
const (
	launchTimeout   = 30 * time.Second
	htmlLoadTimeout = 15 * time.Second
	urlLoadTimeout  = 30 * time.Second
	selectorTimeout = 10 * time.Second
)

// paperSize is a page format in inches.
type paperSize struct {
	width  float64
	height float64
}

var paperSizes = map[string]paperSize{
	FormatA3:      {11.69, 16.54},
	FormatA4:      {8.27, 11.69},
	FormatA5:      {5.83, 8.27},
	FormatLetter:  {8.5, 11},
	FormatLegal:   {8.5, 14},
	FormatTabloid: {11, 17},
}

// Render runs the full page pipeline for one spec on this handle: open page,
// apply viewport, load content, wait for readiness conditions, rasterize.
// The page is closed on every path, including failed attempts. The context is
// only consulted before work begins; an in-flight render runs to its own
// per-step deadlines regardless of the caller.
func (h *rodHandle) Render(ctx context.Context, spec *ContentSpec) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdfOpts, err := buildPDFOptions(spec.PDF)
	if err != nil {
		return nil, err
	}

	page, err := h.page()
	if err != nil {
		return nil, err
	}
	// Best-effort: closing a page over a broken connection fails too, and
	// there is nothing the caller can do about it.
	defer func() { _ = page.Close() }()

	if spec.Viewport != nil {
		vp := &proto.EmulationSetDeviceMetricsOverride{
			Width:             int(spec.Viewport.Width),
			Height:            int(spec.Viewport.Height),
			DeviceScaleFactor: 1,
		}
		if err := page.SetViewport(vp); err != nil {
			return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
		}
	}

	if err := loadContent(page, spec); err != nil {
		return nil, err
	}

	if spec.WaitForSelector != "" {
		if _, err := page.Timeout(selectorTimeout).Element(spec.WaitForSelector); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrSelectorWait, spec.WaitForSelector, err)
		}
	}

	if spec.WaitForDelay > 0 {
		time.Sleep(spec.WaitForDelay)
	}

	reader, err := page.PDF(pdfOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// loadContent injects HTML directly (no network fetch) or navigates to the
// URL, then waits for the load event. The load signal is deliberately lighter
// than network-idle: waiting for all network activity hangs on pages with
// long-polling or analytics beacons, at the cost of occasionally missing
// late-loading assets in the output.
func loadContent(page *rod.Page, spec *ContentSpec) error {
	if spec.HTML != "" {
		if err := page.SetDocumentContent(spec.HTML); err != nil {
			return fmt.Errorf("%w: %v", ErrContentLoad, err)
		}
		if err := page.Timeout(htmlLoadTimeout).WaitLoad(); err != nil {
			return fmt.Errorf("%w: %v", ErrContentLoad, err)
		}
		return nil
	}

	if err := page.Timeout(urlLoadTimeout).Navigate(spec.URL); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrContentLoad, spec.URL, err)
	}
	if err := page.Timeout(urlLoadTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrContentLoad, spec.URL, err)
	}
	return nil
}

// buildPDFOptions converts merged options into printToPDF parameters.
func buildPDFOptions(opts *PDFOptions) (*proto.PagePrintToPDF, error) {
	eff := opts.withDefaults()

	size, ok := paperSizes[strings.ToLower(eff.Format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, eff.Format)
	}

	top, err := parseLength(eff.Margin.Top)
	if err != nil {
		return nil, err
	}
	right, err := parseLength(eff.Margin.Right)
	if err != nil {
		return nil, err
	}
	bottom, err := parseLength(eff.Margin.Bottom)
	if err != nil {
		return nil, err
	}
	left, err := parseLength(eff.Margin.Left)
	if err != nil {
		return nil, err
	}

	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(size.width),
		PaperHeight:     floatPtr(size.height),
		MarginTop:       floatPtr(top),
		MarginRight:     floatPtr(right),
		MarginBottom:    floatPtr(bottom),
		MarginLeft:      floatPtr(left),
		PrintBackground: eff.PrintBackground,
		Landscape:       eff.Landscape,
	}, nil
}

// parseLength converts a CSS-style length to inches. Supported units: px
// (96 per inch), in, mm, cm. A bare number is treated as pixels.
func parseLength(s string) (float64, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	factor := 1.0 / 96

	switch {
	case strings.HasSuffix(raw, "px"):
		raw = strings.TrimSuffix(raw, "px")
	case strings.HasSuffix(raw, "in"):
		raw = strings.TrimSuffix(raw, "in")
		factor = 1
	case strings.HasSuffix(raw, "mm"):
		raw = strings.TrimSuffix(raw, "mm")
		factor = 1 / 25.4
	case strings.HasSuffix(raw, "cm"):
		raw = strings.TrimSuffix(raw, "cm")
		factor = 1 / 2.54
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMargin, s)
	}
	return v * factor, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
