package htmlpress

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Strategy selects how the Manager treats the browser handle across renders.
type Strategy string

const (
	// StrategyShared keeps one long-lived browser across renders, relaunching
	// it when the connection is lost.
	StrategyShared Strategy = "shared"

	// StrategyFresh launches a browser per render and closes it
	// unconditionally afterward.
	StrategyFresh Strategy = "fresh"
)

// valid reports whether s is a known strategy.
func (s Strategy) valid() bool {
	return s == StrategyShared || s == StrategyFresh
}

// Page format constants.
const (
	FormatA3      = "a3"
	FormatA4      = "a4"
	FormatA5      = "a5"
	FormatLetter  = "letter"
	FormatLegal   = "legal"
	FormatTabloid = "tabloid"
)

// Defaults applied when the caller leaves a PDF option unset.
const (
	DefaultFormat = FormatA4
	DefaultMargin = "20px"
)

// Viewport sets the page dimensions in CSS pixels before content loads.
type Viewport struct {
	Width  uint
	Height uint
}

// Margin holds per-side page margins as CSS-style lengths
// ("20px", "0.5in", "10mm", "1cm").
type Margin struct {
	Top    string
	Right  string
	Bottom string
	Left   string
}

// PDFOptions configure rasterization. Pointer fields distinguish "unset"
// from an explicit value so merging over defaults stays per-key.
type PDFOptions struct {
	Format          string
	PrintBackground *bool
	Landscape       *bool
	Margin          *Margin
}

// pdfSettings are fully resolved options after merging caller-supplied
// PDFOptions over the defaults.
type pdfSettings struct {
	Format          string
	PrintBackground bool
	Landscape       bool
	Margin          Margin
}

// defaultPDFSettings returns the effective options for a nil PDFOptions.
func defaultPDFSettings() pdfSettings {
	return pdfSettings{
		Format:          DefaultFormat,
		PrintBackground: true,
		Margin: Margin{
			Top:    DefaultMargin,
			Right:  DefaultMargin,
			Bottom: DefaultMargin,
			Left:   DefaultMargin,
		},
	}
}

// withDefaults shallow-merges o over the defaults: the caller wins per
// top-level key, untouched keys keep their default. A caller-supplied margin
// replaces the default margin as a whole, except that an empty side falls
// back to the default length.
func (o *PDFOptions) withDefaults() pdfSettings {
	eff := defaultPDFSettings()
	if o == nil {
		return eff
	}
	if o.Format != "" {
		eff.Format = o.Format
	}
	if o.PrintBackground != nil {
		eff.PrintBackground = *o.PrintBackground
	}
	if o.Landscape != nil {
		eff.Landscape = *o.Landscape
	}
	if o.Margin != nil {
		eff.Margin = *o.Margin
		if eff.Margin.Top == "" {
			eff.Margin.Top = DefaultMargin
		}
		if eff.Margin.Right == "" {
			eff.Margin.Right = DefaultMargin
		}
		if eff.Margin.Bottom == "" {
			eff.Margin.Bottom = DefaultMargin
		}
		if eff.Margin.Left == "" {
			eff.Margin.Left = DefaultMargin
		}
	}
	return eff
}

// isValidFormat checks if format is a known page format (case-insensitive).
func isValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatA3, FormatA4, FormatA5, FormatLetter, FormatLegal, FormatTabloid:
		return true
	}
	return false
}

// ContentSpec describes one render operation. Exactly one of HTML or URL must
// be set; HTML wins when both are present. A spec is immutable once
// constructed, and retried attempts reuse it as-is.
type ContentSpec struct {
	HTML            string
	URL             string
	Viewport        *Viewport
	WaitForSelector string
	WaitForDelay    time.Duration
	PDF             *PDFOptions
}

// Validate checks that the spec names a source and that every option is
// renderable before any browser work begins.
func (s *ContentSpec) Validate() error {
	if s.HTML == "" && s.URL == "" {
		return ErrMissingSource
	}
	if s.WaitForDelay < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDelay, s.WaitForDelay)
	}
	if s.Viewport != nil && (s.Viewport.Width == 0 || s.Viewport.Height == 0) {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, s.Viewport.Width, s.Viewport.Height)
	}
	if s.PDF != nil && s.PDF.Format != "" && !isValidFormat(s.PDF.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, s.PDF.Format)
	}
	return nil
}

// RenderResult is the terminal outcome of one render call. Error is a
// human-readable message and never carries internal stack traces.
type RenderResult struct {
	Success bool
	Bytes   []byte
	Error   string
}

// renderSuccess wraps PDF bytes in a successful result.
func renderSuccess(b []byte) RenderResult {
	return RenderResult{Success: true, Bytes: b}
}

// renderFailure converts err into a failed result.
func renderFailure(err error) RenderResult {
	return RenderResult{Error: err.Error()}
}

// Status is a best-effort snapshot of the managed browser, safe to read
// concurrently with Render.
type Status struct {
	Connected bool // a handle is currently held
	Alive     bool // the held handle's connection is up
}

// Option configures a Manager.
type Option func(*Manager)

// WithStrategy selects the handle lifecycle strategy.
// Panics on an unknown strategy (programmer error, same contract as
// time.NewTicker).
func WithStrategy(s Strategy) Option {
	if !s.valid() {
		panic("htmlpress: unknown strategy " + string(s))
	}
	return func(m *Manager) {
		m.strategy = s
	}
}

// WithLogger sets the logger used for lifecycle events and swallowed
// close-time errors. The default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithBrowserBin points the launcher at a pre-installed browser binary
// (Docker/containerized environments).
func WithBrowserBin(path string) Option {
	return func(m *Manager) {
		m.cfg.bin = path
	}
}

// withLaunch replaces the launch function (tests).
func withLaunch(fn launchFunc) Option {
	return func(m *Manager) {
		m.launch = fn
	}
}
