package htmlpress

import "errors"

// Sentinel errors for render operations.
var (
	ErrMissingSource   = errors.New("either html content or url is required")
	ErrBrowserLaunch   = errors.New("failed to launch browser")
	ErrPageCreate      = errors.New("failed to create browser page")
	ErrContentLoad     = errors.New("failed to load content")
	ErrSelectorWait    = errors.New("selector did not appear")
	ErrPDFGeneration   = errors.New("PDF generation failed")
	ErrMarkdownConvert = errors.New("markdown conversion failed")

	// Spec validation errors.
	ErrInvalidFormat   = errors.New("invalid page format")
	ErrInvalidMargin   = errors.New("invalid margin length")
	ErrInvalidViewport = errors.New("invalid viewport")
	ErrInvalidDelay    = errors.New("invalid wait delay")
)
