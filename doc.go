// Package htmlpress renders HTML content or URLs to PDF through a managed
// headless Chromium browser.
//
// The entry point is Manager, which owns the browser lifecycle: it decides
// when to launch, reuse, or discard the underlying process, retries renders
// that fail because the browser connection was lost, and guarantees teardown
// on shutdown. Rendering itself is a fixed pipeline on one browser page:
// apply the viewport, load the content, wait for readiness conditions, and
// rasterize with Chromium's printToPDF.
package htmlpress
