package htmlpress

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// browserHandle is one live connection to a renderer process.
type browserHandle interface {
	Alive() bool
	Render(ctx context.Context, spec *ContentSpec) ([]byte, error)
	Close() error
}

// launchFunc starts a renderer process; swapped in tests.
type launchFunc func(cfg launchConfig) (browserHandle, error)

// launchConfig holds launch-time settings for the browser process.
type launchConfig struct {
	bin string // explicit browser binary, empty = rod's own resolution
}

// Compile-time interface check.
var _ browserHandle = (*rodHandle)(nil)

// rodHandle wraps one Chromium process driven through go-rod.
type rodHandle struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	alive     atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// serverFlags applies the fixed argument set for server environments:
// sandboxing off, GPU off, background throttling off.
func serverFlags(l *launcher.Launcher) *launcher.Launcher {
	return l.
		Headless(true).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding")
}

// launchRodBrowser starts a headless Chromium and connects to it. The whole
// launch-and-connect sequence is bounded by launchTimeout; a process that
// does not become ready in time or exits immediately fails with
// ErrBrowserLaunch.
func launchRodBrowser(cfg launchConfig) (browserHandle, error) {
	ctx, cancel := context.WithTimeout(context.Background(), launchTimeout)
	defer cancel()

	l := serverFlags(launcher.New()).Context(ctx)

	// Use a pre-installed browser if specified (Docker/containerized
	// environments); rod downloads Chromium otherwise.
	if cfg.bin != "" {
		l = l.Bin(cfg.bin)
	} else if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	h := &rodHandle{browser: browser, launcher: l}
	h.alive.Store(true)

	// The event stream closes the moment the process disconnects (crash,
	// OOM, external kill). The watcher flips the flag so Alive stays a
	// non-blocking read and staleness is detected without polling.
	events := browser.Event()
	go func() {
		for range events {
		}
		h.alive.Store(false)
	}()

	return h, nil
}

// Alive reports whether the underlying connection is still up.
func (h *rodHandle) Alive() bool {
	return h.alive.Load()
}

// page opens a blank page on the handle.
func (h *rodHandle) page() (*rod.Page, error) {
	p, err := h.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return p, nil
}

// Close terminates the browser process. Idempotent; repeated calls return the
// first result. Once closed the handle must never be reused.
func (h *rodHandle) Close() error {
	h.closeOnce.Do(func() {
		h.alive.Store(false)
		h.closeErr = h.browser.Close()
		h.launcher.Kill()
		h.launcher.Cleanup()
	})
	return h.closeErr
}
