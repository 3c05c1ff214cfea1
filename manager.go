package htmlpress

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// maxRenderAttempts bounds the shared-strategy retry loop: one initial
// attempt plus two retries.
const maxRenderAttempts = 3

// connectionErrorVocabulary lists message fragments that mark a failure as
// connection-class: the transport to the browser process was lost, as
// opposed to a content or timeout failure.
var connectionErrorVocabulary = []string{
	"connection closed",
	"protocol error",
	"session closed",
}

// Manager owns zero or one browser handle and turns ContentSpecs into PDF
// bytes. All failures surface as RenderResult values; Render never panics
// and never propagates internal faults to the HTTP layer.
type Manager struct {
	strategy Strategy
	launch   launchFunc
	cfg      launchConfig
	log      *zap.Logger

	mu     sync.Mutex
	handle browserHandle
}

// NewManager creates a Manager with the shared-handle strategy and a nop
// logger. Use options to customize (e.g. WithStrategy, WithLogger).
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		strategy: StrategyShared,
		launch:   launchRodBrowser,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Render turns one spec into PDF bytes. Validation failures short-circuit
// before any browser work begins.
func (m *Manager) Render(ctx context.Context, spec *ContentSpec) RenderResult {
	if err := spec.Validate(); err != nil {
		return renderFailure(err)
	}

	if m.strategy == StrategyFresh {
		return m.renderFresh(ctx, spec)
	}
	return m.renderShared(ctx, spec)
}

// renderFresh launches a browser for this call alone and closes it no matter
// how the render ends. There is no shared state to go stale, hence no retry;
// a launch failure is one terminal error.
func (m *Manager) renderFresh(ctx context.Context, spec *ContentSpec) RenderResult {
	h, err := m.launch(m.cfg)
	if err != nil {
		return renderFailure(err)
	}
	defer m.closeHandle(h)

	b, err := h.Render(ctx, spec)
	if err != nil {
		return renderFailure(err)
	}
	return renderSuccess(b)
}

// renderShared renders against the long-lived handle. Connection-class
// failures discard the handle and retry the same spec against a freshly
// launched one, up to maxRenderAttempts total; every other failure is
// terminal on first occurrence.
func (m *Manager) renderShared(ctx context.Context, spec *ContentSpec) RenderResult {
	var lastErr error
	for attempt := 1; attempt <= maxRenderAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return renderFailure(err)
		}

		h, err := m.acquire()
		if err != nil {
			// Launch failures are transient here: the next attempt starts
			// from a clean process.
			lastErr = err
			continue
		}

		b, err := h.Render(ctx, spec)
		if err == nil {
			return renderSuccess(b)
		}
		if !isConnectionError(err) {
			return renderFailure(err)
		}

		m.log.Warn("browser connection lost, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		lastErr = err
		m.discard(h)
	}
	return renderFailure(lastErr)
}

// acquire returns the current handle, launching a new one when none is held
// or the held one lost its connection. A dead handle is never reused.
func (m *Manager) acquire() (browserHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil && m.handle.Alive() {
		return m.handle, nil
	}

	if m.handle != nil {
		m.closeHandle(m.handle)
		m.handle = nil
	}

	h, err := m.launch(m.cfg)
	if err != nil {
		return nil, err
	}
	m.handle = h
	m.log.Info("browser launched")
	return h, nil
}

// discard drops h if it is still the held handle, closing it best-effort.
// Concurrent renders that hit the same dead handle race here; whichever
// arrives first clears the slot, Close stays idempotent for the rest.
func (m *Manager) discard(h browserHandle) {
	m.mu.Lock()
	if m.handle == h {
		m.handle = nil
	}
	m.mu.Unlock()
	m.closeHandle(h)
}

// closeHandle shuts h down, logging (never returning) secondary errors
// encountered while closing an already-broken connection.
func (m *Manager) closeHandle(h browserHandle) {
	if err := h.Close(); err != nil {
		m.log.Warn("browser close", zap.Error(err))
	}
}

// Status reports a best-effort snapshot, safe to call concurrently with
// Render.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Connected: m.handle != nil,
		Alive:     m.handle != nil && m.handle.Alive(),
	}
}

// ForceRestart discards any held handle; the next Render launches a fresh
// one. No-op under the fresh strategy, which holds nothing between calls.
func (m *Manager) ForceRestart() {
	if h := m.takeHandle(); h != nil {
		m.closeHandle(h)
		m.log.Info("browser restarted")
	}
}

// Cleanup tears down the held handle so no browser process outlives the
// service. Idempotent; called on shutdown signals and awaited before the
// process exits.
func (m *Manager) Cleanup() {
	if h := m.takeHandle(); h != nil {
		m.closeHandle(h)
		m.log.Info("browser cleaned up")
	}
}

// takeHandle removes and returns the held handle, or nil.
func (m *Manager) takeHandle() browserHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.handle
	m.handle = nil
	return h
}

// isConnectionError reports whether err's text matches the known
// connection-failure vocabulary.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range connectionErrorVocabulary {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
