package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/htmlpress/htmlpress"
)

// fakeManager implements RenderManager for handler tests.
type fakeManager struct {
	result   htmlpress.RenderResult
	status   htmlpress.Status
	lastSpec *htmlpress.ContentSpec
	renders  int
	restarts int
}

func (f *fakeManager) Render(ctx context.Context, spec *htmlpress.ContentSpec) htmlpress.RenderResult {
	f.renders++
	f.lastSpec = spec
	return f.result
}

func (f *fakeManager) Status() htmlpress.Status { return f.status }
func (f *fakeManager) ForceRestart()            { f.restarts++ }

func newTestServer(m RenderManager) *Server {
	return New("127.0.0.1:0", m, zap.NewNop())
}

func postRender(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestRenderSuccess(t *testing.T) {
	pdf := []byte("%PDF-1.7 test content")
	m := &fakeManager{result: htmlpress.RenderResult{Success: true, Bytes: pdf}}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{
		"html":     "<h1>Test PDF</h1><p>hello</p>",
		"filename": "test.pdf",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `test.pdf`)
	assert.Equal(t, strconv.Itoa(len(pdf)), w.Header().Get("Content-Length"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	assert.Equal(t, 1, m.renders)
}

func TestRenderMissingSource(t *testing.T) {
	m := &fakeManager{}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Either html content or url is required"}`, w.Body.String())
	assert.Zero(t, m.renders, "no renderer work for an invalid request")
}

func TestRenderFailure(t *testing.T) {
	m := &fakeManager{result: htmlpress.RenderResult{Error: "PDF generation failed: boom"}}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{"html": "<p>x</p>"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"PDF generation failed: boom"}`, w.Body.String())
}

func TestRenderFailureWithoutMessage(t *testing.T) {
	m := &fakeManager{}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{"html": "<p>x</p>"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to generate PDF"}`, w.Body.String())
}

func TestRenderInvalidJSON(t *testing.T) {
	s := newTestServer(&fakeManager{})

	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderSpecMapping(t *testing.T) {
	m := &fakeManager{result: htmlpress.RenderResult{Success: true, Bytes: []byte("%PDF")}}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{
		"url":             "https://example.com/report",
		"waitForSelector": "#chart",
		"waitForTimeout":  250,
		"viewport":        map[string]any{"width": 1280, "height": 720},
		"options": map[string]any{
			"format":          "letter",
			"printBackground": false,
			"margin":          map[string]any{"top": "1in"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	spec := m.lastSpec
	require.NotNil(t, spec)
	assert.Empty(t, spec.HTML)
	assert.Equal(t, "https://example.com/report", spec.URL)
	assert.Equal(t, "#chart", spec.WaitForSelector)
	assert.Equal(t, int64(250), spec.WaitForDelay.Milliseconds())
	require.NotNil(t, spec.Viewport)
	assert.Equal(t, uint(1280), spec.Viewport.Width)
	require.NotNil(t, spec.PDF)
	assert.Equal(t, "letter", spec.PDF.Format)
	require.NotNil(t, spec.PDF.PrintBackground)
	assert.False(t, *spec.PDF.PrintBackground)
	require.NotNil(t, spec.PDF.Margin)
	assert.Equal(t, "1in", spec.PDF.Margin.Top)
}

func TestRenderMarkdownSource(t *testing.T) {
	m := &fakeManager{result: htmlpress.RenderResult{Success: true, Bytes: []byte("%PDF")}}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{"markdown": "# Converted"})

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, m.lastSpec)
	assert.Contains(t, m.lastSpec.HTML, "<h1")
	assert.Contains(t, m.lastSpec.HTML, "Converted")
}

func TestRenderHTMLWinsOverMarkdown(t *testing.T) {
	m := &fakeManager{result: htmlpress.RenderResult{Success: true, Bytes: []byte("%PDF")}}
	s := newTestServer(m)

	w := postRender(t, s, map[string]any{"html": "<p>direct</p>", "markdown": "# ignored"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>direct</p>", m.lastSpec.HTML)
}

func TestHealthStatus(t *testing.T) {
	m := &fakeManager{status: htmlpress.Status{Connected: true, Alive: true}}
	s := newTestServer(m)

	req := httptest.NewRequest(http.MethodGet, "/render", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Service string `json:"service"`
		Status  string `json:"status"`
		Browser struct {
			Connected   bool `json:"connected"`
			IsConnected bool `json:"isConnected"`
		} `json:"browser"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ServiceName, body.Service)
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.Browser.Connected)
	assert.True(t, body.Browser.IsConnected)
}

func TestRestartAction(t *testing.T) {
	m := &fakeManager{}
	s := newTestServer(m)

	req := httptest.NewRequest(http.MethodGet, "/render?action=restart", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, m.restarts)
	assert.Contains(t, w.Body.String(), `"restarted"`)
}

func TestStatusUnavailableWithoutManager(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/render", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Service unavailable"}`, w.Body.String())
}

func TestEditorServed(t *testing.T) {
	s := newTestServer(&fakeManager{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<title>htmlpress</title>")
}
