package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/htmlpress/htmlpress"
)

// missingSourceMessage is the exact validation message the API contract
// promises for a body with no renderable source.
const missingSourceMessage = "Either html content or url is required"

var errMissingSource = errors.New(missingSourceMessage)

// renderRequest mirrors the POST /render body.
type renderRequest struct {
	HTML            string       `json:"html"`
	URL             string       `json:"url"`
	Markdown        string       `json:"markdown"`
	Filename        string       `json:"filename"`
	Options         *pdfOptions  `json:"options"`
	WaitForSelector string       `json:"waitForSelector"`
	WaitForTimeout  int          `json:"waitForTimeout"`
	Viewport        *viewportDim `json:"viewport"`
}

type viewportDim struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

type pdfOptions struct {
	Format          string      `json:"format"`
	PrintBackground *bool       `json:"printBackground"`
	Landscape       *bool       `json:"landscape"`
	Margin          *pdfMargins `json:"margin"`
}

type pdfMargins struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

// handleRender converts the request into a ContentSpec, renders it, and
// streams back the PDF as an attachment.
func (s *Server) handleRender(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	spec, err := s.buildSpec(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	res := s.manager.Render(c.Request.Context(), spec)
	observeRender(time.Since(start), res.Success)

	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "Failed to generate PDF"
		}
		s.log.Warn("render failed",
			zap.String("error", msg),
			zap.String("request_id", GetRequestID(c)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return
	}

	filename := SanitizeFilename(req.Filename)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(res.Bytes)))
	c.Data(http.StatusOK, "application/pdf", res.Bytes)
}

// buildSpec applies source precedence (html > url > markdown) and maps the
// body onto a ContentSpec. Markdown is converted up front so the pipeline
// only ever sees HTML or a URL.
func (s *Server) buildSpec(req *renderRequest) (*htmlpress.ContentSpec, error) {
	htmlSrc := req.HTML
	if htmlSrc == "" && req.URL == "" {
		if req.Markdown == "" {
			return nil, errMissingSource
		}
		converted, err := s.markdown.ToHTML(req.Markdown)
		if err != nil {
			return nil, err
		}
		htmlSrc = converted
	}

	spec := &htmlpress.ContentSpec{
		HTML:            htmlSrc,
		URL:             req.URL,
		WaitForSelector: req.WaitForSelector,
	}
	if req.WaitForTimeout > 0 {
		spec.WaitForDelay = time.Duration(req.WaitForTimeout) * time.Millisecond
	}
	if req.Viewport != nil {
		spec.Viewport = &htmlpress.Viewport{
			Width:  req.Viewport.Width,
			Height: req.Viewport.Height,
		}
	}
	if req.Options != nil {
		opts := &htmlpress.PDFOptions{
			Format:          req.Options.Format,
			PrintBackground: req.Options.PrintBackground,
			Landscape:       req.Options.Landscape,
		}
		if req.Options.Margin != nil {
			opts.Margin = &htmlpress.Margin{
				Top:    req.Options.Margin.Top,
				Right:  req.Options.Margin.Right,
				Bottom: req.Options.Margin.Bottom,
				Left:   req.Options.Margin.Left,
			}
		}
		spec.PDF = opts
	}
	return spec, nil
}

// handleRenderStatus serves the health snapshot, and restarts the browser
// when called with ?action=restart.
func (s *Server) handleRenderStatus(c *gin.Context) {
	if s.manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
		return
	}

	if c.Query("action") == "restart" {
		s.manager.ForceRestart()
		browserRestarts.Inc()
		st := s.manager.Status()
		c.JSON(http.StatusOK, gin.H{
			"service": ServiceName,
			"status":  "restarted",
			"browser": gin.H{"connected": st.Connected, "isConnected": st.Alive},
			"message": "Browser instance restarted",
		})
		return
	}

	st := s.manager.Status()
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"status":  "healthy",
		"browser": gin.H{"connected": st.Connected, "isConnected": st.Alive},
	})
}

// handleEditor serves the embedded HTML editor page.
func (s *Server) handleEditor(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", editorPage)
}
