package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"phishguard/internal/analysis"
	"phishguard/internal/features"
)

const (
	msgLegitimate  = "The URL is legitimate."
	msgPhishing    = "The URL is phishing."
	msgURLRequired = "Error: URL is required."
)

// Decider is satisfied by *engine.Engine.
type Decider interface {
	Decision(ctx context.Context, rawURL string) (analysis.Verdict, error)
	Extract(ctx context.Context, rawURL string) (features.Vector, error)
	HasModel() bool
}

type Handler struct {
	Decider Decider
	// Limiter throttles the endpoints that fetch pages. Nil means unlimited.
	Limiter *rate.Limiter
}

type urlRequest struct {
	URL string `json:"url" form:"url" binding:"required"`
}

var indexTemplate = template.Must(template.New("index.html").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Phishing URL Detector</title>
</head>
<body>
<h1>Phishing URL Detector</h1>
<form action="/submit" method="post">
<input type="text" name="url" placeholder="https://example.com" size="60">
<button type="submit">Check</button>
</form>
{{if .Prediction}}<p id="prediction">{{.Prediction}}</p>{{end}}
</body>
</html>
`))

// NewRouter builds the gin engine serving the form and the JSON API.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(indexTemplate)

	r.GET("/", h.HandleIndex)
	r.GET("/healthz", h.HandleHealth)

	scans := r.Group("/", h.throttle())
	scans.POST("/submit", h.HandleSubmit)
	scans.POST("/api/extract", h.HandleExtract)
	scans.POST("/api/scan", h.HandleScan)
	return r
}

func (h *Handler) HandleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{})
}

// HandleSubmit answers the HTML form. Every outcome, errors included, is
// rendered into the page.
func (h *Handler) HandleSubmit(c *gin.Context) {
	rawURL := strings.TrimSpace(c.PostForm("url"))
	if rawURL == "" {
		c.HTML(http.StatusOK, "index.html", gin.H{"Prediction": msgURLRequired})
		return
	}

	v, err := h.Decider.Decision(c.Request.Context(), rawURL)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("submit failed")
		c.HTML(http.StatusOK, "index.html", gin.H{"Prediction": "Error: " + err.Error()})
		return
	}

	result := msgLegitimate
	if v.Phishing {
		result = msgPhishing
	}
	c.HTML(http.StatusOK, "index.html", gin.H{"Prediction": result})
}

func (h *Handler) HandleExtract(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field 'url' is required"})
		return
	}

	vec, err := h.Decider.Extract(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      req.URL,
		"features": vec,
	})
}

func (h *Handler) HandleScan(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field 'url' is required"})
		return
	}

	v, err := h.Decider.Decision(c.Request.Context(), req.URL)
	switch {
	case errors.Is(err, analysis.ErrNoModel):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "verdict": v})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, v)
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": h.Decider.HasModel()})
}

func (h *Handler) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Limiter != nil && !h.Limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many scans, retry later"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
