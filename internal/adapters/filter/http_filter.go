package filter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/trie-spam-filter/internal/config"
	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100

	// DefaultMaxBodySize caps request bodies when none is configured
	DefaultMaxBodySize = 1 << 20
)

// AnalyzeRequest is the body of POST /api/v1/analyze. When From or Subject
// is set the text is treated as an email body.
type AnalyzeRequest struct {
	Text    *string `json:"text" binding:"required"`
	From    string  `json:"from"`
	Subject string  `json:"subject"`
}

// WordRequest is the body of PUT /api/v1/words
type WordRequest struct {
	Word  string   `json:"word" binding:"required"`
	Score *float64 `json:"score"`
}

// WordResponse reports a dictionary lookup
type WordResponse struct {
	Word  string  `json:"word"`
	Found bool    `json:"found"`
	Score float64 `json:"score"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPFilter exposes the spam filter as a JSON API
type HTTPFilter struct {
	service  *core.SpamFilterService
	logger   *zap.Logger
	cfg      config.HTTPConfig
	engine   *gin.Engine
	server   *http.Server
	listener net.Listener
}

// NewHTTPFilter creates the JSON API and registers its routes
func NewHTTPFilter(service *core.SpamFilterService, logger *zap.Logger, cfg config.HTTPConfig) *HTTPFilter {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	f := &HTTPFilter{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}

	r := gin.New()
	r.Use(gin.Recovery(), f.requestLogger())

	r.GET("/healthz", f.health)

	apiV1Group := r.Group("/api/v1", f.limitBody())
	apiV1Group.POST("/analyze", f.analyze)
	apiV1Group.GET("/words/:word", f.lookupWord)
	apiV1Group.PUT("/words", f.insertWord)
	apiV1Group.GET("/trie", f.dictionary)
	apiV1Group.GET("/history", f.history)

	f.engine = r
	return f
}

// Handler returns the router, for embedding or tests
func (f *HTTPFilter) Handler() http.Handler {
	return f.engine
}

// Start starts serving the API
func (f *HTTPFilter) Start() error {
	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.listener = listener
	f.server = &http.Server{
		Handler:           f.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the address the API listens on, once started
func (f *HTTPFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop gracefully shuts the API down
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}

// ProcessEmail analyzes a single email
func (f *HTTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.SpamAnalysisResult, error) {
	return f.service.AnalyzeEmail(ctx, email)
}

func (f *HTTPFilter) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		f.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (f *HTTPFilter) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, f.cfg.MaxBodySize)
		}
		c.Next()
	}
}

// bindJSON decodes the request body, answering 413 or 400 on failure
func bindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	return false
}

func (f *HTTPFilter) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (f *HTTPFilter) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		result *core.SpamAnalysisResult
		err    error
	)
	if req.From != "" || req.Subject != "" {
		result, err = f.service.AnalyzeEmail(c.Request.Context(), &core.Email{
			From:    req.From,
			Subject: req.Subject,
			Body:    *req.Text,
		})
	} else {
		result, err = f.service.AnalyzeText(c.Request.Context(), *req.Text)
	}
	if err != nil {
		f.logger.Error("Failed to analyze text", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (f *HTTPFilter) lookupWord(c *gin.Context) {
	word := c.Param("word")
	match := f.service.LookupTerm(word)
	c.JSON(http.StatusOK, WordResponse{Word: word, Found: match.Found, Score: match.Score})
}

func (f *HTTPFilter) insertWord(c *gin.Context) {
	if !f.cfg.AllowInsert {
		c.JSON(http.StatusForbidden, errorResponse{Error: "dictionary updates are disabled"})
		return
	}

	var req WordRequest
	if !bindJSON(c, &req) {
		return
	}

	score := core.DefaultBaseScore
	if req.Score != nil {
		score = *req.Score
	}
	f.service.AddTerm(req.Word, score)

	match := f.service.LookupTerm(req.Word)
	c.JSON(http.StatusOK, WordResponse{Word: req.Word, Found: match.Found, Score: match.Score})
}

func (f *HTTPFilter) dictionary(c *gin.Context) {
	snapshot := f.service.DictionarySnapshot()
	c.JSON(http.StatusOK, gin.H{
		"terms": snapshot.Words(),
		"root":  snapshot,
	})
}

func (f *HTTPFilter) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("limit must be an integer between 1 and %d", maxHistoryLimit),
			})
			return
		}
		limit = n
	}

	records, err := f.service.RecentHistory(c.Request.Context(), limit)
	if err != nil {
		f.logger.Error("Failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": records})
}
