package main

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	sessionprom "github.com/MrEthical07/goSession/metrics/export/prometheus"
)

const (
	internalKeyHeader = "X-Internal-Key"
	payloadKey        = "access_payload"
)

type server struct {
	engine      *goSession.Engine
	logger      *zap.Logger
	internalKey string

	registry     *prometheus.Registry
	httpDuration *prometheus.HistogramVec
}

type createSessionRequest struct {
	UserID   string            `json:"user_id" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func newServer(engine *goSession.Engine, logger *zap.Logger, internalKey string) *server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &server{
		engine:      engine,
		logger:      logger,
		internalKey: internalKey,
		registry:    prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sessiond",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request latencies by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	s.registry.MustRegister(s.httpDuration, sessionprom.NewCollector(engine))
	return s
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(s.observe())
	r.Use(clientInfo())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/tokens/refresh", s.refresh)
	v1.GET("/me", s.bearer(), s.me)
	v1.DELETE("/sessions/:id", s.bearerOrInternal(), s.revokeSession)

	internal := v1.Group("", s.requireInternal())
	internal.POST("/sessions", s.createSession)
	internal.GET("/sessions/:id", s.getSession)
	internal.POST("/families/:id/revoke", s.revokeFamily)

	return r
}

func (s *server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// clientInfo feeds the peer address into engine events. Gin resolves it
// against the trusted proxy list, which is empty.
func clientInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := goSession.WithClientIP(c.Request.Context(), c.ClientIP())
		if ua := c.Request.UserAgent(); ua != "" {
			ctx = goSession.WithUserAgent(ctx, ua)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *server) internalAllowed(c *gin.Context) bool {
	if s.internalKey == "" {
		return true
	}
	got := c.GetHeader(internalKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.internalKey)) == 1
}

func (s *server) requireInternal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.internalAllowed(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func (s *server) validateBearer(c *gin.Context) (*goSession.AccessPayload, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return nil, false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return nil, false
	}
	return s.engine.ValidateAccessToken(c.Request.Context(), token)
}

func (s *server) bearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, ok := s.validateBearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(payloadKey, payload)
		c.Next()
	}
}

// bearerOrInternal admits internal callers and the owner of the session named
// in the path.
func (s *server) bearerOrInternal() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(internalKeyHeader) != "" && s.internalAllowed(c) {
			c.Next()
			return
		}
		payload, ok := s.validateBearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if payload.SessionID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(payloadKey, payload)
		c.Next()
	}
}

func (s *server) health(c *gin.Context) {
	status := s.engine.Health(c.Request.Context())
	body := gin.H{
		"store_available":  status.StoreAvailable,
		"store_latency_ms": status.StoreLatency.Milliseconds(),
	}
	if !status.StoreAvailable {
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tokens, err := s.engine.CreateSession(c.Request.Context(), req.UserID, req.Metadata)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokens)
}

func (s *server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	tokens, err := s.engine.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (s *server) me(c *gin.Context) {
	payload := c.MustGet(payloadKey).(*goSession.AccessPayload)
	c.JSON(http.StatusOK, gin.H{
		"user_id":    payload.UserID,
		"session_id": payload.SessionID,
		"metadata":   payload.Metadata,
		"expires_at": payload.ExpiresAt,
	})
}

func (s *server) getSession(c *gin.Context) {
	info, err := s.engine.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":         info.SessionID,
		"user_id":            info.UserID,
		"token_family":       info.FamilyID,
		"version":            info.Version,
		"metadata":           info.Metadata,
		"created_at":         info.CreatedAt,
		"last_refreshed":     info.LastRefreshed,
		"expires_in_seconds": int64(info.ExpiresIn / time.Second),
		"revoked":            info.Revoked,
	})
}

func (s *server) revokeSession(c *gin.Context) {
	if err := s.engine.RevokeSession(c.Request.Context(), c.Param("id")); err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) revokeFamily(c *gin.Context) {
	if err := s.engine.RevokeTokenFamily(c.Request.Context(), c.Param("id")); err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeEngineError maps engine errors to responses. Every rejected credential,
// reuse included, gets the same 401 body.
func (s *server) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, goSession.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
	case errors.Is(err, goSession.ErrNoRefreshToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token_required"})
	case errors.Is(err, goSession.ErrInvalidUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_user_id"})
	case errors.Is(err, goSession.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, goSession.ErrRefreshRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	case errors.Is(err, goSession.ErrStoreUnavailable):
		s.logger.Error("session store unavailable", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unavailable"})
	default:
		s.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
