// Package contact serves the website's contact form: rate limiting, a
// honeypot, validation and forwarding to an automation webhook or email.
package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/estimate"
	"github.com/nexgen-studio/growthkit/observability"
	"github.com/nexgen-studio/growthkit/ratelimit"
)

// User-facing error messages.
const (
	msgTooMany       = "Too many requests. Please try again shortly."
	msgInvalid       = "Invalid form data."
	msgNotConfigured = "Automation webhook is not configured."
	msgUpstream      = "Failed to trigger automation."
	msgUnexpected    = "Unexpected server error."
)

const (
	// maxBodyBytes is well above the largest valid submission.
	maxBodyBytes = 64 << 10

	requestIDHeader = "X-Request-Id"
	loggerKey       = "contact.logger"
)

// Handler serves the contact routes. A nil Forwarder is a deployment without
// a destination configured; submissions then fail with 500.
type Handler struct {
	limiter   *ratelimit.Limiter
	forwarder Forwarder
	logger    observability.Logger
}

func NewHandler(limiter *ratelimit.Limiter, forwarder Forwarder, logger observability.Logger) *Handler {
	return &Handler{limiter: limiter, forwarder: forwarder, logger: observability.OrNop(logger)}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/api/contact", h.Submit)
	r.POST("/api/estimate", h.Estimate)
	r.GET("/healthz", h.Health)
}

// NewRouter builds an engine with request ids, panic recovery and the
// contact routes. X-Forwarded-For is only believed when the peer is one of
// trustedProxies; with none the client is the TCP peer.
func NewRouter(h *Handler, trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, goerr.Wrap(err, "invalid trusted proxies", goerr.V("proxies", trustedProxies))
	}
	r.Use(h.requestID(), gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
	}))
	h.RegisterRoutes(r)
	return r, nil
}

func (h *Handler) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(loggerKey, h.logger.With(observability.String("request_id", id)))
		c.Next()
	}
}

func (h *Handler) log(c *gin.Context) observability.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if logger, ok := l.(observability.Logger); ok {
			return logger
		}
	}
	return h.logger
}

// ClientKey is the rate-limit key for the request: the client address as
// resolved against the engine's trusted proxies, or "unknown".
func ClientKey(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// Submit checks, in order: rate limit, honeypot, validation, destination.
func (h *Handler) Submit(c *gin.Context) {
	logger := h.log(c)
	ip := ClientKey(c)

	if h.limiter != nil {
		ok, err := h.limiter.Allow(c.Request.Context(), ip)
		switch {
		case err != nil:
			logger.Warn("rate limit store unavailable", observability.String("ip", ip), observability.Error("error", err))
		case !ok:
			logger.Info("submission rate limited", observability.String("ip", ip))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": msgTooMany})
			return
		}
	}

	var sub Submission
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Info("submission body too large", observability.String("ip", ip), observability.Int64("limit", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": msgInvalid})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   msgInvalid,
			"details": Details{FormErrors: []string{"Expected a JSON object."}, FieldErrors: map[string][]string{}},
		})
		return
	}
	if sub.IsBot() {
		logger.Info("honeypot triggered", observability.String("ip", ip))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	lead, details := Validate(sub)
	if !details.Empty() {
		if details.FormErrors == nil {
			details.FormErrors = []string{}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalid, "details": details})
		return
	}

	if h.forwarder == nil {
		logger.Error("no forwarder configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgNotConfigured})
		return
	}

	userAgent := c.GetHeader("User-Agent")
	if userAgent == "" {
		userAgent = "unknown"
	}
	lead.Project = estimate.ProjectNotes(lead.Timeline, lead.Project)
	err := h.forwarder.Forward(c.Request.Context(), lead, Metadata{IP: ip, UserAgent: userAgent})

	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		logger.Warn("provider rejected submission",
			observability.String("provider", upstream.Provider),
			observability.Int("status", upstream.Status))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          msgUpstream,
			"providerStatus": upstream.Status,
			"provider":       upstream.Body,
		})
	case err != nil:
		logger.Error("forwarding failed", observability.Error("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnexpected})
	default:
		logger.Info("submission forwarded", observability.String("service", lead.Service))
		resp := gin.H{"ok": true}
		if lead.Timeline != "" {
			resp["message"] = estimate.FollowUpMessage(lead.Timeline)
		}
		c.JSON(http.StatusOK, resp)
	}
}

type estimateRequest struct {
	ProjectType estimate.ProjectType `json:"projectType"`
	Urgency     estimate.Urgency     `json:"urgency"`
	Traffic     estimate.Traffic     `json:"traffic"`
}

// Estimate returns the budget range for a project profile.
func (h *Handler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalid})
		return
	}
	est, err := estimate.Get(req.ProjectType, req.Urgency, req.Traffic)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown project type."})
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
