package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vip-relay/internal/common/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestId"

	Banner = "✅ Webhook Intercom/Freshdesk is running 🚀"
)

// WebhookHandler is implemented by each worker's gin handler.
type WebhookHandler interface {
	Handle(c *gin.Context)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterOptions struct {
	Intercom  WebhookHandler
	Freshdesk WebhookHandler
	// Dependencies checked by /ready, keyed by name. May be empty.
	Dependencies map[string]Pinger
	Logger       logger.Logger
}

type Router struct {
	router       *gin.Engine
	intercom     WebhookHandler
	freshdesk    WebhookHandler
	dependencies map[string]Pinger
	log          logger.Logger
}

func NewRouter(opts RouterOptions) *Router {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	r := &Router{
		router:       gin.New(),
		intercom:     opts.Intercom,
		freshdesk:    opts.Freshdesk,
		dependencies: opts.Dependencies,
		log:          log,
	}

	r.router.Use(requestID(), accessLog(log), recovery(log))
	r.registerRoutes()

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

func (r *Router) registerRoutes() {
	r.router.GET("/", r.banner)
	r.router.GET("/health", r.healthCheck)
	r.router.GET("/ready", r.readyCheck)
	r.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.intercom != nil {
		r.router.POST("/intercom-webhook", r.intercom.Handle)
	}
	if r.freshdesk != nil {
		r.router.POST("/freshdesk-webhook", r.freshdesk.Handle)
	}
}

func (r *Router) banner(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (r *Router) readyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(r.dependencies))
	ready := true
	for name, dep := range r.dependencies {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// requestID reuses the caller's X-Request-ID or mints a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("Request completed", fields)
			return
		}
		log.Info("Request completed", fields)
	}
}

func recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("Panic recovered", map[string]interface{}{
			"requestId": c.GetString(requestIDKey),
			"path":      c.Request.URL.Path,
			"panic":     recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "internal error",
		})
	})
}
