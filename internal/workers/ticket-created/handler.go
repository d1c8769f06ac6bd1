package ticketcreated

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vip-relay/internal/common/config"
	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
	"vip-relay/internal/common/observability"
)

// Handler serves POST /freshdesk-webhook.
type Handler struct {
	config        *Config
	logger        logger.Logger
	service       *Service
	errors        *apperrors.ErrorHandler
	observability *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Helpdesk      HelpdeskAPI
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for ticket-created: %w", err)
	}
	if opts.Helpdesk == nil {
		return nil, fmt.Errorf("ticket-created requires a helpdesk client")
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json", "vip-relay")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": Source})

	handler := &Handler{
		config:        workerConfig,
		logger:        loggerInstance,
		errors:        apperrors.NewErrorHandler(loggerInstance),
		observability: opts.Observability,
	}
	handler.service = NewService(ServiceDependencies{
		Logger:   loggerInstance,
		Helpdesk: opts.Helpdesk,
	}, workerConfig)

	return handler, nil
}

func (h *Handler) Handle(c *gin.Context) {
	startTime := time.Now()
	outcome := "error"
	defer func() {
		elapsed := time.Since(startTime)
		metrics.WebhooksTotal.WithLabelValues(Source, outcome).Inc()
		metrics.WebhookDuration.WithLabelValues(Source).Observe(elapsed.Seconds())
		h.observability.RecordSync(c.Request.Context(), Source, outcome, elapsed)
	}()

	if !h.config.Enabled {
		outcome = "disabled"
		c.JSON(http.StatusOK, gin.H{"ignored": "ticket sync disabled"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		outcome = h.respondError(c, apperrors.NewInvalidPayloadError(err.Error()))
		return
	}

	input, err := parseInput(body)
	if err != nil {
		outcome = h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	output, err := h.service.Execute(ctx, input)
	if err != nil {
		outcome = h.respondError(c, err)
		return
	}

	outcome = "success"
	if !output.VIP {
		outcome = "ignored"
	}
	c.JSON(http.StatusOK, output)
}

func (h *Handler) respondError(c *gin.Context, err error) string {
	status, stdErr := h.errors.Handle(Source, err)
	c.JSON(status, stdErr.Response())
	return strings.ToLower(string(stdErr.Code))
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if appConfig.VIP.DefaultPriority > 0 {
			cfg.DefaultPriority = appConfig.VIP.DefaultPriority
		}
		cfg.GroupID = appConfig.VIP.GroupID
	}

	return cfg
}
