package vipsync

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vip-relay/internal/common/config"
	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/intercom"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
	"vip-relay/internal/common/observability"
)

const unsignedWarning = "Unsigned Intercom test webhook"

type Executor interface {
	Execute(ctx context.Context, event intercom.InboundEvent) (*Output, error)
}

// Handler serves POST /intercom-webhook.
type Handler struct {
	config        *Config
	logger        logger.Logger
	verifier      *intercom.Verifier
	service       Executor
	errors        *apperrors.ErrorHandler
	observability *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Helpdesk      HelpdeskAPI
	Alerter       Alerter
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for vip-sync: %w", err)
	}
	if opts.Helpdesk == nil {
		return nil, fmt.Errorf("vip-sync requires a helpdesk client")
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
		verifier:      intercom.NewVerifier(workerConfig.ClientSecret),
		errors:        apperrors.NewErrorHandler(loggerInstance),
		observability: opts.Observability,
	}

	handler.service = NewService(ServiceDependencies{
		Logger:   loggerInstance,
		Helpdesk: opts.Helpdesk,
		Alerter:  opts.Alerter,
	}, handler.config)

	if workerConfig.ClientSecret == "" {
		loggerInstance.Warn("No Intercom client secret configured, every signed webhook will be rejected", nil)
	}

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
		c.JSON(http.StatusOK, gin.H{"ignored": "vip sync disabled"})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		outcome = h.respondError(c, apperrors.NewInvalidPayloadError(err.Error()))
		return
	}

	_, present := c.Request.Header[http.CanonicalHeaderKey(intercom.SignatureHeader)]
	if err := h.verifier.Authenticate(body, c.GetHeader(intercom.SignatureHeader), present); err != nil {
		if apperrors.Is(err, apperrors.ErrCodeUnsignedTestEvent) {
			outcome = "unsigned"
			h.logger.Warn("Unsigned Intercom webhook received, treating as test delivery", map[string]interface{}{
				"requestId": c.GetString("requestId"),
			})
			c.JSON(http.StatusOK, gin.H{"warning": unsignedWarning})
			return
		}
		outcome = h.respondError(c, err)
		return
	}

	result := GetInputSchema().Validate(body)
	if !result.Valid {
		outcome = h.respondError(c, apperrors.NewInvalidPayloadError(strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	event, err := intercom.DecodeEvent(body)
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

	output, err := h.service.Execute(ctx, event)
	if err != nil {
		if stdErr, ok := apperrors.AsStandard(err); ok && stdErr.Code == apperrors.ErrCodeNotRelevant {
			outcome = "ignored"
			h.logger.Info("Event ignored", map[string]interface{}{
				"reason": stdErr.Message,
				"topic":  event.Topic,
				"tag":    event.TagName,
			})
			c.JSON(http.StatusOK, gin.H{"ignored": stdErr.Message})
			return
		}
		outcome = h.respondError(c, err)
		return
	}

	outcome = "success"
	if output.Tickets.Failed() {
		outcome = "partial"
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

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		cfg.ClientSecret = appConfig.Intercom.ClientSecret
		if len(appConfig.VIP.Keywords) > 0 {
			cfg.Keywords = appConfig.VIP.Keywords
		}
		cfg.CustomField = appConfig.VIP.CustomField
		if appConfig.VIP.DefaultPriority > 0 {
			cfg.DefaultPriority = appConfig.VIP.DefaultPriority
		}
		cfg.GroupID = appConfig.VIP.GroupID
		cfg.AlertsEnabled = appConfig.Alerts.Enabled
	}

	return cfg
}
