package vipsync

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/intercom"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
	"vip-relay/internal/common/vip"
)

var tracer = otel.Tracer("vip-relay/vip-sync")

// Service runs one VIP tagging event through classification, contact
// resolution, contact reconciliation and the ticket fan-out.
type Service struct {
	config     *Config
	logger     logger.Logger
	helpdesk   HelpdeskAPI
	alerter    Alerter
	classifier *Classifier
	resolver   *Resolver
	updater    *TicketUpdater
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var alerter Alerter
	if config.AlertsEnabled {
		alerter = deps.Alerter
	}

	return &Service{
		config:     config,
		logger:     log,
		helpdesk:   deps.Helpdesk,
		alerter:    alerter,
		classifier: NewClassifier(config.Keywords),
		resolver:   NewResolver(deps.Helpdesk, FirstMatchWins, log),
		updater:    NewTicketUpdater(deps.Helpdesk, config.DefaultPriority, config.GroupID, log),
	}
}

// Execute returns NOT_RELEVANT and MISSING_IDENTITY errors from classification
// unchanged. Ticket failures do not fail the call; they are reported in
// Output.Tickets.
func (s *Service) Execute(ctx context.Context, event intercom.InboundEvent) (*Output, error) {
	ctx, span := tracer.Start(ctx, "vipsync.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("intercom.topic", event.Topic))

	decision, err := s.classifier.Classify(event)
	if err != nil {
		span.SetAttributes(attribute.String("vipsync.outcome", string(apperrors.CodeOf(err))))
		return nil, err
	}

	s.logger.Info("Processing VIP tag event", map[string]interface{}{
		"email": decision.Email,
		"tag":   event.TagName,
	})

	resolution, err := s.resolver.Resolve(ctx, decision.Email, decision.DisplayName)
	if err != nil {
		s.fail(ctx, span, decision.Email, "contact resolution", err)
		return nil, err
	}
	contact := resolution.Contact
	span.SetAttributes(attribute.String("freshdesk.contact_id", contact.ID.String()))

	reconciled := vip.ReconcileContact(contact.Tags, contact.CustomFields, s.config.CustomField)
	if reconciled.RequiresWrite {
		update := freshdesk.UpdateContactRequest{Tags: reconciled.Tags}
		if s.config.CustomField != "" {
			update.CustomFields = reconciled.Fields
		}
		if err := s.helpdesk.UpdateContact(ctx, contact.ID, update); err != nil {
			s.fail(ctx, span, decision.Email, "contact update", err)
			return nil, err
		}
		s.logger.Info("Contact tagged VIP", map[string]interface{}{
			"contactId":    contact.ID.String(),
			"tagsChanged":  reconciled.TagsChanged,
			"fieldChanged": reconciled.FieldChanged,
		})
	}

	tickets := s.updater.UpdateAll(ctx, contact.ID)
	if tickets.Failed() {
		s.alert(ctx, "VIP ticket sync incomplete", fanOutReport(decision.Email, contact.ID, tickets))
	}

	return &Output{
		Success:        true,
		Email:          decision.Email,
		ContactID:      contact.ID,
		ContactCreated: resolution.Created,
		TagsChanged:    reconciled.TagsChanged,
		Tickets:        tickets,
	}, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, email, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	s.alert(ctx, "VIP sync failed", fmt.Sprintf("stage: %s\nemail: %s\nerror: %v", stage, email, err))
}

// alert is best effort; publishing failures are only logged.
func (s *Service) alert(ctx context.Context, subject, message string) {
	if s.alerter == nil {
		return
	}
	id, err := s.alerter.PublishAlert(ctx, subject, message)
	if err != nil {
		metrics.AlertsTotal.WithLabelValues("failure").Inc()
		s.logger.Warn("Failed to publish alert", map[string]interface{}{
			"subject": subject,
			"error":   err,
		})
		return
	}
	metrics.AlertsTotal.WithLabelValues("success").Inc()
	s.logger.Debug("Alert published", map[string]interface{}{
		"subject":   subject,
		"messageId": id,
	})
}

func fanOutReport(email string, contactID freshdesk.ID, r FanOutResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "email: %s\ncontact: %s\n", email, contactID)
	if r.ListErr != nil {
		fmt.Fprintf(&b, "listing tickets failed: %v\n", r.ListErr)
		return b.String()
	}
	fmt.Fprintf(&b, "attempted: %d, succeeded: %d\n", r.Attempted, r.Succeeded)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "ticket %s: [%s] %s\n", f.TicketID, f.Code, f.Message)
	}
	return b.String()
}
