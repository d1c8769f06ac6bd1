package ticketcreated

import (
	"context"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
	"vip-relay/internal/common/vip"
)

// Service tags a newly created ticket when its requester is already VIP.
type Service struct {
	config   *Config
	logger   logger.Logger
	helpdesk HelpdeskAPI
	groupID  *freshdesk.ID
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:   config,
		logger:   log,
		helpdesk: deps.Helpdesk,
		groupID:  freshdesk.OptionalID(config.GroupID),
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	contact, err := s.helpdesk.GetContact(ctx, input.RequesterID)
	if err != nil {
		status, body := 0, ""
		if stdErr, ok := apperrors.AsStandard(err); ok {
			status, _ = stdErr.Metadata["status"].(int)
			body, _ = stdErr.Metadata["body"].(string)
		}
		return nil, apperrors.NewResolutionFailedError(input.RequesterID.String(), status, body, err).
			WithMetadata("requesterId", input.RequesterID.String())
	}

	output := &Output{Success: true, TicketID: input.TicketID}
	if !vip.HasMarker(contact.Tags) {
		s.logger.Debug("Requester is not VIP", map[string]interface{}{
			"ticketId":    input.TicketID.String(),
			"requesterId": input.RequesterID.String(),
		})
		return output, nil
	}
	output.VIP = true

	tags, _ := vip.ReconcileTags(input.Tags)
	err = s.helpdesk.UpdateTicket(ctx, input.TicketID, freshdesk.UpdateTicketRequest{
		Tags:     tags,
		Priority: s.config.DefaultPriority,
		GroupID:  s.groupID,
	})
	if err != nil {
		metrics.TicketUpdatesTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.TicketUpdatesTotal.WithLabelValues("success").Inc()
	output.Updated = true

	s.logger.Info("New ticket tagged VIP", map[string]interface{}{
		"ticketId":    input.TicketID.String(),
		"requesterId": input.RequesterID.String(),
	})
	return output, nil
}
