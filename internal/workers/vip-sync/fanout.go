package vipsync

import (
	"context"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
	"vip-relay/internal/common/vip"
)

// TicketUpdater applies the VIP tag, default priority and optional group to
// every ticket of a contact. One ticket failing never stops the others.
type TicketUpdater struct {
	api      HelpdeskAPI
	priority int
	groupID  *freshdesk.ID
	logger   logger.Logger
}

func NewTicketUpdater(api HelpdeskAPI, priority int, groupID string, log logger.Logger) *TicketUpdater {
	return &TicketUpdater{
		api:      api,
		priority: priority,
		groupID:  freshdesk.OptionalID(groupID),
		logger:   log,
	}
}

func (u *TicketUpdater) UpdateAll(ctx context.Context, contactID freshdesk.ID) FanOutResult {
	result := FanOutResult{Failures: []TicketFailure{}}

	tickets, err := u.api.ListTicketsByRequester(ctx, contactID)
	if err != nil {
		u.logger.Error("Failed to list tickets", map[string]interface{}{
			"contactId": contactID.String(),
			"error":     err,
		})
		result.ListErr = err
		result.ListError = err.Error()
		return result
	}

	for _, ticket := range tickets {
		result.Attempted++

		tags, _ := vip.ReconcileTags(ticket.Tags)
		err := u.api.UpdateTicket(ctx, ticket.ID, freshdesk.UpdateTicketRequest{
			Tags:     tags,
			Priority: u.priority,
			GroupID:  u.groupID,
		})
		if err != nil {
			metrics.TicketUpdatesTotal.WithLabelValues("failure").Inc()
			stdErr := apperrors.Normalize(err)
			result.Failures = append(result.Failures, TicketFailure{
				TicketID: ticket.ID,
				Code:     string(stdErr.Code),
				Message:  stdErr.Message,
				Err:      err,
			})
			u.logger.Warn("Ticket update failed", map[string]interface{}{
				"contactId": contactID.String(),
				"ticketId":  ticket.ID.String(),
				"errorCode": string(stdErr.Code),
				"error":     err,
			})
			continue
		}

		metrics.TicketUpdatesTotal.WithLabelValues("success").Inc()
		result.Succeeded++
	}

	u.logger.Info("Ticket fan-out finished", map[string]interface{}{
		"contactId": contactID.String(),
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    len(result.Failures),
	})
	return result
}
