package ticketcreated

import (
	"context"

	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
)

const Source = "freshdesk"

// Input is the ticket named by a Freshdesk automation webhook.
type Input struct {
	TicketID    freshdesk.ID
	RequesterID freshdesk.ID
	Tags        freshdesk.TagList
}

type Output struct {
	Success  bool         `json:"success"`
	TicketID freshdesk.ID `json:"ticketId"`
	VIP      bool         `json:"vip"`
	Updated  bool         `json:"updated"`
}

type HelpdeskAPI interface {
	GetContact(ctx context.Context, id freshdesk.ID) (*freshdesk.Contact, error)
	UpdateTicket(ctx context.Context, id freshdesk.ID, req freshdesk.UpdateTicketRequest) error
}

type ServiceDependencies struct {
	Logger   logger.Logger
	Helpdesk HelpdeskAPI
}
