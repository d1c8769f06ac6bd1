package vipsync

import (
	"context"

	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
)

// Source labels metrics and logs for Intercom deliveries.
const Source = "intercom"

// Decision is the classifier's verdict on one event.
type Decision struct {
	ShouldAct   bool
	Email       string
	DisplayName string
}

type TicketFailure struct {
	TicketID freshdesk.ID `json:"ticketId"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Err      error        `json:"-"`
}

// FanOutResult summarizes one pass over a contact's tickets. ListErr is set
// when the tickets could not be listed, in which case nothing was attempted.
type FanOutResult struct {
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failures  []TicketFailure `json:"failures"`
	ListError string          `json:"listError,omitempty"`
	ListErr   error           `json:"-"`
}

// Failed reports whether any part of the fan-out did not complete.
func (r FanOutResult) Failed() bool {
	return r.ListErr != nil || len(r.Failures) > 0
}

type Output struct {
	Success        bool         `json:"success"`
	Email          string       `json:"email"`
	ContactID      freshdesk.ID `json:"contactId"`
	ContactCreated bool         `json:"contactCreated"`
	TagsChanged    bool         `json:"tagsChanged"`
	Tickets        FanOutResult `json:"tickets"`
}

// HelpdeskAPI is the slice of the Freshdesk client the sync needs.
type HelpdeskAPI interface {
	SearchContactsByEmail(ctx context.Context, email string) ([]freshdesk.Contact, error)
	CreateContact(ctx context.Context, req freshdesk.CreateContactRequest) (*freshdesk.Contact, error)
	UpdateContact(ctx context.Context, id freshdesk.ID, req freshdesk.UpdateContactRequest) error
	ListTicketsByRequester(ctx context.Context, requesterID freshdesk.ID) ([]freshdesk.Ticket, error)
	UpdateTicket(ctx context.Context, id freshdesk.ID, req freshdesk.UpdateTicketRequest) error
}

// Alerter publishes operator alerts. *aws.SNSClient satisfies it.
type Alerter interface {
	PublishAlert(ctx context.Context, subject, message string) (string, error)
}

type ServiceDependencies struct {
	Logger   logger.Logger
	Helpdesk HelpdeskAPI
	Alerter  Alerter
}
