package freshdesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "vip-relay/internal/common/errors"
)

// ListTicketsByRequester returns the tickets raised by a contact.
func (c *Client) ListTicketsByRequester(ctx context.Context, requesterID ID) ([]Ticket, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/tickets?requester_id="+url.QueryEscape(requesterID.String()), nil, ClassDefault)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperrors.NewUpstreamError("list tickets", resp.Status, resp.Text())
	}
	if !resp.JSON {
		return nil, nil
	}

	var tickets []Ticket
	if err := resp.Decode(&tickets); err != nil {
		return nil, apperrors.NewUpstreamError("list tickets", resp.Status, fmt.Sprintf("decoding tickets: %v", err))
	}
	return tickets, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id ID, req UpdateTicketRequest) error {
	resp, err := c.Call(ctx, http.MethodPut, "/tickets/"+url.PathEscape(id.String()), req, ClassDefault)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apperrors.NewUpstreamError("update ticket", resp.Status, resp.Text())
	}
	return nil
}
