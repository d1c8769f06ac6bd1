package freshdesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "vip-relay/internal/common/errors"
)

// SearchContactsByEmail lists contacts whose email matches exactly. A
// successful response that is not JSON is treated as no matches.
func (c *Client) SearchContactsByEmail(ctx context.Context, email string) ([]Contact, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/contacts?email="+url.QueryEscape(email), nil, ClassContactSearch)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperrors.NewUpstreamError("search contacts", resp.Status, resp.Text())
	}
	if !resp.JSON {
		return nil, nil
	}

	var contacts []Contact
	if err := resp.Decode(&contacts); err != nil {
		return nil, apperrors.NewUpstreamError("search contacts", resp.Status, fmt.Sprintf("decoding contacts: %v", err))
	}
	return contacts, nil
}

func (c *Client) CreateContact(ctx context.Context, req CreateContactRequest) (*Contact, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/contacts", req, ClassDefault)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperrors.NewUpstreamError("create contact", resp.Status, resp.Text())
	}
	return decodeContact("create contact", resp)
}

func (c *Client) GetContact(ctx context.Context, id ID) (*Contact, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id.String()), nil, ClassDefault)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, apperrors.NewUpstreamError("get contact", resp.Status, resp.Text())
	}
	return decodeContact("get contact", resp)
}

// UpdateContact replaces the contact's tags and merges custom_fields. The tag
// list must already include the tags that should survive.
func (c *Client) UpdateContact(ctx context.Context, id ID, req UpdateContactRequest) error {
	resp, err := c.Call(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id.String()), req, ClassDefault)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return apperrors.NewUpstreamError("update contact", resp.Status, resp.Text())
	}
	return nil
}

func decodeContact(operation string, resp *Response) (*Contact, error) {
	var contact Contact
	if err := resp.Decode(&contact); err != nil {
		return nil, apperrors.NewUpstreamError(operation, resp.Status, fmt.Sprintf("decoding contact: %v", err))
	}
	if contact.ID.IsZero() {
		return nil, apperrors.NewUpstreamError(operation, resp.Status, "response carried no contact id")
	}
	return &contact, nil
}
