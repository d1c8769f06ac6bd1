package ticketcreated

import (
	"encoding/json"
	"strings"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/validation"
)

var payloadSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"ticket": {"type": ["object", "null"]},
		"id": {"type": ["integer", "string", "null"]},
		"requester_id": {"type": ["integer", "string", "null"]}
	}
}`)

var ticketSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"id": {"type": ["integer", "string", "null"]},
		"requester_id": {"type": ["integer", "string", "null"]},
		"tags": {"type": ["array", "string", "null"]}
	}
}`)

type ticketPayload struct {
	ID          freshdesk.ID      `json:"id"`
	RequesterID freshdesk.ID      `json:"requester_id"`
	Tags        freshdesk.TagList `json:"tags"`
}

// parseInput accepts {"ticket": {...}} or the bare ticket object.
func parseInput(body []byte) (*Input, error) {
	if result := payloadSchema.Validate(body); !result.Valid {
		return nil, apperrors.NewInvalidPayloadError(joinMessages(result))
	}

	var wrapper struct {
		Ticket json.RawMessage `json:"ticket"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, apperrors.NewInvalidPayloadError(err.Error())
	}

	raw := body
	if len(wrapper.Ticket) > 0 && string(wrapper.Ticket) != "null" {
		raw = wrapper.Ticket
		if result := ticketSchema.Validate(raw); !result.Valid {
			return nil, apperrors.NewInvalidPayloadError(joinMessages(result))
		}
	}

	var ticket ticketPayload
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, apperrors.NewInvalidPayloadError(err.Error())
	}
	if ticket.ID.IsZero() || ticket.RequesterID.IsZero() {
		return nil, apperrors.NewInvalidPayloadError("no ticket or requester")
	}

	return &Input{
		TicketID:    ticket.ID,
		RequesterID: ticket.RequesterID,
		Tags:        ticket.Tags,
	}, nil
}

func joinMessages(result *validation.ValidationResult) string {
	return strings.Join(result.GetErrorMessages(), "; ")
}
