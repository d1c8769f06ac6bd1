package intercom

import (
	"encoding/json"
	"strings"

	apperrors "vip-relay/internal/common/errors"
)

// TopicTagCreated is the only topic the relay acts on.
const TopicTagCreated = "contact.user.tag.created"

// InboundEvent is the part of an Intercom notification the relay reads.
type InboundEvent struct {
	Topic        string
	TagName      string
	ContactEmail string
	ContactName  string
}

type envelope struct {
	Topic string `json:"topic"`
	Data  struct {
		Item struct {
			Tag struct {
				Name string `json:"name"`
			} `json:"tag"`
			Contact struct {
				Email string `json:"email"`
				Name  string `json:"name"`
			} `json:"contact"`
		} `json:"item"`
	} `json:"data"`
}

// DecodeEvent parses a raw notification body. Missing nested objects decode as
// empty fields; only a body that is not a JSON object is an error.
func DecodeEvent(body []byte) (InboundEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return InboundEvent{}, apperrors.NewInvalidPayloadError(err.Error())
	}
	return InboundEvent{
		Topic:        env.Topic,
		TagName:      env.Data.Item.Tag.Name,
		ContactEmail: strings.TrimSpace(env.Data.Item.Contact.Email),
		ContactName:  strings.TrimSpace(env.Data.Item.Contact.Name),
	}, nil
}
