package freshdesk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"vip-relay/internal/common/vip"
)

// Ticket priorities.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4
)

// ID is a remote-assigned identifier. Freshdesk sends numbers, but webhook
// automations frequently deliver them as strings; both decode to the same ID.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// OptionalID returns nil for an empty value, for omitempty request fields.
func OptionalID(value string) *ID {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	id := ID(value)
	return &id
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("freshdesk: id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric IDs as JSON numbers, which is what the API expects
// for group_id and requester_id.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// TagList is an ordered tag set. It decodes from a JSON array, a comma
// separated string or null, and is always trimmed and de-duplicated.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TagList(vip.NormalizeTags(strings.Split(s, ",")))
		return nil
	case len(data) > 0 && data[0] == '[':
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		tags := make([]string, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case nil:
			case string:
				tags = append(tags, v)
			default:
				tags = append(tags, fmt.Sprint(v))
			}
		}
		*t = TagList(vip.NormalizeTags(tags))
		return nil
	default:
		return fmt.Errorf("freshdesk: unsupported tags representation %s", truncate(string(data), 40))
	}
}

// MarshalJSON always writes an array; the API rejects null for tags.
func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// CustomFields is a sparse attribute map. Besides a JSON object it accepts a
// JSON-encoded object inside a string, a "k=v, k2:v2" delimited string, or null.
type CustomFields map[string]interface{}

func (c *CustomFields) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = nil
		return nil
	case len(data) > 0 && data[0] == '{':
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*c = CustomFields(m)
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		fields, err := parseFieldString(s)
		if err != nil {
			return err
		}
		*c = fields
		return nil
	default:
		return fmt.Errorf("freshdesk: unsupported custom_fields representation %s", truncate(string(data), 40))
	}
}

func parseFieldString(s string) (CustomFields, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "{") {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("freshdesk: custom_fields string is not valid JSON: %w", err)
		}
		return CustomFields(m), nil
	}

	fields := CustomFields{}
	entries := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	for _, entry := range entries {
		sep := strings.IndexAny(entry, "=:")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(entry[:sep])
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(entry[sep+1:])
	}
	return fields, nil
}

type Contact struct {
	ID           ID           `json:"id"`
	Name         string       `json:"name,omitempty"`
	Email        string       `json:"email,omitempty"`
	Tags         TagList      `json:"tags"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
}

type Ticket struct {
	ID          ID      `json:"id"`
	Subject     string  `json:"subject,omitempty"`
	RequesterID ID      `json:"requester_id"`
	Tags        TagList `json:"tags"`
	Priority    int     `json:"priority,omitempty"`
	GroupID     *ID     `json:"group_id,omitempty"`
}

type CreateContactRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UpdateContactRequest struct {
	Tags         TagList      `json:"tags"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
}

type UpdateTicketRequest struct {
	Tags     TagList `json:"tags"`
	Priority int     `json:"priority,omitempty"`
	GroupID  *ID     `json:"group_id,omitempty"`
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
