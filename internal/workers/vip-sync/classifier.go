package vipsync

import (
	"strings"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/intercom"
)

const fallbackKeyword = "vip"

// Classifier decides whether an Intercom event is a VIP tagging the relay must
// act on.
//
// Tag names are compared after stripping everything but ASCII letters and
// digits and lower-casing, so "⭐⭐VIP ⭐⭐", "V.I.P!" and "vip" are the same
// keyword. The match is a substring test, so "nonvip" also matches.
type Classifier struct {
	keywords []string
}

func NewClassifier(keywords []string) *Classifier {
	normalized := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = normalizeTag(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		normalized = append(normalized, k)
	}
	if len(normalized) == 0 {
		normalized = []string{fallbackKeyword}
	}
	return &Classifier{keywords: normalized}
}

// IsVIPTag reports whether name matches any configured keyword.
func (c *Classifier) IsVIPTag(name string) bool {
	tag := normalizeTag(name)
	if tag == "" {
		return false
	}
	for _, k := range c.keywords {
		if strings.Contains(tag, k) {
			return true
		}
	}
	return false
}

// Classify returns a NOT_RELEVANT error for events the relay ignores and
// MISSING_IDENTITY for VIP tags on contacts without an email.
func (c *Classifier) Classify(event intercom.InboundEvent) (Decision, error) {
	if event.Topic != intercom.TopicTagCreated {
		return Decision{}, apperrors.NewNotRelevantError("not " + intercom.TopicTagCreated).
			WithMetadata("topic", event.Topic)
	}
	if !c.IsVIPTag(event.TagName) {
		return Decision{}, apperrors.NewNotRelevantError("not VIP").
			WithMetadata("tag", event.TagName)
	}
	if event.ContactEmail == "" {
		return Decision{}, apperrors.NewMissingIdentityError()
	}

	name := event.ContactName
	if name == "" {
		name = event.ContactEmail
	}
	return Decision{
		ShouldAct:   true,
		Email:       event.ContactEmail,
		DisplayName: name,
	}, nil
}

func normalizeTag(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			b.WriteByte(ch + ('a' - 'A'))
		}
	}
	return b.String()
}
