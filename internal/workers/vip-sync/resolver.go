package vipsync

import (
	"context"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/logger"
)

// AmbiguityPolicy picks a contact when an email search returns several.
type AmbiguityPolicy string

const FirstMatchWins AmbiguityPolicy = "first-match-wins"

type Resolution struct {
	Contact *freshdesk.Contact
	Created bool
}

// Resolver finds the helpdesk contact for an email, creating it when absent.
type Resolver struct {
	api    HelpdeskAPI
	policy AmbiguityPolicy
	logger logger.Logger
}

func NewResolver(api HelpdeskAPI, policy AmbiguityPolicy, log logger.Logger) *Resolver {
	if policy == "" {
		policy = FirstMatchWins
	}
	return &Resolver{api: api, policy: policy, logger: log}
}

// Resolve returns RESOLUTION_FAILED, carrying the upstream status and body,
// when either the search or the create does not succeed.
func (r *Resolver) Resolve(ctx context.Context, email, displayName string) (*Resolution, error) {
	matches, err := r.api.SearchContactsByEmail(ctx, email)
	if err != nil {
		return nil, resolutionError(email, err)
	}

	if len(matches) > 0 {
		if len(matches) > 1 {
			r.logger.Warn("Multiple contacts share an email, using the first", map[string]interface{}{
				"email":   email,
				"matches": len(matches),
				"policy":  string(r.policy),
				"chosen":  matches[0].ID.String(),
			})
		}
		contact := matches[0]
		r.logger.Debug("Contact found", map[string]interface{}{
			"email":     email,
			"contactId": contact.ID.String(),
		})
		return &Resolution{Contact: &contact}, nil
	}

	if displayName == "" {
		displayName = email
	}
	created, err := r.api.CreateContact(ctx, freshdesk.CreateContactRequest{Email: email, Name: displayName})
	if err != nil {
		return nil, resolutionError(email, err)
	}

	r.logger.Info("Contact created", map[string]interface{}{
		"email":     email,
		"contactId": created.ID.String(),
	})
	return &Resolution{Contact: created, Created: true}, nil
}

func resolutionError(email string, err error) error {
	status, body := 0, ""
	if stdErr, ok := apperrors.AsStandard(err); ok {
		if s, ok := stdErr.Metadata["status"].(int); ok {
			status = s
		}
		if b, ok := stdErr.Metadata["body"].(string); ok {
			body = b
		}
	}
	return apperrors.NewResolutionFailedError(email, status, body, err)
}
