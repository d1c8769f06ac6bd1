package vipsync

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "vip-relay/internal/common/errors"
	"vip-relay/internal/common/freshdesk"
	"vip-relay/internal/common/intercom"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/vip"
)

func TestClassifier_IsVIPTag(t *testing.T) {
	c := NewClassifier([]string{"VIP", "⭐⭐VIP ⭐⭐"})

	tests := []struct {
		tag  string
		want bool
	}{
		{tag: "⭐⭐VIP ⭐⭐", want: true},
		{tag: "VIP", want: true},
		{tag: "V.I.P!", want: true},
		{tag: "vip-customer", want: true},
		// Substring matching over-matches; this is accepted behavior.
		{tag: "nonvip", want: true},
		{tag: "Gold", want: false},
		{tag: "V I", want: false},
		{tag: "⭐⭐", want: false},
		{tag: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsVIPTag(tt.tag))
		})
	}
}

func TestClassifier_KeywordFallback(t *testing.T) {
	c := NewClassifier([]string{"⭐⭐", " "})
	assert.Equal(t, []string{"vip"}, c.keywords)

	c = NewClassifier([]string{"Platinum", "VIP"})
	assert.True(t, c.IsVIPTag("platinum tier"))
	assert.True(t, c.IsVIPTag("VIP"))
	assert.False(t, c.IsVIPTag("Gold"))
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil)

	decision, err := c.Classify(intercom.InboundEvent{
		Topic:        intercom.TopicTagCreated,
		TagName:      "VIP",
		ContactEmail: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, Decision{ShouldAct: true, Email: "jane@example.com", DisplayName: "jane@example.com"}, decision)

	decision, err = c.Classify(intercom.InboundEvent{
		Topic:        intercom.TopicTagCreated,
		TagName:      "VIP",
		ContactEmail: "jane@example.com",
		ContactName:  "Jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", decision.DisplayName)

	_, err = c.Classify(intercom.InboundEvent{Topic: "contact.created", TagName: "VIP", ContactEmail: "a@b.c"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotRelevant))

	_, err = c.Classify(intercom.InboundEvent{Topic: intercom.TopicTagCreated, TagName: "VIP"})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeMissingIdentity))
}

func TestResolver_FirstMatchWinsIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	helpdesk := new(MockHelpdesk)
	helpdesk.On("SearchContactsByEmail", mock.Anything, "dup@example.com").Return([]freshdesk.Contact{
		{ID: "1"}, {ID: "2"},
	}, nil)

	r := NewResolver(helpdesk, "", logger.NewZapAdapter(zap.New(core)))
	res, err := r.Resolve(context.Background(), "dup@example.com", "Dup")

	require.NoError(t, err)
	assert.Equal(t, freshdesk.ID("1"), res.Contact.ID)
	assert.False(t, res.Created)

	entries := logs.FilterMessage("Multiple contacts share an email, using the first").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["matches"])
	assert.Equal(t, string(FirstMatchWins), entries[0].ContextMap()["policy"])
}

func TestResolver_CreateFailureCarriesUpstreamDiagnostics(t *testing.T) {
	helpdesk := new(MockHelpdesk)
	helpdesk.On("SearchContactsByEmail", mock.Anything, "x@example.com").Return(nil, nil)
	helpdesk.On("CreateContact", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewUpstreamError("create contact", http.StatusConflict, `{"errors":[{"field":"email"}]}`))

	r := NewResolver(helpdesk, FirstMatchWins, logger.NewNoOpLogger())
	_, err := r.Resolve(context.Background(), "x@example.com", "")

	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeResolutionFailed, stdErr.Code)
	assert.Equal(t, http.StatusConflict, stdErr.Metadata["status"])
	assert.Equal(t, `{"errors":[{"field":"email"}]}`, stdErr.Metadata["body"])
}

func TestResolver_TransportFailure(t *testing.T) {
	helpdesk := new(MockHelpdesk)
	helpdesk.On("SearchContactsByEmail", mock.Anything, "x@example.com").
		Return(nil, apperrors.NewTransportError(http.MethodGet, "/contacts", errors.New("dial tcp: refused")))

	r := NewResolver(helpdesk, FirstMatchWins, logger.NewNoOpLogger())
	_, err := r.Resolve(context.Background(), "x@example.com", "")

	stdErr, ok := apperrors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeResolutionFailed, stdErr.Code)
	assert.Equal(t, 0, stdErr.Metadata["status"])
	helpdesk.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
}

func TestTicketUpdater_SecondOfThreeFails(t *testing.T) {
	helpdesk := new(MockHelpdesk)
	helpdesk.On("ListTicketsByRequester", mock.Anything, freshdesk.ID("7")).Return([]freshdesk.Ticket{
		{ID: "100"}, {ID: "200"}, {ID: "300"},
	}, nil)
	want := freshdesk.UpdateTicketRequest{Tags: freshdesk.TagList{vip.Marker}, Priority: freshdesk.PriorityHigh}
	helpdesk.On("UpdateTicket", mock.Anything, freshdesk.ID("100"), want).Return(nil)
	helpdesk.On("UpdateTicket", mock.Anything, freshdesk.ID("200"), want).
		Return(apperrors.NewTransportError(http.MethodPut, "/tickets/200", errors.New("timeout")))
	helpdesk.On("UpdateTicket", mock.Anything, freshdesk.ID("300"), want).Return(nil)

	u := NewTicketUpdater(helpdesk, freshdesk.PriorityHigh, "", logger.NewNoOpLogger())
	result := u.UpdateAll(context.Background(), "7")

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Succeeded)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, freshdesk.ID("200"), result.Failures[0].TicketID)
	assert.Equal(t, string(apperrors.ErrCodeTransportError), result.Failures[0].Code)
	assert.True(t, result.Failed())
	helpdesk.AssertExpectations(t)
}

func TestTicketUpdater_NoTickets(t *testing.T) {
	helpdesk := new(MockHelpdesk)
	helpdesk.On("ListTicketsByRequester", mock.Anything, freshdesk.ID("7")).Return([]freshdesk.Ticket{}, nil)

	result := NewTicketUpdater(helpdesk, 2, "", logger.NewNoOpLogger()).UpdateAll(context.Background(), "7")

	assert.Equal(t, 0, result.Attempted)
	assert.False(t, result.Failed())
	assert.NotNil(t, result.Failures)
}
