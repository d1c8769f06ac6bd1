package intercom

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vip-relay/internal/common/errors"
)

func sign(secret, body string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifier_Verify(t *testing.T) {
	body := `{"topic":"contact.user.tag.created"}`
	good := sign("s3cret", body)

	tests := []struct {
		name      string
		secret    string
		body      string
		signature string
		want      bool
	}{
		{name: "bare hex", secret: "s3cret", body: body, signature: good, want: true},
		{name: "sha1 prefix", secret: "s3cret", body: body, signature: "sha1=" + good, want: true},
		{name: "wrong secret", secret: "other", body: body, signature: good, want: false},
		{name: "tampered body", secret: "s3cret", body: body + " ", signature: good, want: false},
		{name: "not hex", secret: "s3cret", body: body, signature: "sha1=zz", want: false},
		{name: "truncated", secret: "s3cret", body: body, signature: good[:10], want: false},
		{name: "empty secret", secret: "", body: body, signature: sign("", body), want: false},
		{name: "empty signature", secret: "s3cret", body: body, signature: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewVerifier(tt.secret).Verify([]byte(tt.body), tt.signature))
		})
	}
}

func TestVerifier_Authenticate(t *testing.T) {
	v := NewVerifier("s3cret")
	body := []byte(`{}`)

	err := v.Authenticate(body, "", false)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnsignedTestEvent))

	err = v.Authenticate(body, "", true)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAuthenticationFailed))

	err = v.Authenticate(body, "sha1=deadbeef", true)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAuthenticationFailed))

	assert.NoError(t, v.Authenticate(body, v.Sign(body), true))
}

func TestDecodeEvent(t *testing.T) {
	event, err := DecodeEvent([]byte(`{
		"topic": "contact.user.tag.created",
		"data": {"item": {
			"tag": {"name": "⭐⭐VIP ⭐⭐"},
			"contact": {"email": " jane@example.com ", "name": "Jane"}
		}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, InboundEvent{
		Topic:        TopicTagCreated,
		TagName:      "⭐⭐VIP ⭐⭐",
		ContactEmail: "jane@example.com",
		ContactName:  "Jane",
	}, event)

	event, err = DecodeEvent([]byte(`{"topic": "ping"}`))
	require.NoError(t, err)
	assert.Equal(t, "ping", event.Topic)
	assert.Empty(t, event.ContactEmail)

	_, err = DecodeEvent([]byte(`[1,2]`))
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidPayload))
}
