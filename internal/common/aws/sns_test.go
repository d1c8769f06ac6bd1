package aws

import (
	"context"
	"errors"
	"strings"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestPublishAlert(t *testing.T) {
	api := new(MockSNS)
	client := &SNSClient{client: api, topicARN: "arn:aws:sns:eu-west-1:123:alerts"}

	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return awssdk.ToString(in.TopicArn) == "arn:aws:sns:eu-west-1:123:alerts" &&
			awssdk.ToString(in.Subject) == "VIP sync failed" &&
			awssdk.ToString(in.Message) == "details"
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("m-1")}, nil)

	id, err := client.PublishAlert(context.Background(), "VIP sync failed", "details")
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	api.AssertExpectations(t)
}

func TestPublishAlert_TruncatesSubject(t *testing.T) {
	api := new(MockSNS)
	client := &SNSClient{client: api, topicARN: "arn"}

	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return len(awssdk.ToString(in.Subject)) == snsMaxSubject
	})).Return(&sns.PublishOutput{}, nil)

	_, err := client.PublishAlert(context.Background(), strings.Repeat("s", 250), "m")
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestPublishAlert_Error(t *testing.T) {
	api := new(MockSNS)
	client := &SNSClient{client: api, topicARN: "arn"}
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := client.PublishAlert(context.Background(), "s", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
