package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublishAPI struct{ mock.Mock }

func (m *mockPublishAPI) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSendEmail_PublishesWithRecipient(t *testing.T) {
	api := &mockPublishAPI{}
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		rcpt := in.MessageAttributes[RecipientAttribute]
		return *in.TopicArn == "arn:topic" && *in.Subject == "Email Verification OTP" &&
			*in.Message == "<h1>1234</h1>" && *rcpt.StringValue == "a@x.com"
	})).Return(&sns.PublishOutput{}, nil)

	p := &Publisher{client: api, topicARN: "arn:topic"}
	require.NoError(t, p.SendEmail(context.Background(), "a@x.com", "Email Verification OTP", "<h1>1234</h1>"))
	api.AssertExpectations(t)
}

func TestSendEmail_PublishError(t *testing.T) {
	api := &mockPublishAPI{}
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	p := &Publisher{client: api, topicARN: "arn:topic"}
	assert.ErrorContains(t, p.SendEmail(context.Background(), "a@x.com", "s", "b"), "publish email: throttled")
}
