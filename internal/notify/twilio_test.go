package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap/zaptest"

	"github.com/detailops/engagement-core/pkg/logger"
)

type messageCreatorMock struct {
	mock.Mock
}

func (m *messageCreatorMock) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*twilioApi.ApiV2010Message), args.Error(1)
}

func TestTwilioSender_SendSMS(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	api := new(messageCreatorMock)
	sid := "SM123"
	api.On("CreateMessage", mock.MatchedBy(func(p *twilioApi.CreateMessageParams) bool {
		return p.To != nil && *p.To == "+15550001111" &&
			p.From != nil && *p.From == "+15559998888" &&
			p.Body != nil && *p.Body == "hello"
	})).Return(&twilioApi.ApiV2010Message{Sid: &sid}, nil).Once()

	sender := &TwilioSender{api: api, from: "+15559998888"}
	err := sender.SendSMS(context.Background(), "+15550001111", "hello")

	assert.NoError(t, err)
	api.AssertExpectations(t)
}

func TestTwilioSender_SendSMS_Error(t *testing.T) {
	logger.Log = zaptest.NewLogger(t).Named("test")

	api := new(messageCreatorMock)
	api.On("CreateMessage", mock.Anything).Return(nil, errors.New("401 unauthorized")).Once()

	sender := &TwilioSender{api: api, from: "+15559998888"}
	err := sender.SendSMS(context.Background(), "+15550001111", "hello")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "twilio send failed")
}

func TestNewTwilioSender_MissingCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")

	sender, err := NewTwilioSender("+15559998888")

	assert.Nil(t, sender)
	assert.Error(t, err)
}
