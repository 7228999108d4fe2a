// Package notify holds the concrete delivery transports: Twilio for
// SMS and the internal push gateway for dashboard notifications.
package notify

import (
	"context"
	"fmt"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/detailops/engagement-core/pkg/logger"
)

// messageCreator is the slice of the Twilio REST client we use, kept as
// an interface so tests can stub the API.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender builds a sender from TWILIO_ACCOUNT_SID and
// TWILIO_AUTH_TOKEN. from is the tenant-agnostic sending number.
func NewTwilioSender(from string) (*TwilioSender, error) {
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if accountSID == "" || authToken == "" {
		return nil, fmt.Errorf("twilio account SID and auth token must be provided")
	}
	if from == "" {
		return nil, fmt.Errorf("twilio from number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{api: client.Api, from: from}, nil
}

// SendSMS delivers one message. The Twilio SDK has no context support
// on CreateMessage; the HTTP client timeout bounds the call instead.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	logger.FromContext(ctx).Debug("SMS accepted by Twilio",
		zap.String("to", to),
		zap.String("message_sid", sid),
	)
	return nil
}
