// Package delivery sends outbound SMS through Twilio.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/chative-sms/relay/internal/relay/model"
	logx "github.com/chative-sms/relay/pkg/logger"
)

// MessageCreator is the slice of the Twilio API the sender needs.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers SMS from a fixed Twilio number.
type TwilioSender struct {
	api  MessageCreator
	from string
}

// NewTwilioSender builds a sender backed by the Twilio REST client.
func NewTwilioSender(cfg model.TwilioConfig) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.PhoneNumber == "" {
		return nil, errors.New("twilio: account sid, auth token and phone number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewSender(client.Api, cfg.PhoneNumber), nil
}

// NewSender wraps an existing MessageCreator.
func NewSender(api MessageCreator, from string) *TwilioSender {
	return &TwilioSender{api: api, from: from}
}

// Send delivers body to the recipient. The Twilio client has no context
// support, so ctx is only checked before the call.
func (s *TwilioSender) Send(ctx context.Context, body, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	ev := logx.Debug().Str("to", logx.MaskSender(to)).Int("chars", len(body))
	if resp != nil && resp.Sid != nil {
		ev = ev.Str("sid", *resp.Sid)
	}
	ev.Msg("sms sent")
	return nil
}
