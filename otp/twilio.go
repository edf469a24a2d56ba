package otp

import (
	"context"
	"fmt"
	"os"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/hupe1980/loanmesh/core"
)

// ProviderTwilio is the provider name recorded for Twilio-issued codes.
const ProviderTwilio = "twilio"

// TwilioOptions configures the Twilio Verify provider.
type TwilioOptions struct {
	AccountSID string
	AuthToken  string
	ServiceSID string
	Channel    string
}

// TwilioOptionsFromEnv reads TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and
// TWILIO_VERIFY_SERVICE_SID.
func TwilioOptionsFromEnv() TwilioOptions {
	return TwilioOptions{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		ServiceSID: os.Getenv("TWILIO_VERIFY_SERVICE_SID"),
		Channel:    "sms",
	}
}

// Configured reports whether all credentials are present.
func (o TwilioOptions) Configured() bool {
	return o.AccountSID != "" && o.AuthToken != "" && o.ServiceSID != ""
}

// verifyAPI is the subset of the Twilio Verify v2 service used here.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Twilio delivers and checks codes through Twilio Verify. The code value is
// owned by Twilio and never returned.
type Twilio struct {
	api        verifyAPI
	serviceSID string
	channel    string
}

var _ core.CodeProvider = (*Twilio)(nil)

// NewTwilio creates the provider. An unconfigured provider answers every call
// with core.ErrProviderUnavailable.
func NewTwilio(opts TwilioOptions) *Twilio {
	if opts.Channel == "" {
		opts.Channel = "sms"
	}
	t := &Twilio{serviceSID: opts.ServiceSID, channel: opts.Channel}
	if opts.Configured() {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: opts.AccountSID,
			Password: opts.AuthToken,
		})
		t.api = client.VerifyV2
	}
	return t
}

// SendCode implements core.CodeProvider.
func (t *Twilio) SendCode(ctx context.Context, phone string) (core.CodeDelivery, error) {
	if t.api == nil {
		return core.CodeDelivery{}, core.ErrProviderUnavailable
	}
	if err := ctx.Err(); err != nil {
		return core.CodeDelivery{}, err
	}

	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel(t.channel)

	resp, err := t.api.CreateVerification(t.serviceSID, params)
	if err != nil {
		return core.CodeDelivery{}, fmt.Errorf("twilio create verification: %w", err)
	}
	status := deref(resp.Status)
	return core.CodeDelivery{OK: status == "pending" || status == "approved", Provider: ProviderTwilio, Status: status}, nil
}

// CheckCode implements core.CodeProvider.
func (t *Twilio) CheckCode(ctx context.Context, phone, code string) (core.CodeCheck, error) {
	if t.api == nil {
		return core.CodeCheck{}, core.ErrProviderUnavailable
	}
	if err := ctx.Err(); err != nil {
		return core.CodeCheck{}, err
	}

	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := t.api.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		return core.CodeCheck{}, fmt.Errorf("twilio check verification: %w", err)
	}
	status := deref(resp.Status)
	return core.CodeCheck{OK: true, Verified: status == "approved", Status: status}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
