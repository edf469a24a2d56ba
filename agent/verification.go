package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/otp"
	"github.com/hupe1980/loanmesh/signal"
)

// ProviderLocal marks codes generated and checked on the record.
const ProviderLocal = "demo"

// VerificationOptions configures a Verification instance.
type VerificationOptions struct {
	// Directory resolves the phone on file and verifies addresses. Optional.
	Directory core.CustomerDirectory
	// Codes delivers codes externally. When nil, or when it reports
	// core.ErrProviderUnavailable, a local code is used.
	Codes core.CodeProvider
	// GenerateCode creates local codes.
	GenerateCode func() (string, error)
	// CountryCode is prefixed to bare 10-digit numbers.
	CountryCode string
	// MaxAttempts is the number of wrong codes before lockout.
	MaxAttempts int
	Logger      logging.Logger
}

// Verification runs the KYC sub-flow: explainer, code request, code check,
// address check and identity capture. All checks that apply to the inbound
// message run in the same pass and their outcomes are merged into one reply.
type Verification struct {
	BaseAgent
	directory   core.CustomerDirectory
	codes       core.CodeProvider
	generate    func() (string, error)
	countryCode string
	maxAttempts int
}

// NewVerification creates the verification stage.
func NewVerification(optFns ...func(o *VerificationOptions)) *Verification {
	opts := VerificationOptions{
		GenerateCode: otp.GenerateCode,
		CountryCode:  "+91",
		MaxAttempts:  3,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	v := &Verification{
		BaseAgent:   NewBaseAgent(core.AgentVerification, opts.Logger),
		directory:   opts.Directory,
		codes:       opts.Codes,
		generate:    opts.GenerateCode,
		countryCode: opts.CountryCode,
		maxAttempts: opts.MaxAttempts,
	}
	v.SetDescription("Verifies phone by one-time code, address against the customer file and captures identity details")
	return v
}

// Run implements core.Agent.
func (v *Verification) Run(ctx context.Context, rec *core.Record) *core.Record {
	next := v.begin(rec)
	text := next.LastUserText()
	profile := v.profile(ctx, next)

	if !next.Verification.HasSignal() && !next.Verification.Started {
		next.Verification.Started = true
		v.reply(next, explainerMessage(profile))
		return next
	}

	addr, hasAddr := signal.AddressText(text)
	identity := signal.ExtractIdentity(text)

	// A pincode inside the address is not a code.
	codeText := text
	if hasAddr {
		codeText = strings.Replace(text, addr, " ", 1)
	}

	var notes []string
	switch {
	case signal.VerificationRules.Classify(text) == signal.IntentRequestCode:
		notes = append(notes, v.sendCode(ctx, next, profile))
	default:
		code, ok := signal.FindCode(codeText)
		if ok && (next.Verification.OTPSent || (!hasAddr && identity.Empty())) {
			notes = append(notes, v.checkCode(ctx, next, code))
		}
	}

	if hasAddr {
		notes = append(notes, v.checkAddress(ctx, next, addr))
	}

	if note := v.captureIdentity(next, identity); note != "" {
		notes = append(notes, note)
	}

	if len(notes) == 0 {
		notes = append(notes, verificationStatus(next.Verification))
	} else if next.Verification.PhoneVerified && next.Verification.KYCVerified {
		notes = append(notes, "All verification steps are complete. Say \"continue\" to move to underwriting.")
	}
	v.reply(next, strings.Join(notes, "\n\n"))
	return next
}

func (v *Verification) profile(ctx context.Context, rec *core.Record) *core.CustomerProfile {
	if v.directory == nil || rec.Customer.ID == "" {
		return nil
	}
	p, err := v.directory.LookupCustomer(ctx, rec.Customer.ID)
	if err != nil {
		if !errors.Is(err, core.ErrCustomerNotFound) {
			v.fail(rec, "lookup customer", err)
		}
		return nil
	}
	return p
}

// phone resolves the number codes are sent to: explicit override, phone on
// file, record contact phone, then alternate phone.
func (v *Verification) phone(rec *core.Record, profile *core.CustomerProfile) string {
	candidates := []string{rec.Verification.OTPPhone}
	if profile != nil {
		candidates = append(candidates, profile.Phone)
	}
	candidates = append(candidates, rec.Customer.Phone, rec.Verification.AltPhone)
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return signal.NormalizePhone(c, v.countryCode)
		}
	}
	return ""
}

func (v *Verification) sendCode(ctx context.Context, rec *core.Record, profile *core.CustomerProfile) string {
	ver := &rec.Verification
	phone := v.phone(rec, profile)
	if phone == "" {
		return "I don't have a phone number for you yet. Please share the number you'd like the code sent to."
	}

	resend := ver.OTPSent
	markSent := func(provider, code string) {
		if resend {
			ver.OTPResendCount++
		}
		ver.OTPSent = true
		ver.OTPProvider = provider
		ver.OTPCode = code
		ver.OTPPhone = phone
		ver.OTPAttempts = 0
	}

	if v.codes != nil {
		delivery, err := v.codes.SendCode(ctx, phone)
		switch {
		case err == nil && delivery.OK:
			markSent(delivery.Provider, "")
			return fmt.Sprintf("I've sent a verification code to %s. Please enter it here.", signal.MaskPhone(phone))
		case errors.Is(err, core.ErrCodeThrottled):
			return "A code was requested very recently. Please wait a little before asking for another one."
		case err == nil:
			v.fail(rec, "send code", fmt.Errorf("delivery status %q", delivery.Status))
			return "I couldn't send the code just now. Please type \"send otp\" to try again."
		case !errors.Is(err, core.ErrProviderUnavailable):
			v.fail(rec, "send code", err)
			return "I couldn't send the code just now. Please type \"send otp\" to try again."
		}
	}

	code, err := v.generate()
	if err != nil {
		v.fail(rec, "generate code", err)
		return apologyMessage
	}
	markSent(ProviderLocal, code)
	return fmt.Sprintf("Demo mode: your verification code for %s is %s. Please enter it here.", signal.MaskPhone(phone), code)
}

func (v *Verification) checkCode(ctx context.Context, rec *core.Record, code string) string {
	ver := &rec.Verification
	if !ver.OTPSent {
		return "There's no active code. Please type \"send otp\" to request one."
	}

	var verified bool
	if ver.OTPProvider == ProviderLocal || ver.OTPCode != "" {
		verified = code == ver.OTPCode
	} else {
		if v.codes == nil {
			v.fail(rec, "check code", core.ErrProviderUnavailable)
			return apologyMessage
		}
		res, err := v.codes.CheckCode(ctx, ver.OTPPhone, code)
		if err != nil {
			v.fail(rec, "check code", err)
			return apologyMessage
		}
		verified = res.OK && res.Verified
	}

	if verified {
		ver.PhoneVerified = true
		ver.OTPSent = false
		ver.OTPCode = ""
		ver.OTPAttempts = 0
		return "Phone verification successful."
	}

	ver.OTPAttempts++
	if ver.OTPAttempts >= v.maxAttempts {
		ver.OTPSent = false
		ver.OTPCode = ""
		ver.OTPAttempts = 0
		return "Maximum attempts exceeded. Please type \"send otp\" to request a new code."
	}
	return fmt.Sprintf("That code doesn't match. Attempts remaining: %d.", v.maxAttempts-ver.OTPAttempts)
}

func (v *Verification) checkAddress(ctx context.Context, rec *core.Record, addr string) string {
	if v.directory == nil || rec.Customer.ID == "" {
		return "I can't verify the address without a customer profile on file."
	}
	res, err := v.directory.VerifyAddress(ctx, rec.Customer.ID, addr)
	if err != nil {
		if errors.Is(err, core.ErrCustomerNotFound) {
			return "I can't verify the address without a customer profile on file."
		}
		v.fail(rec, "verify address", err)
		return apologyMessage
	}
	rec.Verification.Mismatches = res.Mismatches
	rec.Verification.AddressVerified = res.Verified
	if res.Verified {
		return "Address verified against our records."
	}
	if len(res.Mismatches) > 0 {
		m := res.Mismatches[0]
		return fmt.Sprintf("The address doesn't match our records: %s provided as %q, on file %q. Please check and try again.",
			m.Field, m.Provided, m.OnFile)
	}
	return "The address doesn't match our records. Please check and try again."
}

func (v *Verification) captureIdentity(rec *core.Record, id signal.Identity) string {
	ver := &rec.Verification
	var captured []string
	if id.PAN != "" {
		ver.PAN = id.PAN
		captured = append(captured, "PAN")
	}
	if id.AadhaarLast4 != "" {
		ver.AadhaarLast4 = id.AadhaarLast4
		captured = append(captured, "Aadhaar last 4")
	}
	if id.DOB != "" {
		ver.DOB = id.DOB
		captured = append(captured, "DOB")
	}
	if id.Email != "" {
		ver.Email = id.Email
		captured = append(captured, "email")
	}
	if id.AltPhone != "" {
		ver.AltPhone = id.AltPhone
		captured = append(captured, "alternate phone")
	}

	var note string
	if len(captured) > 0 {
		note = "Captured: " + strings.Join(captured, ", ") + "."
	}
	if !ver.KYCVerified && ver.PAN != "" && ver.DOB != "" && ver.Email != "" {
		ver.KYCVerified = true
		note = strings.TrimSpace(note + " Identity details verified.")
	}
	return note
}
