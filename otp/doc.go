// Package otp provides one-time code delivery for phone verification.
//
// Twilio implements core.CodeProvider on top of Twilio Verify; when its
// credentials are missing it reports core.ErrProviderUnavailable so callers
// fall back to a locally generated code (GenerateCode). Throttle wraps any
// provider with a per-phone resend limit.
package otp
