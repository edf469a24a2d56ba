package core

import "errors"

var (
	// ErrSessionNotFound is returned by the session boundary for unknown ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRecordNotFound is returned by record stores for unknown ids.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists is returned by RecordStore.Create for a taken id.
	ErrRecordExists = errors.New("record already exists")

	// ErrCustomerNotFound is returned by customer directories for unknown ids.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrEmptyMessage is returned when an inbound message has no content.
	ErrEmptyMessage = errors.New("empty message")

	// ErrInvalidDocument is returned for uploads with an unknown kind or no data.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidPhone is returned for phone numbers without enough digits.
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrProviderUnavailable signals that a code delivery provider is not
	// configured. Callers fall back to a locally generated code.
	ErrProviderUnavailable = errors.New("code provider unavailable")

	// ErrCodeThrottled signals that a code was requested too frequently.
	ErrCodeThrottled = errors.New("code request throttled")
)
