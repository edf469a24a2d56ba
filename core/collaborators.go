package core

import "context"

// Prompt is the input handed to a Responder.
type Prompt struct {
	// Instructions carries the stage-specific system guidance.
	Instructions string
	// History is the conversation so far, oldest first.
	History []Message
	// Input is the latest user text.
	Input string
	// Draft is a deterministic reply the responder may rephrase. Responders
	// without a language model return it verbatim.
	Draft string
}

// Responder generates conversational text. Implementations must return within
// bounded time; a returned error is recorded and the cycle degrades past it.
type Responder interface {
	Respond(ctx context.Context, p Prompt) (string, error)
}

// AmountExtractor parses a monetary amount out of free text.
type AmountExtractor interface {
	ExtractAmount(text string) (float64, bool)
}

// CustomerProfile is the customer file held by a directory.
type CustomerProfile struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"name" yaml:"name"`
	Phone            string  `json:"phone" yaml:"phone"`
	Email            string  `json:"email" yaml:"email"`
	Address          string  `json:"address" yaml:"address"`
	City             string  `json:"city" yaml:"city"`
	Pincode          string  `json:"pincode" yaml:"pincode"`
	DOB              string  `json:"dob" yaml:"dob"`
	PAN              string  `json:"pan" yaml:"pan"`
	KYCStatus        string  `json:"kyc_status" yaml:"kyc_status"`
	CreditScore      int     `json:"credit_score" yaml:"credit_score"`
	PreApprovedLimit float64 `json:"pre_approved_limit" yaml:"pre_approved_limit"`
	MonthlySalary    float64 `json:"monthly_salary" yaml:"monthly_salary"`
	ExistingEMI      float64 `json:"existing_emi" yaml:"existing_emi"`
}

// AddressCheck is the result of an address verification.
type AddressCheck struct {
	Verified   bool
	Mismatches []Mismatch
}

// CustomerDirectory looks up customer files. LookupCustomer returns
// ErrCustomerNotFound for unknown ids.
type CustomerDirectory interface {
	LookupCustomer(ctx context.Context, id string) (*CustomerProfile, error)
	VerifyAddress(ctx context.Context, id, text string) (AddressCheck, error)
}

// CodeDelivery is the result of a code send request.
type CodeDelivery struct {
	OK       bool
	Provider string
	Status   string
}

// CodeCheck is the result of a code check request.
type CodeCheck struct {
	OK       bool
	Verified bool
	Status   string
}

// CodeProvider delivers and checks one-time codes through an external
// service. SendCode returns ErrProviderUnavailable when the service is not
// configured so callers can fall back to a local code.
type CodeProvider interface {
	SendCode(ctx context.Context, phone string) (CodeDelivery, error)
	CheckCode(ctx context.Context, phone, code string) (CodeCheck, error)
}

// Assessment is the output of a credit assessment.
type Assessment struct {
	Decision        Decision
	CreditScore     int
	RiskScore       float64
	ApprovedAmount  float64
	MonthlyEMI      float64
	EMIToIncome     float64
	Conditions      []string
	Recommendations []string
	Reasons         []string
}

// Assessor scores an application.
type Assessor interface {
	Assess(ctx context.Context, rec *Record) (Assessment, error)
}

// SanctionLetter is the output of sanction letter generation.
type SanctionLetter struct {
	OK              bool
	Locator         string
	ReferenceNumber string
}

// SanctionGenerator produces the sanction letter document.
type SanctionGenerator interface {
	GenerateSanction(ctx context.Context, rec *Record) (SanctionLetter, error)
}
