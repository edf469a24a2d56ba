package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a single entry of the append-only conversation log.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Agent     AgentName `json:"agent,omitempty"`
}

// Customer holds identity and contact fields. Empty strings mean unset.
type Customer struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

// Loan holds the requested and agreed loan terms. Zero values mean unset.
type Loan struct {
	RequestedAmount float64 `json:"requested_amount,omitempty"`
	ApprovedAmount  float64 `json:"approved_amount,omitempty"`
	TenureMonths    int     `json:"tenure_months,omitempty"`
	InterestRate    float64 `json:"interest_rate,omitempty"`
	MonthlyEMI      float64 `json:"monthly_emi,omitempty"`
	CustomerNeeds   string  `json:"customer_needs,omitempty"`
}

// Offer is a candidate loan offer presented by the sales stage.
type Offer struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	TenureMonths  int     `json:"tenure_months"`
	InterestRate  float64 `json:"interest_rate"`
	MonthlyEMI    float64 `json:"monthly_emi"`
	ProcessingFee float64 `json:"processing_fee"`
	TotalInterest float64 `json:"total_interest"`
	TotalPayable  float64 `json:"total_payable"`
	Recommended   bool    `json:"recommended,omitempty"`
	ConcessionBps int     `json:"concession_bps,omitempty"`
}

// NegotiationEntry records one negotiation request and its outcome.
type NegotiationEntry struct {
	At            time.Time `json:"at"`
	OfferID       string    `json:"offer_id"`
	Request       string    `json:"request"`
	RequestedRate float64   `json:"requested_rate,omitempty"`
	Granted       bool      `json:"granted"`
	PreviousRate  float64   `json:"previous_rate"`
	NewRate       float64   `json:"new_rate"`
}

// Sales holds sales artifacts.
type Sales struct {
	Offers         []Offer            `json:"offers,omitempty"`
	SelectedOffer  *Offer             `json:"selected_offer,omitempty"`
	NegotiationLog []NegotiationEntry `json:"negotiation_log,omitempty"`
}

// Mismatch describes one field that did not match the customer file.
type Mismatch struct {
	Field    string `json:"field"`
	Provided string `json:"provided"`
	OnFile   string `json:"on_file"`
}

// Verification holds identity fields captured incrementally plus the
// one-time-code bookkeeping. OTPCode is only set when the code was generated
// locally; it stays empty while an external provider owns the code.
type Verification struct {
	Started         bool       `json:"started,omitempty"`
	PAN             string     `json:"pan,omitempty"`
	AadhaarLast4    string     `json:"aadhaar_last4,omitempty"`
	DOB             string     `json:"dob,omitempty"`
	Email           string     `json:"email,omitempty"`
	AltPhone        string     `json:"alt_phone,omitempty"`
	KYCVerified     bool       `json:"kyc_verified"`
	PhoneVerified   bool       `json:"phone_verified"`
	AddressVerified bool       `json:"address_verified"`
	Mismatches      []Mismatch `json:"mismatches,omitempty"`
	OTPPhone        string     `json:"otp_phone,omitempty"`
	OTPSent         bool       `json:"otp_sent"`
	OTPAttempts     int        `json:"otp_attempts"`
	OTPProvider     string     `json:"otp_provider,omitempty"`
	OTPCode         string     `json:"otp_code,omitempty"`
	OTPResendCount  int        `json:"otp_resend_count"`
}

// HasSignal reports whether any verification progress exists on the record.
func (v Verification) HasSignal() bool {
	return v.PAN != "" || v.DOB != "" || v.Email != "" ||
		v.PhoneVerified || v.AddressVerified || v.OTPSent
}

// Documents holds uploaded document references.
type Documents struct {
	SalarySlipUploaded bool    `json:"salary_slip_uploaded"`
	SalarySlipURL      string  `json:"salary_slip_url,omitempty"`
	MonthlySalary      float64 `json:"monthly_salary,omitempty"`
	IDFrontURL         string  `json:"id_front_url,omitempty"`
	IDBackURL          string  `json:"id_back_url,omitempty"`
}

// Underwriting holds the mapped assessment output.
type Underwriting struct {
	Decision        Decision `json:"decision"`
	CreditScore     int      `json:"credit_score,omitempty"`
	RiskScore       float64  `json:"risk_score,omitempty"`
	EMIToIncome     float64  `json:"emi_to_income,omitempty"`
	Conditions      []string `json:"conditions,omitempty"`
	Reasons         []string `json:"reasons,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Sanction holds the final artifacts.
type Sanction struct {
	ReferenceNumber string     `json:"reference_number,omitempty"`
	LetterURL       string     `json:"letter_url,omitempty"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
}

// Record is the per-session application state.
//
// A record is treated as an immutable value per processing step: stages call
// Clone, mutate the clone and hand it back. Reading an unset field yields its
// zero value, which is the documented default for every field.
type Record struct {
	SessionID         string    `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	TotalInteractions int       `json:"total_interactions"`

	Messages []Message `json:"messages"`

	Stage         Stage     `json:"stage"`
	ActiveAgent   AgentName `json:"active_agent,omitempty"`
	PendingAction Action    `json:"pending_action,omitempty"`

	Customer     Customer     `json:"customer"`
	Loan         Loan         `json:"loan"`
	Sales        Sales        `json:"sales"`
	Verification Verification `json:"verification"`
	Documents    Documents    `json:"documents"`
	Underwriting Underwriting `json:"underwriting"`
	Sanction     Sanction     `json:"sanction"`

	Status     Status `json:"status"`
	LastError  string `json:"last_error,omitempty"`
	ErrorCount int    `json:"error_count"`
}

// NewRecord creates a record in its initial state.
func NewRecord(sessionID string, now time.Time) *Record {
	return &Record{
		SessionID:    sessionID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Messages:     []Message{},
		Stage:        StageEntry,
		ActiveAgent:  AgentOrchestrator,
		Underwriting: Underwriting{Decision: DecisionPending},
		Status:       StatusInProgress,
	}
}

// Clone returns a deep copy safe for independent mutation.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Messages = append([]Message{}, r.Messages...)
	c.Sales.Offers = cloneSlice(r.Sales.Offers)
	c.Sales.NegotiationLog = cloneSlice(r.Sales.NegotiationLog)
	if r.Sales.SelectedOffer != nil {
		o := *r.Sales.SelectedOffer
		c.Sales.SelectedOffer = &o
	}
	c.Verification.Mismatches = cloneSlice(r.Verification.Mismatches)
	c.Underwriting.Conditions = cloneSlice(r.Underwriting.Conditions)
	c.Underwriting.Reasons = cloneSlice(r.Underwriting.Reasons)
	c.Underwriting.Recommendations = cloneSlice(r.Underwriting.Recommendations)
	if r.Sanction.GeneratedAt != nil {
		t := *r.Sanction.GeneratedAt
		c.Sanction.GeneratedAt = &t
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// AppendMessage appends one entry to the conversation log and advances
// UpdatedAt.
func (r *Record) AppendMessage(role Role, content string, agent AgentName) Message {
	now := time.Now()
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now,
		Agent:     agent,
	}
	r.Messages = append(r.Messages, msg)
	r.Touch(now)
	return msg
}

// Touch advances UpdatedAt to now. UpdatedAt never moves backwards.
func (r *Record) Touch(now time.Time) {
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
}

// LastMessage returns the most recent log entry.
func (r *Record) LastMessage() (Message, bool) {
	if len(r.Messages) == 0 {
		return Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// LastUserText returns the content of the most recent user message or "".
func (r *Record) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantText returns the content of the most recent assistant message or "".
func (r *Record) LastAssistantText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleAssistant {
			return r.Messages[i].Content
		}
	}
	return ""
}

// HasAssistantMessage reports whether any assistant entry exists in the log.
func (r *Record) HasAssistantMessage() bool {
	for _, m := range r.Messages {
		if m.Role == RoleAssistant {
			return true
		}
	}
	return false
}

// CountRole returns the number of log entries authored by role.
func (r *Record) CountRole(role Role) int {
	n := 0
	for _, m := range r.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// RecordError stores a collaborator failure on the record.
func (r *Record) RecordError(source AgentName, err error) {
	if err == nil {
		return
	}
	r.LastError = fmt.Sprintf("%s: %v", source, err)
	r.ErrorCount++
	r.Touch(time.Now())
}

// KnownAmount returns the requested amount when it has been captured.
func (r *Record) KnownAmount() (float64, bool) {
	return r.Loan.RequestedAmount, r.Loan.RequestedAmount > 0
}
