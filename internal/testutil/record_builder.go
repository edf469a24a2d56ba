package testutil

import (
	"time"

	"github.com/hupe1980/loanmesh/core"
)

// RecordBuilder provides a fluent helper for constructing records in tests.
// Example:
//
//	rec := NewRecordBuilder("sess-1").Customer("CUST001", "Rahul").Assistant("hi").User("3 lakh").Build()
type RecordBuilder struct {
	rec *core.Record
}

// NewRecordBuilder creates a builder for a fresh record with the given id.
func NewRecordBuilder(id string) *RecordBuilder {
	return &RecordBuilder{rec: core.NewRecord(id, time.Now())}
}

// Stage sets the stage cursor (chainable).
func (b *RecordBuilder) Stage(s core.Stage) *RecordBuilder { b.rec.Stage = s; return b }

// Customer sets the customer id and name (chainable).
func (b *RecordBuilder) Customer(id, name string) *RecordBuilder {
	b.rec.Customer.ID = id
	b.rec.Customer.Name = name
	return b
}

// Amount sets the requested amount (chainable).
func (b *RecordBuilder) Amount(v float64) *RecordBuilder { b.rec.Loan.RequestedAmount = v; return b }

// Offers sets the presented offers (chainable).
func (b *RecordBuilder) Offers(offers ...core.Offer) *RecordBuilder {
	b.rec.Sales.Offers = offers
	return b
}

// User appends a user message (chainable).
func (b *RecordBuilder) User(text string) *RecordBuilder {
	b.rec.AppendMessage(core.RoleUser, text, "")
	return b
}

// Assistant appends an assistant message from the orchestrator (chainable).
func (b *RecordBuilder) Assistant(text string) *RecordBuilder {
	b.rec.AppendMessage(core.RoleAssistant, text, core.AgentOrchestrator)
	return b
}

// Verification overwrites the verification sub-record (chainable).
func (b *RecordBuilder) Verification(v core.Verification) *RecordBuilder {
	b.rec.Verification = v
	return b
}

// Decision sets the underwriting decision (chainable).
func (b *RecordBuilder) Decision(d core.Decision) *RecordBuilder {
	b.rec.Underwriting.Decision = d
	return b
}

// With applies an arbitrary mutation (chainable).
func (b *RecordBuilder) With(fn func(rec *core.Record)) *RecordBuilder {
	fn(b.rec)
	return b
}

// Build returns a copy of the record under construction.
func (b *RecordBuilder) Build() *core.Record { return b.rec.Clone() }
