package agent

import (
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the record, environment, etc.
type Provider interface {
	Instruction(*core.Record) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.Record) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(rec *core.Record) (string, error) { return f(rec) }

// Instruction represents either a static template or a dynamic provider.
// Static text is rendered as a text/template against the record fields
// exposed by templateData.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.Record) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(rec *core.Record) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(rec)
	}
	return util.RenderTemplate(i.text, templateData(rec))
}

func templateData(rec *core.Record) map[string]any {
	return map[string]any{
		"name":     rec.Customer.Name,
		"customer": rec.Customer.ID,
		"stage":    string(rec.Stage),
		"amount":   rec.Loan.RequestedAmount,
		"tenure":   rec.Loan.TenureMonths,
		"rate":     rec.Loan.InterestRate,
		"decision": string(rec.Underwriting.Decision),
		"status":   string(rec.Status),
	}
}

// DefaultInstructions are the stage guidance templates handed to the
// responder while the orchestrator owns the conversation.
var DefaultInstructions = map[core.Stage]Instruction{
	core.StageEntry: NewInstructionFromText(`You are a friendly personal loan assistant for an Indian NBFC.
Greet {{default "the customer" .name}} and find out whether they need a personal loan and how much.`),
	core.StageNeedsAssessment: NewInstructionFromText(`The customer is interested in a personal loan.
Ask how much they need (in rupees) and what it is for. Keep it short.`),
	core.StageSalesNegotiation: NewInstructionFromText(`Offers for Rs {{.amount}} have been presented.
Help the customer pick an option, answer questions about EMI and tenure, and ask them to say "proceed" when ready.`),
	core.StageVerification: NewInstructionFromText(`The customer is completing KYC.
Remind them to type "send otp" to verify their phone and to share PAN, DOB and email in the format "PAN: ..., DOB: YYYY-MM-DD, email: ...".`),
	core.StageUnderwriting: NewInstructionFromText(`The application is with underwriting. Current decision: {{.decision}}.
Explain the status politely and tell the customer what happens next.`),
	core.StageDocumentUpload: NewInstructionFromText(`The customer must upload a recent salary slip before underwriting can continue.
Ask them to upload it and to send a message once done.`),
	core.StageSanctionGeneration: NewInstructionFromText(`The loan is approved and the sanction letter is being prepared.
Reassure the customer and let them know the letter will follow.`),
	core.StageClosure: NewInstructionFromText(`The application is {{.status}}. Thank {{default "the customer" .name}} and answer any closing questions briefly.`),
}
