package agent

import (
	"context"
	"strings"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
	"github.com/hupe1980/loanmesh/signal"
)

// OrchestratorOptions configures an Orchestrator instance.
type OrchestratorOptions struct {
	// Amounts parses requested amounts (defaults to signal.AmountParser).
	Amounts core.AmountExtractor
	// Instructions override the per-stage responder guidance.
	Instructions map[core.Stage]Instruction
	// MaxHistoryMessages bounds the history handed to the responder.
	MaxHistoryMessages int
	Logger             logging.Logger
}

// Orchestrator is the first point of contact for every inbound message. It
// owns the stage cursor and either replies itself through the responder or
// delegates to a specialist by leaving a pending action for the router.
//
// When it delegates it appends no message; the specialist's reply is the
// single outbound message of the cycle.
type Orchestrator struct {
	BaseAgent
	responder    core.Responder
	amounts      core.AmountExtractor
	instructions map[core.Stage]Instruction
	maxHistory   int
}

// NewOrchestrator creates the orchestrator stage.
func NewOrchestrator(responder core.Responder, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{
		Amounts:            signal.AmountParser{},
		Instructions:       DefaultInstructions,
		MaxHistoryMessages: 20,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{
		BaseAgent:    NewBaseAgent(core.AgentOrchestrator, opts.Logger),
		responder:    responder,
		amounts:      opts.Amounts,
		instructions: opts.Instructions,
		maxHistory:   opts.MaxHistoryMessages,
	}
	o.SetDescription("Routes each inbound message by stage and keeps the conversation between specialist hand-offs")
	return o
}

// step is the orchestrator's decision for one inbound message.
type step struct {
	action core.Action
	stage  core.Stage
}

// Run implements core.Agent.
func (o *Orchestrator) Run(ctx context.Context, rec *core.Record) *core.Record {
	next := o.begin(rec)

	if !next.HasAssistantMessage() {
		o.reply(next, greetingMessage(next.Customer.Name))
		return next
	}

	last, ok := next.LastMessage()
	if !ok || last.Role != core.RoleUser {
		// Someone already answered this message.
		return next
	}

	s := o.decide(next, last.Content)
	if s.action != core.ActionNone {
		next.Stage = s.stage
		next.PendingAction = s.action
		o.logger.Debug("delegating", "session_id", next.SessionID, "action", s.action, "stage", s.stage)
		return next
	}

	// The draft reflects the stage the conversation moves to.
	prev := next.Stage
	next.Stage = s.stage
	text, err := o.respond(ctx, next, last.Content)
	if err != nil {
		next.Stage = prev
		o.fail(next, "respond", err)
		o.reply(next, apologyMessage)
		return next
	}
	if strings.TrimSpace(text) == "" {
		text = stageDraft(next)
	}
	o.reply(next, text)
	return next
}

// decide applies the per-stage decision table. It may write the parsed
// amount hint onto rec.
func (o *Orchestrator) decide(rec *core.Record, text string) step {
	stay := step{stage: rec.Stage}

	switch rec.Stage {
	case core.StageEntry, core.StageNeedsAssessment:
		if o.amountKnown(rec, text) {
			return step{action: core.ActionDelegateSales, stage: core.StageSalesNegotiation}
		}
		if rec.Stage == core.StageEntry && signal.EntryRules.Classify(text) == signal.IntentLoanInterest {
			return step{stage: core.StageNeedsAssessment}
		}
		return stay

	case core.StageSalesNegotiation:
		switch signal.SalesRules.Classify(text) {
		case signal.IntentAccept:
			return step{action: core.ActionDelegateVerification, stage: core.StageVerification}
		case signal.IntentSelectOffer, signal.IntentNegotiate:
			return step{action: core.ActionDelegateSales, stage: core.StageSalesNegotiation}
		}
		return stay

	case core.StageVerification:
		if signal.VerificationRules.Classify(text) == signal.IntentRequestCode {
			return step{action: core.ActionDelegateVerification, stage: core.StageVerification}
		}
		if _, ok := signal.FindCode(text); ok && rec.Verification.OTPSent {
			return step{action: core.ActionDelegateVerification, stage: core.StageVerification}
		}
		if rec.Verification.KYCVerified && rec.Verification.PhoneVerified {
			return step{action: core.ActionDelegateUnderwriting, stage: core.StageUnderwriting}
		}
		return stay

	case core.StageUnderwriting:
		switch rec.Underwriting.Decision {
		case core.DecisionNeedsDocuments:
			return step{stage: core.StageDocumentUpload}
		case core.DecisionApproved:
			return step{action: core.ActionDelegateSanction, stage: core.StageSanctionGeneration}
		case core.DecisionRejected:
			return step{stage: core.StageClosure}
		}
		return stay

	case core.StageDocumentUpload:
		if rec.Documents.SalarySlipUploaded {
			return step{action: core.ActionDelegateUnderwriting, stage: core.StageUnderwriting}
		}
		return stay

	case core.StageSanctionGeneration:
		if rec.Sanction.LetterURL != "" {
			return step{stage: core.StageClosure}
		}
		return stay

	default:
		return stay
	}
}

// amountKnown reports whether a requested amount is on the record or can be
// parsed from text. An amount already on the record wins; a parsed amount is
// written back as a hint.
func (o *Orchestrator) amountKnown(rec *core.Record, text string) bool {
	if _, ok := rec.KnownAmount(); ok {
		return true
	}
	amount, ok := o.amounts.ExtractAmount(text)
	if !ok {
		return false
	}
	rec.Loan.RequestedAmount = amount
	if rec.Loan.CustomerNeeds == "" {
		rec.Loan.CustomerNeeds = text
	}
	return true
}

func (o *Orchestrator) respond(ctx context.Context, rec *core.Record, input string) (string, error) {
	var instructions string
	if inst, ok := o.instructions[rec.Stage]; ok {
		resolved, err := inst.Resolve(rec)
		if err != nil {
			return "", err
		}
		instructions = resolved
	}

	history := rec.Messages
	if o.maxHistory > 0 && len(history) > o.maxHistory {
		history = history[len(history)-o.maxHistory:]
	}

	return o.responder.Respond(ctx, core.Prompt{
		Instructions: instructions,
		History:      history,
		Input:        input,
		Draft:        stageDraft(rec),
	})
}
