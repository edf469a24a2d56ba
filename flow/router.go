package flow

import (
	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/signal"
)

// Rule names the router rule that produced a Decision.
type Rule string

// Router rules in evaluation order.
const (
	// RuleDelegation hands control to the stage named by the pending action.
	RuleDelegation Rule = "delegation"
	// RuleInvalidAction stops on a pending action outside the closed set.
	RuleInvalidAction Rule = "invalid_action"
	// RuleVerificationFollowUp re-runs verification for a code request or
	// code entry that is still the most recent entry.
	RuleVerificationFollowUp Rule = "verification_follow_up"
	// RuleClosed stops once the application is closed with a terminal status.
	RuleClosed Rule = "closed"
	// RuleAwaitInput stops once a stage has replied. Every cycle ends here or
	// at RuleClosed.
	RuleAwaitInput Rule = "await_input"
	// RuleReenter hands the record back to the orchestrator.
	RuleReenter Rule = "reenter"
	// RuleHopLimit is reported by Flow when the hop bound cut the cycle short.
	RuleHopLimit Rule = "hop_limit"
)

// Decision is the outcome of Route.
type Decision struct {
	Next core.AgentName
	Stop bool
	Rule Rule
}

// Route decides what happens after a stage ran. It is pure; consuming the
// pending action is left to the caller.
func Route(rec *core.Record) Decision {
	if rec.PendingAction != core.ActionNone {
		target, ok := rec.PendingAction.Target()
		if !ok {
			return Decision{Stop: true, Rule: RuleInvalidAction}
		}
		return Decision{Next: target, Rule: RuleDelegation}
	}

	last, hasLast := rec.LastMessage()

	if rec.Stage == core.StageVerification && hasLast && last.Role == core.RoleUser && verificationCue(last.Content) {
		return Decision{Next: core.AgentVerification, Rule: RuleVerificationFollowUp}
	}

	if rec.Stage == core.StageClosure && rec.Status.Terminal() {
		return Decision{Stop: true, Rule: RuleClosed}
	}

	if hasLast && last.Role == core.RoleAssistant {
		return Decision{Stop: true, Rule: RuleAwaitInput}
	}

	return Decision{Next: core.AgentOrchestrator, Rule: RuleReenter}
}

func verificationCue(text string) bool {
	if signal.VerificationRules.Classify(text) == signal.IntentRequestCode {
		return true
	}
	_, ok := signal.FindCode(text)
	return ok
}
