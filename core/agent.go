package core

import "context"

// Agent is the contract every processing stage implements.
//
// Run receives the full current record and returns a new record. The input
// record must be treated as read-only: implementations clone it, mutate only
// the fields they own and return the clone. Contract:
//   - At most one conversational message is appended per Run
//   - Missing information never fails a stage; it produces a clarifying message
//     and leaves the stage cursor unchanged
//   - Collaborator failures are recorded via Record.RecordError and the stage
//     still returns a consistent record
//   - All external effects go through the collaborator interfaces
type Agent interface {
	Name() AgentName
	Description() string
	Run(ctx context.Context, rec *Record) *Record
}

// AgentName identifies a stage in the routing graph.
type AgentName string

const (
	AgentOrchestrator AgentName = "orchestrator"
	AgentSales        AgentName = "sales"
	AgentVerification AgentName = "verification"
	AgentUnderwriting AgentName = "underwriting"
	AgentSanction     AgentName = "sanction"
)

// String implements fmt.Stringer.
func (n AgentName) String() string { return string(n) }

// Action is a directive a stage leaves for the router. It is consumed exactly
// once and then cleared.
type Action string

const (
	ActionNone                 Action = ""
	ActionDelegateSales        Action = "delegate_to_sales"
	ActionDelegateVerification Action = "delegate_to_verification"
	ActionDelegateUnderwriting Action = "delegate_to_underwriting"
	ActionDelegateSanction     Action = "delegate_to_sanction"
)

// Target returns the specialist an action delegates to. ok is false for
// ActionNone and for values outside the enumeration.
func (a Action) Target() (name AgentName, ok bool) {
	switch a {
	case ActionDelegateSales:
		return AgentSales, true
	case ActionDelegateVerification:
		return AgentVerification, true
	case ActionDelegateUnderwriting:
		return AgentUnderwriting, true
	case ActionDelegateSanction:
		return AgentSanction, true
	case ActionNone:
		return "", false
	default:
		return "", false
	}
}

// DelegateTo returns the action handing control to the named specialist.
func DelegateTo(name AgentName) Action {
	switch name {
	case AgentSales:
		return ActionDelegateSales
	case AgentVerification:
		return ActionDelegateVerification
	case AgentUnderwriting:
		return ActionDelegateUnderwriting
	case AgentSanction:
		return ActionDelegateSanction
	default:
		return ActionNone
	}
}
