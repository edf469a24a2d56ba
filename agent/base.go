package agent

import (
	"fmt"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
)

// BaseAgent bundles identity and reply helpers shared by every stage. Embed
// it in concrete stages and supply a Run method to satisfy core.Agent.
type BaseAgent struct {
	name        core.AgentName // Stage identifier used for routing
	description string         // Detailed description of the stage's purpose
	logger      logging.Logger
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name core.AgentName, logger logging.Logger) BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
		logger:      logger,
	}
}

// Name returns the stage identifier.
func (b *BaseAgent) Name() core.AgentName { return b.name }

// Description returns a detailed description of this stage's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the stage's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// begin clones the input record and marks this stage as active.
func (b *BaseAgent) begin(rec *core.Record) *core.Record {
	next := rec.Clone()
	next.ActiveAgent = b.name
	return next
}

// reply appends the single outbound message for this run.
func (b *BaseAgent) reply(rec *core.Record, text string) {
	rec.AppendMessage(core.RoleAssistant, text, b.name)
}

// fail records a collaborator failure and logs it.
func (b *BaseAgent) fail(rec *core.Record, op string, err error) {
	rec.RecordError(b.name, fmt.Errorf("%s: %w", op, err))
	b.logger.Warn("collaborator failed", "agent", b.name, "operation", op, "session_id", rec.SessionID, "error", err)
}
