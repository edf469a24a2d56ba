package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
)

// ErrNoOrchestrator is returned by New when no orchestrator stage is given.
var ErrNoOrchestrator = errors.New("flow: orchestrator stage is required")

const hopLimitMessage = "Sorry, I got a bit lost handling that. Could you please rephrase?"

// Hooks observe stage executions. All hooks are optional. AfterAgent
// receives both the record handed to the stage and the one it returned.
type Hooks struct {
	BeforeAgent func(ctx context.Context, name core.AgentName, rec *core.Record)
	AfterAgent  func(ctx context.Context, name core.AgentName, in, out *core.Record, elapsed time.Duration)
}

// Options configures a Flow.
type Options struct {
	// MaxHops bounds stage executions per cycle.
	MaxHops int
	Hooks   Hooks
	Logger  logging.Logger
}

// Flow runs cycles over a fixed set of stages.
type Flow struct {
	agents  map[core.AgentName]core.Agent
	maxHops int
	hooks   Hooks
	logger  logging.Logger
}

// New creates a flow over agents. Names must be unique and one of them must
// be the orchestrator.
func New(agents []core.Agent, optFns ...func(o *Options)) (*Flow, error) {
	opts := Options{
		MaxHops: 6,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxHops < 1 {
		return nil, fmt.Errorf("flow: max hops must be positive, got %d", opts.MaxHops)
	}

	registry := make(map[core.AgentName]core.Agent, len(agents))
	for _, a := range agents {
		if _, dup := registry[a.Name()]; dup {
			return nil, fmt.Errorf("flow: duplicate stage %q", a.Name())
		}
		registry[a.Name()] = a
	}
	if _, ok := registry[core.AgentOrchestrator]; !ok {
		return nil, ErrNoOrchestrator
	}

	return &Flow{
		agents:  registry,
		maxHops: opts.MaxHops,
		hooks:   opts.Hooks,
		logger:  opts.Logger,
	}, nil
}

// Result describes one completed cycle.
type Result struct {
	Record *core.Record
	// Hops lists the stages executed, in order.
	Hops []core.AgentName
	// Rule is the rule that ended the cycle.
	Rule Rule
}

// Run executes one cycle for the inbound message already appended to rec.
// rec is not modified.
func (f *Flow) Run(ctx context.Context, rec *core.Record) Result {
	current := rec
	next := core.AgentOrchestrator
	var hops []core.AgentName

	for {
		if len(hops) >= f.maxHops {
			f.logger.Warn("hop limit reached", "session_id", rec.SessionID, "hops", hops)
			current = f.abort(current, fmt.Errorf("hop limit %d reached", f.maxHops))
			return Result{Record: current, Hops: hops, Rule: RuleHopLimit}
		}

		agent, ok := f.agents[next]
		if !ok {
			f.logger.Error("unknown stage", "session_id", rec.SessionID, "stage", next)
			current = f.abort(current, fmt.Errorf("no stage registered for %q", next))
			return Result{Record: current, Hops: hops, Rule: RuleInvalidAction}
		}

		before := current
		current = f.runAgent(ctx, agent, current)
		hops = append(hops, next)

		// A failed specialist leaves the cursor where the cycle found it,
		// so the next message routes to the same hand-off again.
		if next != core.AgentOrchestrator && current.ErrorCount > before.ErrorCount && current.Stage != rec.Stage {
			f.logger.Info("stage failed, restoring cursor", "session_id", rec.SessionID, "agent", next, "stage", rec.Stage)
			current.Stage = rec.Stage
		}

		d := Route(current)
		f.logger.Debug("route", "session_id", rec.SessionID, "after", next, "rule", d.Rule, "next", d.Next, "stop", d.Stop)

		switch d.Rule {
		case RuleDelegation:
			current.PendingAction = core.ActionNone
		case RuleInvalidAction:
			f.logger.Warn("invalid pending action", "session_id", rec.SessionID, "action", current.PendingAction)
			current = f.abort(current, fmt.Errorf("invalid pending action %q", current.PendingAction))
		}

		if d.Stop {
			return Result{Record: current, Hops: hops, Rule: d.Rule}
		}
		next = d.Next
	}
}

func (f *Flow) runAgent(ctx context.Context, agent core.Agent, rec *core.Record) *core.Record {
	if f.hooks.BeforeAgent != nil {
		f.hooks.BeforeAgent(ctx, agent.Name(), rec)
	}
	start := time.Now()
	out := agent.Run(ctx, rec)
	if f.hooks.AfterAgent != nil {
		f.hooks.AfterAgent(ctx, agent.Name(), rec, out, time.Since(start))
	}
	return out
}

// abort records err and makes sure the inbound message gets a reply.
func (f *Flow) abort(rec *core.Record, err error) *core.Record {
	out := rec.Clone()
	out.PendingAction = core.ActionNone
	out.RecordError(core.AgentOrchestrator, err)
	if last, ok := out.LastMessage(); !ok || last.Role != core.RoleAssistant {
		out.AppendMessage(core.RoleAssistant, hopLimitMessage, core.AgentOrchestrator)
	}
	return out
}
