package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/loanmesh/core"
	"github.com/hupe1980/loanmesh/logging"
)

// Sanction delegates letter generation and closes the application on
// success.
type Sanction struct {
	BaseAgent
	generator core.SanctionGenerator
	clock     func() time.Time
}

// NewSanction creates the sanction stage.
func NewSanction(generator core.SanctionGenerator, logger logging.Logger) *Sanction {
	s := &Sanction{
		BaseAgent: NewBaseAgent(core.AgentSanction, logger),
		generator: generator,
		clock:     time.Now,
	}
	s.SetDescription("Generates the sanction letter and closes the application")
	return s
}

// Run implements core.Agent.
func (s *Sanction) Run(ctx context.Context, rec *core.Record) *core.Record {
	next := s.begin(rec)

	letter, err := s.generator.GenerateSanction(ctx, next)
	if err == nil && !letter.OK {
		err = errors.New("sanction letter not generated")
	}
	if err != nil {
		s.fail(next, "generate sanction", err)
		s.reply(next, apologyMessage)
		return next
	}

	now := s.clock()
	next.Sanction.LetterURL = letter.Locator
	next.Sanction.ReferenceNumber = letter.ReferenceNumber
	next.Sanction.GeneratedAt = &now
	next.Stage = core.StageClosure
	s.reply(next, sanctionMessage(letter))
	return next
}
