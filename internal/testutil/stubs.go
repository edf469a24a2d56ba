package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/loanmesh/core"
)

// Responder echoes the draft unless Text or Err is set. Prompts are recorded.
type Responder struct {
	mu      sync.Mutex
	Text    string
	Err     error
	prompts []core.Prompt
}

var _ core.Responder = (*Responder)(nil)

// Respond implements core.Responder.
func (r *Responder) Respond(_ context.Context, p core.Prompt) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, p)
	if r.Err != nil {
		return "", r.Err
	}
	if r.Text != "" {
		return r.Text, nil
	}
	return p.Draft, nil
}

// Prompts returns the prompts received so far.
func (r *Responder) Prompts() []core.Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Prompt(nil), r.prompts...)
}

// CodeProvider is a scripted core.CodeProvider.
type CodeProvider struct {
	mu          sync.Mutex
	Delivery    core.CodeDelivery
	DeliveryErr error
	// Accept is the code CheckCode reports as verified.
	Accept   string
	CheckErr error
	sent     []string
	checked  []string
}

var _ core.CodeProvider = (*CodeProvider)(nil)

// SendCode implements core.CodeProvider.
func (c *CodeProvider) SendCode(_ context.Context, phone string) (core.CodeDelivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, phone)
	return c.Delivery, c.DeliveryErr
}

// CheckCode implements core.CodeProvider.
func (c *CodeProvider) CheckCode(_ context.Context, _ string, code string) (core.CodeCheck, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checked = append(c.checked, code)
	if c.CheckErr != nil {
		return core.CodeCheck{}, c.CheckErr
	}
	if code == c.Accept {
		return core.CodeCheck{OK: true, Verified: true, Status: "approved"}, nil
	}
	return core.CodeCheck{OK: true, Status: "pending"}, nil
}

// Sent returns the phones codes were sent to.
func (c *CodeProvider) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// Checked returns the codes that were checked.
func (c *CodeProvider) Checked() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.checked...)
}

// Assessor returns a fixed assessment and counts calls.
type Assessor struct {
	mu         sync.Mutex
	Assessment core.Assessment
	Err        error
	calls      int
}

var _ core.Assessor = (*Assessor)(nil)

// Assess implements core.Assessor.
func (a *Assessor) Assess(context.Context, *core.Record) (core.Assessment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.Assessment, a.Err
}

// Calls returns the number of assessments run.
func (a *Assessor) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// SanctionGenerator returns a fixed letter and counts calls.
type SanctionGenerator struct {
	mu     sync.Mutex
	Letter core.SanctionLetter
	Err    error
	calls  int
}

var _ core.SanctionGenerator = (*SanctionGenerator)(nil)

// GenerateSanction implements core.SanctionGenerator.
func (s *SanctionGenerator) GenerateSanction(context.Context, *core.Record) (core.SanctionLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Letter, s.Err
}

// Calls returns the number of letters requested.
func (s *SanctionGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
