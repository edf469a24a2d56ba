package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/loanmesh/core"
)

// ErrEmptyResponse is returned when a model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

const draftGuidance = `Suggested reply:
%s

Rephrase the suggested reply naturally in your own words. Keep every amount, rate, reference number and quoted command exactly as written. Do not invent offers, decisions or numbers.`

// Responder adapts a Model to core.Responder. The prompt's draft is passed
// as guidance appended to the instructions.
type Responder struct {
	model  Model
	stream bool
}

var _ core.Responder = (*Responder)(nil)

// NewResponder wraps m.
func NewResponder(m Model, optFns ...func(o *ResponderOptions)) *Responder {
	opts := ResponderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Responder{model: m, stream: opts.Stream}
}

// ResponderOptions configures a Responder.
type ResponderOptions struct {
	// Stream requests incremental generation from the provider.
	Stream bool
}

// Info reports the wrapped model.
func (r *Responder) Info() Info { return r.model.Info() }

// Respond implements core.Responder.
func (r *Responder) Respond(ctx context.Context, p core.Prompt) (string, error) {
	req := Request{
		Instructions: instructions(p),
		Messages:     messages(p),
		Stream:       r.stream,
	}

	respCh, errCh := r.model.Generate(ctx, req)
	var final string
	var partial strings.Builder
	var sawFinal bool
	for resp := range respCh {
		if resp.Partial {
			partial.WriteString(resp.Text)
			continue
		}
		final, sawFinal = resp.Text, true
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	if !sawFinal {
		final = partial.String()
	}
	if strings.TrimSpace(final) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(final), nil
}

func instructions(p core.Prompt) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(p.Instructions); s != "" {
		parts = append(parts, s)
	}
	if d := strings.TrimSpace(p.Draft); d != "" {
		parts = append(parts, fmt.Sprintf(draftGuidance, d))
	}
	return strings.Join(parts, "\n\n")
}

// messages converts history into model turns and makes sure the input is
// the final user turn.
func messages(p core.Prompt) []Message {
	out := make([]Message, 0, len(p.History)+1)
	for _, m := range p.History {
		switch m.Role {
		case core.RoleUser:
			out = append(out, Message{Role: RoleUser, Content: m.Content})
		case core.RoleAssistant:
			out = append(out, Message{Role: RoleAssistant, Content: m.Content})
		}
	}
	if p.Input != "" {
		if n := len(out); n == 0 || out[n-1].Role != RoleUser || out[n-1].Content != p.Input {
			out = append(out, Message{Role: RoleUser, Content: p.Input})
		}
	}
	return out
}

// DraftResponder returns the draft verbatim. It is the responder used when no
// model provider is configured.
type DraftResponder struct{}

var _ core.Responder = DraftResponder{}

// Respond implements core.Responder.
func (DraftResponder) Respond(_ context.Context, p core.Prompt) (string, error) {
	return p.Draft, nil
}
