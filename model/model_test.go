package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loanmesh/core"
)

func prompt() core.Prompt {
	return core.Prompt{
		Instructions: "You are a loan assistant.",
		History: []core.Message{
			{Role: core.RoleAssistant, Content: "Hello!"},
			{Role: core.RoleSystem, Content: "ignored"},
			{Role: core.RoleUser, Content: "I want a loan"},
		},
		Input: "I want a loan",
		Draft: "How much would you like to borrow?",
	}
}

func TestResponder_Respond(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("I want a loan", "  Sure! How much do you need?  ")
	r := NewResponder(m)

	text, err := r.Respond(context.Background(), prompt())
	require.NoError(t, err)
	assert.Equal(t, "Sure! How much do you need?", text)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []Message{
		{Role: RoleAssistant, Content: "Hello!"},
		{Role: RoleUser, Content: "I want a loan"},
	}, reqs[0].Messages)
	assert.Contains(t, reqs[0].Instructions, "You are a loan assistant.")
	assert.Contains(t, reqs[0].Instructions, "How much would you like to borrow?")
	assert.Equal(t, "mock", r.Info().Provider)
}

func TestResponder_AppendsInput(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	r := NewResponder(m)

	p := prompt()
	p.History = p.History[:1]
	text, err := r.Respond(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: I want a loan", text)
	assert.Len(t, m.Requests()[0].Messages, 2)
}

func TestResponder_Streaming(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("I want a loan", "streamed")
	r := NewResponder(m, func(o *ResponderOptions) { o.Stream = true })

	text, err := r.Respond(context.Background(), prompt())
	require.NoError(t, err)
	assert.Equal(t, "streamed", text)
	assert.True(t, m.Requests()[0].Stream)
}

func TestResponder_Error(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.FailWith(errors.New("quota exceeded"))

	_, err := NewResponder(m).Respond(context.Background(), prompt())
	assert.EqualError(t, err, "quota exceeded")
}

func TestDraftResponder(t *testing.T) {
	text, err := DraftResponder{}.Respond(context.Background(), prompt())
	require.NoError(t, err)
	assert.Equal(t, "How much would you like to borrow?", text)
}
