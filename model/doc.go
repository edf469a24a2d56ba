// Package model defines the provider-agnostic abstractions for talking to
// language models and the bridge that lets the orchestrator use one as its
// core.Responder.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel, DraftResponder)
//
// Providers (OpenAI, Anthropic, Gemini) implement Model in sub-packages;
// package provider picks one from configuration and the environment.
package model
