// Package core provides the foundational domain types and interfaces used by
// loanmesh. It defines the core abstractions for:
//
//   - Records (the per-session application state and its conversation log)
//   - Agents (the orchestrator and specialist stages that transform a record)
//   - Collaborators (text generation, customer lookup, code delivery,
//     credit assessment and sanction letter generation)
//   - Pluggable stores for records and artifacts
//
// The package keeps implementation concerns (persistence, routing, concrete
// agents) out of scope, exposing small interfaces so backends and providers
// can be swapped without touching the stage logic.
package core
