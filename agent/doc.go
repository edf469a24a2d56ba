// Package agent contains the processing stages of the loan conversation:
//
//  1. Orchestrator: first contact for every inbound message, owns the stage
//     cursor and decides whether to reply or delegate
//  2. Sales: offer quoting, selection and rate negotiation
//  3. Verification: one-time code, address and identity checks
//  4. Underwriting: maps the credit assessment onto the record
//  5. Sanction: letter generation and closure
//
// Every stage embeds BaseAgent and implements core.Agent. Stages never perform
// I/O directly; they reach text generation, customer lookup, code delivery,
// assessment and document generation through the collaborator interfaces in
// package core, and they degrade to an apology message when one fails.
package agent
