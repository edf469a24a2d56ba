// Package flow drives one conversation cycle: the orchestrator runs first,
// then Route decides after every stage whether another stage runs or the
// cycle ends and the system waits for the next inbound message.
package flow
