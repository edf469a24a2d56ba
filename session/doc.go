// Package session houses implementations of core.RecordStore, the
// persistence behind the session lifecycle. The in-memory store suits tests
// and the demo server; durable backends live in sub-packages (sqlite) so only
// the wiring layer decides which one to instantiate.
package session
