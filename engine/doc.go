// Package engine implements the session boundary of loanmesh.
//
// The Manager owns the mapping from session id to application record and
// runs exactly one processing cycle per inbound message. It is the only
// component that talks to the record store; stages only ever see values.
//
// # Responsibilities
//
// Session lifecycle:
//   - CreateSession allocates an id and stores a fresh record, filling the
//     customer contact fields from the directory when a customer id is known
//   - GetSession returns an independent copy of the current record
//   - DiscardSession removes the record, its artifacts and its lock
//
// Message processing:
//   - ProcessMessage appends the inbound text, runs one flow cycle and
//     persists the result before the next message for the same session is
//     accepted
//   - Collaborator failures never surface as Go errors; they are recorded on
//     the record and reported through Result.OK
//
// Out-of-band updates:
//   - AttachDocument stores an uploaded salary slip or identity document
//   - SetOTPPhone overrides the number one-time codes are sent to
//
// # Concurrency Model
//
// Each session has its own mutex. Calls for one session are serialized end
// to end (load, cycle, store) so two cycles never interleave on one record.
// Calls for different sessions run in parallel and share nothing but the
// store, which must be safe for concurrent use.
//
// # Usage
//
//	m, err := engine.New(stages, func(o *engine.Options) {
//	    o.Store = session.NewInMemoryStore()
//	    o.Directory = crm.NewDemoDirectory()
//	})
//	id, _ := m.CreateSession(ctx, "CUST001")
//	res, _ := m.ProcessMessage(ctx, id, "hi")
//	fmt.Println(res.Response)
package engine
