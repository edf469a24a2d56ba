// Package signal turns free text into typed signals for the stages.
//
// Intent detection is expressed as ordered rule tables, one per decision
// point, each rule pairing a pattern with the intent it signals and a
// priority. Field extraction (amounts, one-time codes, identity tokens,
// addresses, offer selections, customer ids) lives next to the tables so
// every pattern the stages depend on can be tested in isolation.
package signal
