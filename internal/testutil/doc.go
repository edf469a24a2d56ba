// Package testutil contains builders and stub collaborators used across tests
// to reduce boilerplate when constructing records and wiring stages. They are
// not intended for production usage.
package testutil
