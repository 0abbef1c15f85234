// Package schema defines the configuration contract for every node kind.
//
// Each kind has a fixed field specification. Validate checks a raw
// configuration map against that specification and reports the first
// missing or mistyped field. Validation is a pure function of the
// registry contents: no side effects, no I/O.
//
// The registry is read-mostly. Mutation (registering a new kind at
// deploy time) swaps a copy-on-write snapshot, so concurrent readers
// never observe a half-written field specification.
package schema
