// Package service orchestrates the core components — book, journal,
// outbox, sequencer — behind a single write entry point.
//
// The book itself is single-writer by contract; BookService is the
// exclusion discipline around it. Every tape event takes the same path:
// journal append, domain apply, execution-print staging, best-effort
// depth publish. Queries share the same lock, so readers always observe
// the state between two completed events.
package service
