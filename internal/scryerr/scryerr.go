// Package scryerr defines the single tagged error type surfaced at the
// command dispatcher boundary: every failure from parsing through
// execution collapses to one of a small set of kinds with a one-line
// message, so the REPL can print it and keep going.
package scryerr

import "fmt"

// Kind classifies a scry error for callers that need to branch on it
// (the dispatcher does not, today, but tests do).
type Kind string

const (
	KindParse              Kind = "parse"
	KindUnknownIdentifier  Kind = "unknown_identifier"
	KindNoJoin             Kind = "no_join"
	KindAliasConflict      Kind = "alias_conflict"
	KindUnresolvedSchema   Kind = "unresolved_schema"
	KindUnfinishedAliases  Kind = "unfinished_aliases"
	KindDriver             Kind = "driver"
)

// Error is the one error type every scry compiler stage returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Driver wraps a raw error returned by the database driver. The
// driver's own message is surfaced verbatim, per contract.
func Driver(err error) *Error {
	return &Error{Kind: KindDriver, Err: err}
}
