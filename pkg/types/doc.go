// Package types defines the public, read-only model of a WinHelp .HLP file:
// the Session and iterator interfaces, the parsed topic record, typed errors
// and the diagnostics report.
//
// The package holds only types. internal/reader implements Session and
// pkg/hlp is the entry point most callers want.
//
// Design goals:
//   - Never panic on malformed input; every failure is an *Error with a
//     stable Kind.
//   - Damage stays local: a bad topic record yields a *TopicError and the
//     walk continues.
//   - Text is returned as raw bytes in the file's code page; DecodeText
//     converts when the caller wants UTF-8.
package types
