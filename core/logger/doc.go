// Package logger is a structured event log of what the shell executed.
//
// Events are written as newline delimited JSON so a session can be inspected
// after the fact with `gsh events report`.
package logger
