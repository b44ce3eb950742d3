// Package requestid propagates a request ID through HTTP middleware,
// context, and structured logs, so one webhook delivery can be traced across
// every log line it produced.
package requestid
