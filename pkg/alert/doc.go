// Package alert surfaces billing anomalies to operators. Mis-tiering a
// paying customer is a correctness bug, not just a log line, so the
// reconciler routes such conditions here: to the structured log by default,
// or to an operator inbox via Postmark when configured.
package alert
