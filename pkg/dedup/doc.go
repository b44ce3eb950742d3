// Package dedup provides a best-effort marker for already-processed billing
// events, backed by redis.
//
// Billing providers deliver webhooks at-least-once, so the same event can
// arrive several times. The reconciler is idempotent on its own; the marker
// exists so redeliveries can be acknowledged without touching the account
// store or the provider API.
//
// Usage:
//
//	client, err := redis.Connect(ctx, redisCfg)
//	if err != nil {
//		return err
//	}
//	marker, err := dedup.NewRedisMarker(client, dedup.Config{TTL: 72 * time.Hour})
//	if err != nil {
//		return err
//	}
//
//	seen, err := marker.Seen(ctx, event.ID())
//	if err == nil && seen {
//		return nil // already applied
//	}
//	// ... process the event ...
//	_ = marker.MarkProcessed(ctx, event.ID())
//
// Errors from the marker must never fail webhook handling. Treat a failed
// Seen as "not seen" and a failed MarkProcessed as a no-op; the worst case is
// one redundant, idempotent reconciliation.
package dedup
