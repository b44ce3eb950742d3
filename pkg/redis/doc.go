// Package redis provides Redis connection helpers with startup retries and a
// readiness probe, used by the processed-event dedup marker.
package redis
