// Package mongo provides MongoDB connection helpers with startup retries and
// a readiness probe, used when the account store runs on MongoDB.
package mongo
