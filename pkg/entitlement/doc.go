// Package entitlement defines the static plan-to-entitlement table: the
// monthly request quota and feature set granted by each subscription tier.
//
// The table is loaded once at startup (built-in defaults, or a YAML file for
// deployments that tune quotas without a rebuild) and treated as immutable.
// Lookups are pure: LimitsFor never fails, resolving unknown plans to the
// free entry so stale account records fail closed.
package entitlement
