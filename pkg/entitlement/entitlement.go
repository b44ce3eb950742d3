package entitlement

import "slices"

// Plan identifies a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanSimple  Plan = "simple"
	PlanPremium Plan = "premium"
	PlanPro     Plan = "pro"
)

// KnownPlans lists every plan the entitlement table may reference,
// ordered from lowest to highest tier.
var KnownPlans = []Plan{PlanFree, PlanSimple, PlanPremium, PlanPro}

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	return slices.Contains(KnownPlans, p)
}

// Paid reports whether the plan is a purchasable subscription tier.
func (p Plan) Paid() bool {
	return p.Valid() && p != PlanFree
}

// Feature represents a plan-gated capability.
type Feature string

const (
	FeatureBasic    Feature = "basic"
	FeatureAdvanced Feature = "advanced"
	FeaturePremium  Feature = "premium"
)

// Unlimited indicates no monthly request quota (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Limits is the quota/feature bundle associated with a plan.
type Limits struct {
	// RequestQuota is the monthly request allowance. Zero means no metered
	// access at all; Unlimited (-1) means no cap.
	RequestQuota int64     `yaml:"request_quota"`
	Features     []Feature `yaml:"features"`
}

// HasFeature reports whether the bundle includes the given capability.
func (l Limits) HasFeature(f Feature) bool {
	return slices.Contains(l.Features, f)
}

// Metered reports whether the bundle grants any metered API access.
func (l Limits) Metered() bool {
	return l.RequestQuota == Unlimited || l.RequestQuota > 0
}

// Table maps plans to their entitlements. It is built once at startup and
// treated as immutable for the process lifetime.
type Table map[Plan]Limits

// LimitsFor resolves a plan to its quota and feature set. Unknown plans fall
// back to the free entry so that a corrupted or stale account record can
// never grant paid access.
func (t Table) LimitsFor(plan Plan) Limits {
	if l, ok := t[plan]; ok {
		return l
	}
	return t[PlanFree]
}

// Default returns the built-in entitlement table.
func Default() Table {
	return Table{
		PlanFree:    {RequestQuota: 0, Features: []Feature{}},
		PlanSimple:  {RequestQuota: 1000, Features: []Feature{FeatureBasic}},
		PlanPremium: {RequestQuota: 10000, Features: []Feature{FeatureBasic, FeatureAdvanced}},
		PlanPro:     {RequestQuota: Unlimited, Features: []Feature{FeatureBasic, FeatureAdvanced, FeaturePremium}},
	}
}
