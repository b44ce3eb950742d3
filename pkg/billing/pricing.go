package billing

import (
	"github.com/helioslabs/billingkit/pkg/entitlement"
)

// PricePoint is what a provider price reference resolves to: a plan tier and
// the currency the price is denominated in.
type PricePoint struct {
	Plan     entitlement.Plan
	Currency string // ISO 4217, e.g. "EUR", "USD"
}

// PriceTable maps opaque provider price references to plan tiers. Like the
// entitlement table it is built once at startup and never mutated.
type PriceTable struct {
	byRef map[string]PricePoint
}

// NewPriceTable builds a table from explicit mappings. Empty refs (unset
// config for a tier a deployment does not sell) are skipped.
func NewPriceTable(points map[string]PricePoint) PriceTable {
	byRef := make(map[string]PricePoint, len(points))
	for ref, point := range points {
		if ref == "" {
			continue
		}
		byRef[ref] = point
	}
	return PriceTable{byRef: byRef}
}

// PriceConfig carries the per-tier, per-currency price references the
// billing provider issued for this deployment.
type PriceConfig struct {
	SimpleEUR  string `env:"BILLING_PRICE_SIMPLE_EUR"`
	SimpleUSD  string `env:"BILLING_PRICE_SIMPLE_USD"`
	PremiumEUR string `env:"BILLING_PRICE_PREMIUM_EUR"`
	PremiumUSD string `env:"BILLING_PRICE_PREMIUM_USD"`
	ProEUR     string `env:"BILLING_PRICE_PRO_EUR"`
	ProUSD     string `env:"BILLING_PRICE_PRO_USD"`
}

// NewPriceTableFromConfig builds the standard three-tier, two-currency table.
func NewPriceTableFromConfig(cfg PriceConfig) PriceTable {
	return NewPriceTable(map[string]PricePoint{
		cfg.SimpleEUR:  {Plan: entitlement.PlanSimple, Currency: "EUR"},
		cfg.SimpleUSD:  {Plan: entitlement.PlanSimple, Currency: "USD"},
		cfg.PremiumEUR: {Plan: entitlement.PlanPremium, Currency: "EUR"},
		cfg.PremiumUSD: {Plan: entitlement.PlanPremium, Currency: "USD"},
		cfg.ProEUR:     {Plan: entitlement.PlanPro, Currency: "EUR"},
		cfg.ProUSD:     {Plan: entitlement.PlanPro, Currency: "USD"},
	})
}

// PriceRefFor returns the price reference selling the given plan in the
// given currency, or "" if the deployment has no such price.
func (t PriceTable) PriceRefFor(plan entitlement.Plan, currency string) string {
	for ref, point := range t.byRef {
		if point.Plan == plan && point.Currency == currency {
			return ref
		}
	}
	return ""
}

// Resolve maps a price reference to its plan tier. An unrecognized reference
// must not fail the webhook that carried it: the customer already paid. It
// resolves to the lowest paid tier and returns ErrUnrecognizedPriceTier so
// the caller can surface the anomaly to an operator.
func (t PriceTable) Resolve(priceRef string) (PricePoint, error) {
	if point, ok := t.byRef[priceRef]; ok {
		return point, nil
	}
	return PricePoint{Plan: entitlement.PlanSimple}, ErrUnrecognizedPriceTier
}
