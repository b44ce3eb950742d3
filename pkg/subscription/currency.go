package subscription

import (
	"strings"

	"github.com/helioslabs/billingkit/pkg/account"
)

// usdLocales are the locales billed in USD. Everything else, including an
// unknown or missing locale, defaults to EUR.
var usdLocales = map[string]struct{}{
	"en-us": {},
	"en-ca": {},
}

// PreferredCurrency picks the billing currency for a locale tag such as
// "en-US" or "fr_FR". The choice only matters before the first subscription;
// after that the account's stored currency wins.
func PreferredCurrency(locale string) account.Currency {
	normalized := strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	if _, ok := usdLocales[normalized]; ok {
		return account.CurrencyUSD
	}
	return account.CurrencyEUR
}
