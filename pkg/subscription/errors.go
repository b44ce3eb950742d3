package subscription

import "errors"

var (
	ErrUnknownAccount     = errors.New("account not found")
	ErrNoBillingIdentity  = errors.New("account has no billing customer record")
	ErrPlanNotPurchasable = errors.New("plan cannot be purchased through checkout")
	ErrNoPriceForPlan     = errors.New("no price configured for plan and currency")

	// ErrTransientStore means the account record could not be updated within
	// the bounded number of attempts. Webhook handlers must answer with a
	// retryable status so the provider redelivers the event.
	ErrTransientStore = errors.New("transient account store failure")

	ErrFailedToCreateCustomer = errors.New("failed to create billing customer")
	ErrProviderLookupFailed   = errors.New("failed to fetch subscription from billing provider")
)
