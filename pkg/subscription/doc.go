// Package subscription reconciles billing provider webhooks into account
// records and opens provider-hosted checkout and customer portal sessions.
//
// The package is the write side of the billing system: it is the only code
// that mutates an account's plan, subscription reference, status, currency,
// and billing sync timestamp. Reads (the access guard, dashboards) go
// through pkg/account and pkg/entitlement directly.
//
// # Architecture
//
//   - Service: webhook handling, checkout/portal initiation, account bootstrap
//   - account.Store: durable account records with version-checked updates
//   - billing.Provider: payment provider abstraction (Stripe, Paddle)
//   - billing.PriceTable: provider price reference to plan tier mapping
//   - dedup.Marker: optional fast-path skip for redelivered events
//   - alert.Notifier: operator escalation for anomalies
//
// # Delivery semantics
//
// Billing providers deliver webhooks at-least-once and in no particular
// order. The reconciler is built around three rules:
//
//  1. Idempotent handlers. Every handler derives the target state from the
//     event (or from a follow-up provider lookup) and writes it as a patch,
//     so applying the same event twice converges to the same record.
//  2. Ordering by provider time. Each account stores the provider timestamp
//     of the last applied event (BillingSyncedAt); events older than it are
//     skipped. A subscription deletion can therefore never be undone by a
//     late update that was emitted before it.
//  3. Optimistic concurrency. All writes go through
//     account.Store.ConditionalUpdate keyed on the record version. On
//     conflict the handler re-fetches and recomputes; after bounded attempts
//     it fails with ErrTransientStore so the transport answers with a
//     retryable status and the provider redelivers.
//
// # Event handling
//
//   - billing.CheckoutCompleted: fetches current subscription state from the
//     provider (webhook payloads omit the price), resolves the price to a
//     plan tier, and activates the account: plan, subscription ref, status,
//     customer ref (set-once), currency (first subscription only).
//   - billing.SubscriptionUpdated: locates the account by subscription ref,
//     re-derives the plan from the event's price ref, updates the status.
//   - billing.SubscriptionDeleted: downgrades to the free plan, clears the
//     subscription ref, keeps the customer ref for resubscription.
//   - billing.UnknownEvent: logged and acknowledged.
//
// An unrecognized price reference never fails the event. The customer
// already paid, so the account lands on the lowest paid tier and the
// mismatch goes to the operator through the alert notifier.
//
// # Usage
//
//	store := account.NewMemoryStore()
//	provider, err := billing.NewStripeProvider(stripeCfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	prices := billing.NewPriceTableFromConfig(priceCfg)
//
//	svc := subscription.NewService(store, provider, prices,
//		subscription.WithLogger(logger),
//		subscription.WithDedupMarker(marker),
//	)
//
// Handle a webhook:
//
//	err := svc.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
//	switch {
//	case errors.Is(err, billing.ErrInvalidSignature):
//		w.WriteHeader(http.StatusBadRequest)
//	case err != nil:
//		w.WriteHeader(http.StatusInternalServerError) // provider redelivers
//	default:
//		w.WriteHeader(http.StatusOK)
//	}
//
// Start a checkout:
//
//	session, err := svc.StartCheckout(ctx, subscription.CheckoutParams{
//		AccountID:  accountID,
//		Plan:       entitlement.PlanPremium,
//		Locale:     "fr-FR",
//		SuccessURL: "https://app.example.com/billing/success",
//		CancelURL:  "https://app.example.com/pricing",
//	})
//	if err != nil {
//		return err
//	}
//	http.Redirect(w, r, session.URL, http.StatusSeeOther)
//
// # Error handling
//
//   - ErrUnknownAccount: no account record for the given ID
//   - ErrNoBillingIdentity: portal requested before any checkout
//   - ErrPlanNotPurchasable: checkout for the free or an unknown plan
//   - ErrNoPriceForPlan: deployment sells no price for plan and currency
//   - ErrTransientStore: store unavailable or CAS attempts exhausted;
//     callers should surface a retryable status
//
// Errors from billing.Provider (including billing.ErrInvalidSignature) pass
// through unwrapped so transports can map them precisely.
package subscription
