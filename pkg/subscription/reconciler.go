package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/helioslabs/billingkit/pkg/account"
	"github.com/helioslabs/billingkit/pkg/alert"
	"github.com/helioslabs/billingkit/pkg/billing"
	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/logger"
)

// HandleWebhook verifies the raw payload through the provider and applies
// the resulting event. Signature failures pass through unwrapped so the
// transport layer can answer 400 instead of a retryable status.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	return s.HandleEvent(ctx, event)
}

// HandleEvent reconciles one billing event into the account store.
//
// Providers deliver at-least-once and unordered, so the reconciler never
// trusts arrival order: each account carries the provider timestamp of the
// last applied event, and older events are skipped. Redeliveries short-cut
// through the dedup marker when one is configured, but skipping works even
// without it because re-applying an event converges to the same state.
func (s *service) HandleEvent(ctx context.Context, event billing.Event) error {
	if seen, err := s.marker.Seen(ctx, event.ID()); err != nil {
		s.log.WarnContext(ctx, "dedup marker lookup failed, continuing",
			logger.EventID(event.ID()), logger.Error(err))
	} else if seen {
		s.log.DebugContext(ctx, "skipping already-processed event",
			logger.EventID(event.ID()))
		return nil
	}

	var err error
	switch e := event.(type) {
	case billing.CheckoutCompleted:
		err = s.applyCheckoutCompleted(ctx, e)
	case billing.SubscriptionUpdated:
		err = s.applySubscriptionUpdated(ctx, e)
	case billing.SubscriptionDeleted:
		err = s.applySubscriptionDeleted(ctx, e)
	case billing.UnknownEvent:
		s.log.InfoContext(ctx, "acknowledging unhandled billing event",
			logger.EventID(e.ID()), slog.String("type", e.Type))
		return nil
	default:
		s.log.WarnContext(ctx, "acknowledging event of unexpected concrete type",
			logger.EventID(event.ID()))
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.marker.MarkProcessed(ctx, event.ID()); err != nil {
		// Worst case is one redundant reconciliation on redelivery.
		s.log.WarnContext(ctx, "failed to mark event processed",
			logger.EventID(event.ID()), logger.Error(err))
	}
	return nil
}

// applyCheckoutCompleted activates a subscription after hosted checkout.
// The webhook payload does not carry the price, so current state is fetched
// from the provider first; that also makes the handler self-correcting when
// the subscription changed again between checkout and delivery.
func (s *service) applyCheckoutCompleted(ctx context.Context, e billing.CheckoutCompleted) error {
	sub, err := s.provider.GetSubscription(ctx, e.SubscriptionRef)
	if err != nil {
		return errors.Join(ErrProviderLookupFailed, err)
	}

	plan, currency := s.resolvePrice(ctx, sub.PriceRef, e.SubscriptionRef, e.AccountID)
	status := normalizeStatus(sub.Status)

	customerRef := e.CustomerRef
	if customerRef == "" {
		customerRef = sub.CustomerRef
	}

	applied, err := s.reconcile(ctx, e.OccurredAt(), func(ctx context.Context) (*account.Account, error) {
		return s.store.Get(ctx, e.AccountID)
	}, func(acc *account.Account) account.Patch {
		patch := account.Patch{
			Plan:                   &plan,
			BillingSubscriptionRef: &e.SubscriptionRef,
			SubscriptionStatus:     &status,
		}
		if !acc.HasBillingIdentity() && customerRef != "" {
			patch.BillingCustomerRef = &customerRef
		}
		if acc.Currency == "" && currency != "" {
			patch.Currency = &currency
		}
		return patch
	})
	if errors.Is(err, account.ErrNotFound) {
		// Redelivery cannot fix a checkout that references an account this
		// system never created; escalate instead of erroring forever.
		s.notifyAnomaly(ctx, alert.Anomaly{
			Kind:    "checkout_for_unknown_account",
			Summary: "checkout completed for an account that does not exist",
			Details: map[string]string{
				"account_id":       e.AccountID,
				"subscription_ref": e.SubscriptionRef,
				"event_id":         e.ID(),
			},
		})
		return nil
	}
	if err != nil {
		return err
	}

	if applied {
		s.log.InfoContext(ctx, "subscription activated",
			logger.AccountID(e.AccountID),
			slog.String("plan", string(plan)),
			logger.SubscriptionRef(e.SubscriptionRef))
	}
	return nil
}

func (s *service) applySubscriptionUpdated(ctx context.Context, e billing.SubscriptionUpdated) error {
	plan, _ := s.resolvePrice(ctx, e.PriceRef, e.SubscriptionRef, "")
	status := normalizeStatus(e.Status)

	applied, err := s.reconcile(ctx, e.OccurredAt(), func(ctx context.Context) (*account.Account, error) {
		return s.store.GetBySubscriptionRef(ctx, e.SubscriptionRef)
	}, func(acc *account.Account) account.Patch {
		return account.Patch{
			Plan:               &plan,
			SubscriptionStatus: &status,
		}
	})
	if errors.Is(err, account.ErrNotFound) {
		// Either the update raced ahead of checkout_completed (the checkout
		// handler will fetch current state anyway) or the subscription was
		// already deleted. Both resolve without this event.
		s.log.WarnContext(ctx, "no account for updated subscription, acknowledging",
			logger.SubscriptionRef(e.SubscriptionRef),
			logger.EventID(e.ID()))
		return nil
	}
	if err != nil {
		return err
	}

	if applied {
		s.log.InfoContext(ctx, "subscription updated",
			logger.SubscriptionRef(e.SubscriptionRef),
			slog.String("plan", string(plan)),
			slog.String("status", string(status)))
	}
	return nil
}

func (s *service) applySubscriptionDeleted(ctx context.Context, e billing.SubscriptionDeleted) error {
	plan := entitlement.PlanFree
	status := account.StatusAbsent
	noSubscription := ""

	applied, err := s.reconcile(ctx, e.OccurredAt(), func(ctx context.Context) (*account.Account, error) {
		return s.store.GetBySubscriptionRef(ctx, e.SubscriptionRef)
	}, func(acc *account.Account) account.Patch {
		// Customer ref and currency survive so resubscription reuses them.
		return account.Patch{
			Plan:                   &plan,
			BillingSubscriptionRef: &noSubscription,
			SubscriptionStatus:     &status,
		}
	})
	if errors.Is(err, account.ErrNotFound) {
		s.log.InfoContext(ctx, "no account for deleted subscription, acknowledging",
			logger.SubscriptionRef(e.SubscriptionRef),
			logger.EventID(e.ID()))
		return nil
	}
	if err != nil {
		return err
	}

	if applied {
		s.log.InfoContext(ctx, "subscription removed, account downgraded to free",
			logger.SubscriptionRef(e.SubscriptionRef))
	}
	return nil
}

// reconcile runs the fetch-compute-CAS loop shared by all event handlers.
// It re-fetches and recomputes the patch after every version conflict, skips
// events older than the account's last applied billing timestamp, and gives
// up with ErrTransientStore after bounded attempts so the provider
// redelivers. Returns whether a write happened.
func (s *service) reconcile(
	ctx context.Context,
	occurredAt time.Time,
	fetch func(context.Context) (*account.Account, error),
	compute func(*account.Account) account.Patch,
) (bool, error) {
	for attempt := 0; attempt < s.maxUpdateAttempts; attempt++ {
		acc, err := fetch(ctx)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				return false, err
			}
			return false, errors.Join(ErrTransientStore, err)
		}

		if occurredAt.Before(acc.BillingSyncedAt) {
			s.log.InfoContext(ctx, "skipping stale billing event",
				logger.AccountID(acc.ID),
				slog.Time("event_at", occurredAt),
				slog.Time("synced_at", acc.BillingSyncedAt))
			return false, nil
		}

		patch := compute(acc)
		syncedAt := occurredAt.UTC()
		patch.BillingSyncedAt = &syncedAt

		// A redelivered event computes a patch the record already satisfies.
		// Skipping the write keeps reapplication a true no-op, with version
		// and updated_at untouched.
		if patch = patch.Prune(acc); patch.IsZero() {
			s.log.DebugContext(ctx, "event already applied, nothing to write",
				logger.AccountID(acc.ID))
			return false, nil
		}

		if _, err := s.store.ConditionalUpdate(ctx, acc.ID, acc.Version, patch); err != nil {
			if errors.Is(err, account.ErrVersionConflict) {
				continue
			}
			if errors.Is(err, account.ErrNotFound) {
				return false, err
			}
			return false, errors.Join(ErrTransientStore, err)
		}
		return true, nil
	}
	return false, ErrTransientStore
}

// resolvePrice maps a provider price reference to a plan tier and currency.
// An unrecognized reference resolves to the lowest paid tier so a paying
// customer is never locked out, and the mismatch is escalated to an
// operator.
func (s *service) resolvePrice(ctx context.Context, priceRef, subscriptionRef, accountID string) (entitlement.Plan, account.Currency) {
	point, err := s.prices.Resolve(priceRef)
	if err != nil {
		details := map[string]string{
			"price_ref":        priceRef,
			"subscription_ref": subscriptionRef,
		}
		if accountID != "" {
			details["account_id"] = accountID
		}
		s.notifyAnomaly(ctx, alert.Anomaly{
			Kind:    "unrecognized_price_tier",
			Summary: "billing event carries a price not in the price table",
			Details: details,
		})
	}
	return point.Plan, account.Currency(point.Currency)
}

func (s *service) notifyAnomaly(ctx context.Context, a alert.Anomaly) {
	if err := s.alerts.Notify(ctx, a); err != nil {
		s.log.ErrorContext(ctx, "failed to deliver anomaly alert",
			slog.String("kind", a.Kind), logger.Error(err))
	}
}
