// Package access decides whether an API credential may use the service,
// based on the account's plan, its subscription status, and the entitlement
// table.
//
// The guard answers one question per request: allow or deny, and why. It
// deliberately does not count requests against the quota; metering and
// enforcement of consumption live with the caller, which receives the
// account ID and quota on every allow decision.
//
// The credential is the account ID presented in the X-API-Key header. The
// identity provider authenticates users; this guard only resolves the
// credential to an account.
//
// Denials are values, not errors:
//
//	decision, err := guard.Authorize(ctx, apiKey, entitlement.FeatureAdvanced)
//	if err != nil {
//		// store failure, answer 500
//	}
//	if !decision.Allowed {
//		// decision.Reason says why: unauthenticated, subscription_inactive,
//		// plan_required, feature_not_entitled
//	}
//
// The guard fails closed. A paid plan with any non-active subscription
// status is denied, and an unknown plan resolves to the free tier's
// entitlements.
package access
