// Package billing is the HTTP surface of the billing system.
//
// Routes (mount under a prefix of your choice):
//
//	POST /webhooks/{provider}          provider webhook ingestion
//	POST /checkout                     start a hosted checkout session
//	POST /portal                       open the customer portal
//	POST /accounts                     bootstrap an account on first login
//	GET  /accounts/{id}/subscription   current plan and status
//
// The webhook handler's status codes drive provider redelivery: 400 means
// the payload is unverifiable and retrying is pointless, 500 means a
// transient failure the provider should redeliver, and 200 acknowledges the
// event, including events the system deliberately ignores.
package billing
