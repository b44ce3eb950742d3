// Package account holds the durable user account record and its store
// boundary: primary lookup by account ID, secondary lookup by the billing
// provider's subscription reference, and version-checked conditional updates
// so concurrent webhook deliveries cannot clobber each other.
//
// Three Store implementations ship with the package: MemoryStore for tests
// and development, MongoStore for document-store deployments, and
// PostgresStore for relational deployments (schema under migrations/).
package account
