package account

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/helioslabs/billingkit/pkg/entitlement"
)

const accountsCollection = "accounts"

// MongoStore persists accounts in a MongoDB collection. The account ID is
// the document _id; the subscription reference carries a partial index so
// webhook-driven lookups stay cheap.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store backed by the accounts collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(accountsCollection)}
}

// EnsureIndexes creates the secondary index on billing_subscription_ref.
// The index is partial: only documents with a non-empty reference are
// indexed, which also enforces that a subscription maps to a single account.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "billing_subscription_ref", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.D{
				{Key: "billing_subscription_ref", Value: bson.D{{Key: "$gt", Value: ""}}},
			}),
	})
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

type accountDoc struct {
	ID                     string    `bson:"_id"`
	Email                  string    `bson:"email"`
	Plan                   string    `bson:"plan"`
	BillingCustomerRef     string    `bson:"billing_customer_ref,omitempty"`
	BillingSubscriptionRef string    `bson:"billing_subscription_ref,omitempty"`
	SubscriptionStatus     string    `bson:"subscription_status"`
	Currency               string    `bson:"currency,omitempty"`
	BillingSyncedAt        time.Time `bson:"billing_synced_at,omitempty"`
	Version                int64     `bson:"version"`
	CreatedAt              time.Time `bson:"created_at"`
	UpdatedAt              time.Time `bson:"updated_at"`
}

func toDoc(a *Account) accountDoc {
	return accountDoc{
		ID:                     a.ID,
		Email:                  a.Email,
		Plan:                   string(a.Plan),
		BillingCustomerRef:     a.BillingCustomerRef,
		BillingSubscriptionRef: a.BillingSubscriptionRef,
		SubscriptionStatus:     string(a.SubscriptionStatus),
		Currency:               string(a.Currency),
		BillingSyncedAt:        a.BillingSyncedAt,
		Version:                a.Version,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (d accountDoc) toAccount() *Account {
	return &Account{
		ID:                     d.ID,
		Email:                  d.Email,
		Plan:                   entitlement.Plan(d.Plan),
		BillingCustomerRef:     d.BillingCustomerRef,
		BillingSubscriptionRef: d.BillingSubscriptionRef,
		SubscriptionStatus:     SubscriptionStatus(d.SubscriptionStatus),
		Currency:               Currency(d.Currency),
		BillingSyncedAt:        d.BillingSyncedAt,
		Version:                d.Version,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}

func (s *MongoStore) Create(ctx context.Context, acc *Account) error {
	if _, err := s.coll.InsertOne(ctx, toDoc(acc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetBySubscriptionRef(ctx context.Context, ref string) (*Account, error) {
	// An empty ref is the cleared state, never a key. Without this guard an
	// equality filter on "" would match accounts whose subscription ended.
	if ref == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"billing_subscription_ref": ref})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var doc accountDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return doc.toAccount(), nil
}

// conditionalUpdateDoc builds the update document for a patch. Ref fields
// patched to the empty string are removed from the document rather than set,
// matching the insert path's omitempty and keeping the cleared state
// unindexable: a `$set` to "" would leave every canceled account matching an
// empty-ref equality filter.
func conditionalUpdateDoc(patch Patch) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	setOrUnset := func(field, value string) {
		if value == "" {
			unset[field] = ""
			return
		}
		set[field] = value
	}

	if patch.Plan != nil {
		set["plan"] = string(*patch.Plan)
	}
	if patch.BillingCustomerRef != nil {
		setOrUnset("billing_customer_ref", *patch.BillingCustomerRef)
	}
	if patch.BillingSubscriptionRef != nil {
		setOrUnset("billing_subscription_ref", *patch.BillingSubscriptionRef)
	}
	if patch.SubscriptionStatus != nil {
		set["subscription_status"] = string(*patch.SubscriptionStatus)
	}
	if patch.Currency != nil {
		set["currency"] = string(*patch.Currency)
	}
	if patch.BillingSyncedAt != nil {
		set["billing_synced_at"] = *patch.BillingSyncedAt
	}

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func (s *MongoStore) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, patch Patch) (*Account, error) {
	var doc accountDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		conditionalUpdateDoc(patch),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toAccount(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	// Filter missed: distinguish a moved version from a deleted record.
	if _, getErr := s.Get(ctx, id); getErr == nil {
		return nil, ErrVersionConflict
	} else if errors.Is(getErr, ErrNotFound) {
		return nil, ErrNotFound
	} else {
		return nil, getErr
	}
}
