package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/pg"
)

// PostgresStore persists accounts in a PostgreSQL table with optimistic
// locking on the version column. Schema lives in migrations/ and is applied
// with goose (see pkg/pg.Migrate).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const accountColumns = `id, email, plan, billing_customer_ref, billing_subscription_ref,
	subscription_status, currency, billing_synced_at, version, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		acc      Account
		plan     string
		status   string
		currency string
		subRef   *string
		custRef  *string
		syncedAt *time.Time
	)
	err := row.Scan(&acc.ID, &acc.Email, &plan, &custRef, &subRef,
		&status, &currency, &syncedAt, &acc.Version, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	acc.Plan = entitlement.Plan(plan)
	acc.SubscriptionStatus = SubscriptionStatus(status)
	acc.Currency = Currency(currency)
	if custRef != nil {
		acc.BillingCustomerRef = *custRef
	}
	if subRef != nil {
		acc.BillingSubscriptionRef = *subRef
	}
	if syncedAt != nil {
		acc.BillingSyncedAt = *syncedAt
	}
	return &acc, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PostgresStore) Create(ctx context.Context, acc *Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		acc.ID, acc.Email, string(acc.Plan),
		nullable(acc.BillingCustomerRef), nullable(acc.BillingSubscriptionRef),
		string(acc.SubscriptionStatus), string(acc.Currency),
		nullableTime(acc.BillingSyncedAt), acc.Version, acc.CreatedAt, acc.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (s *PostgresStore) GetBySubscriptionRef(ctx context.Context, ref string) (*Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE billing_subscription_ref = $1`, ref)
	return scanAccount(row)
}

func (s *PostgresStore) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, patch Patch) (*Account, error) {
	sets := []string{"version = version + 1", "updated_at = now()"}
	args := []any{id, expectedVersion}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Plan != nil {
		add("plan", string(*patch.Plan))
	}
	if patch.BillingCustomerRef != nil {
		add("billing_customer_ref", nullable(*patch.BillingCustomerRef))
	}
	if patch.BillingSubscriptionRef != nil {
		add("billing_subscription_ref", nullable(*patch.BillingSubscriptionRef))
	}
	if patch.SubscriptionStatus != nil {
		add("subscription_status", string(*patch.SubscriptionStatus))
	}
	if patch.Currency != nil {
		add("currency", string(*patch.Currency))
	}
	if patch.BillingSyncedAt != nil {
		add("billing_synced_at", *patch.BillingSyncedAt)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE accounts SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND version = $2
		RETURNING `+accountColumns, args...)

	acc, err := scanAccount(row)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// No row updated: decide between conflict and missing record.
	if _, getErr := s.Get(ctx, id); getErr == nil {
		return nil, ErrVersionConflict
	} else if errors.Is(getErr, ErrNotFound) {
		return nil, ErrNotFound
	} else {
		return nil, getErr
	}
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
