package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOrderStore persists payment orders in Postgres.
type PostgresOrderStore struct {
	db DB
}

// NewPostgresOrderStore creates a store backed by pgxpool.
func NewPostgresOrderStore(pool *pgxpool.Pool) *PostgresOrderStore {
	if pool == nil {
		panic("payments: pgx pool required")
	}
	return &PostgresOrderStore{db: pool}
}

// NewPostgresOrderStoreWithDB allows injecting a mock for tests.
func NewPostgresOrderStoreWithDB(db DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// Insert stores a new order row.
func (s *PostgresOrderStore) Insert(ctx context.Context, order *Order) error {
	query := `
		INSERT INTO payment_orders (order_id, appointment_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		order.ID,
		order.AppointmentID,
		order.AmountCents,
		order.Currency,
		order.Status,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("payments: insert order: %w", err)
	}
	return nil
}

// Get fetches an order by the gateway-issued id.
func (s *PostgresOrderStore) Get(ctx context.Context, orderID string) (*Order, error) {
	query := `
		SELECT order_id, appointment_id, amount_cents, currency, status, COALESCE(payment_ref, ''), created_at
		FROM payment_orders
		WHERE order_id = $1
	`
	var o Order
	err := s.db.QueryRow(ctx, query, orderID).Scan(
		&o.ID,
		&o.AppointmentID,
		&o.AmountCents,
		&o.Currency,
		&o.Status,
		&o.PaymentRef,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("payments: select order: %w", err)
	}
	return &o, nil
}

// Settle consumes the order exactly once: the status guard makes replayed
// callbacks a no-op.
func (s *PostgresOrderStore) Settle(ctx context.Context, orderID, paymentRef string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE payment_orders SET status = 'settled', payment_ref = $2 WHERE order_id = $1 AND status = 'created'`,
		orderID, paymentRef)
	if err != nil {
		return false, fmt.Errorf("payments: settle order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FlagReconciliation marks a verified payment whose appointment is no longer
// payable.
func (s *PostgresOrderStore) FlagReconciliation(ctx context.Context, orderID, paymentRef string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE payment_orders SET status = 'needs_reconciliation', payment_ref = $2 WHERE order_id = $1`,
		orderID, paymentRef)
	if err != nil {
		return fmt.Errorf("payments: flag reconciliation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
