package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/pickup/internal/domain"
	"github.com/YelzhanWeb/pickup/internal/interfaces"
)

const orderColumns = `id, customer, pickup_date, pickup_time, items, special_instructions,
	total, status, created_at, updated_at`

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO pickup_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		order.ID, order.Customer, order.Pickup.Date, order.Pickup.Time, order.Items,
		order.SpecialInstructions, order.Total, string(order.Status), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pickup_orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pickup_orders ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *orderRepository) ListByPickupDate(ctx context.Context, date string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM pickup_orders WHERE pickup_date = $1 ORDER BY created_at`
	return r.list(ctx, query, date)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	query := `
		UPDATE pickup_orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + orderColumns

	order, err := scanOrder(r.db.QueryRow(ctx, query, string(status), time.Now().UTC(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	return order, nil
}

// ReplaceAll swaps the whole ledger in one transaction. Used by backup restore.
func (r *orderRepository) ReplaceAll(ctx context.Context, orders []*domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pickup_orders`); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}

	query := `
		INSERT INTO pickup_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, o := range orders {
		_, err := tx.Exec(ctx, query,
			o.ID, o.Customer, o.Pickup.Date, o.Pickup.Time, o.Items,
			o.SpecialInstructions, o.Total, string(o.Status), o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Customer, &o.Pickup.Date, &o.Pickup.Time, &o.Items,
		&o.SpecialInstructions, &o.Total, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if o.Status, err = domain.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("%w: order %s: %v", domain.ErrCorruptState, o.ID, err)
	}
	return &o, nil
}
