package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, number, customer_name, phone_number, delivery_address,
		       latitude, longitude, notes, total_amount, status, created_at, updated_at`

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Insert order
	query := `
		INSERT INTO orders (number, customer_name, phone_number, delivery_address,
		                    latitude, longitude, notes, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.Number, order.CustomerName, order.PhoneNumber, order.DeliveryAddress,
		order.Latitude, order.Longitude, order.Notes, order.TotalAmount, string(order.Status),
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	// Insert order items
	for i := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, name, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err = tx.QueryRow(ctx, itemQuery,
			order.ID, order.Items[i].Name, order.Items[i].Quantity, order.Items[i].Price, order.CreatedAt,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items[i].OrderID = order.ID
	}

	// Log initial status
	if err := logStatus(ctx, tx, order.ID, order.Status, domain.ChangedByOrderService); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, number))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// FindByID loads the order row without its items.
func (r *orderRepository) FindByID(ctx context.Context, id int) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, id))
}

// List returns orders newest first, optionally filtered by status.
func (r *orderRepository) List(ctx context.Context, status *domain.Status) ([]*domain.Order, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + orderColumns + ` FROM orders`)
	if status != nil {
		sb.WriteString(` WHERE status = $1`)
		args = append(args, string(*status))
	}
	sb.WriteString(` ORDER BY created_at DESC, id DESC`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int, status domain.Status, changedBy string) (bool, error) {
	return r.updateStatus(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 RETURNING id`,
		id, status, changedBy)
}

func (r *orderRepository) UpdateStatusByNumber(ctx context.Context, number string, status domain.Status, changedBy string) (bool, error) {
	return r.updateStatus(ctx, `UPDATE orders SET status = $1, updated_at = $2 WHERE number = $3 RETURNING id`,
		number, status, changedBy)
}

// updateStatus sets the status and logs the change in one transaction.
// It reports false when no order matched key.
func (r *orderRepository) updateStatus(ctx context.Context, query string, key any, status domain.Status, changedBy string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	err = tx.QueryRow(ctx, query, string(status), time.Now().UTC(), key).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := logStatus(ctx, tx, orderID, status, changedBy); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit status update: %w", err)
	}
	return true, nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	logs := []*domain.StatusLog{}
	for rows.Next() {
		var (
			log    domain.StatusLog
			status string
		)
		if err := rows.Scan(&log.ID, &log.OrderID, &status, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		log.Status = domain.Status(status)
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	return logs, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int) ([]domain.OrderItem, error) {
	itemsQuery := `SELECT id, order_id, name, quantity, price FROM order_items WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return items, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

func logStatus(ctx context.Context, db execer, orderID int, status domain.Status, changedBy string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := db.Exec(ctx, query, orderID, string(status), changedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(
		&order.ID, &order.Number, &order.CustomerName, &order.PhoneNumber, &order.DeliveryAddress,
		&order.Latitude, &order.Longitude, &order.Notes, &order.TotalAmount, &status,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	order.Status = domain.Status(status)
	return &order, nil
}
