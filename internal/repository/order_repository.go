package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

// OrderFilter narrows order listings. A non-positive Limit returns every matching row.
type OrderFilter struct {
	UserID   *int64
	Statuses []domain.OrderStatus
	Limit    int
	Offset   int
}

// OrderRepository encapsulates order persistence. An order, its items and its payment
// are always written together.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error)
	ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// UpdateStatus overwrites the status and returns the previous one.
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.OrderStatus, error)
}

type orderRepository struct {
	pool DB
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool DB) OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		const orderQuery = `
        INSERT INTO orders (user_id, restaurant_id, status, total_price)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
		if err := tx.QueryRow(ctx, orderQuery,
			order.UserID,
			order.RestaurantID,
			string(order.Status),
			order.TotalPrice,
		).Scan(&order.ID, &order.CreatedAt); err != nil {
			return err
		}

		const itemQuery = `
        INSERT INTO order_items (order_id, dish_id, quantity, price)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			if err := tx.QueryRow(ctx, itemQuery, order.ID, item.DishID, item.Quantity, item.Price).Scan(&item.ID); err != nil {
				return err
			}
		}

		if order.Payment == nil {
			return nil
		}
		const paymentQuery = `
        INSERT INTO payments (order_id, method, amount, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
		order.Payment.OrderID = order.ID
		return tx.QueryRow(ctx, paymentQuery,
			order.ID,
			string(order.Payment.Method),
			order.Payment.Amount,
			string(order.Payment.Status),
		).Scan(&order.Payment.ID)
	})
}

const orderColumns = `id, user_id, restaurant_id, status, total_price, created_at`

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id), &order); err != nil {
		return nil, notFound(err)
	}
	orders := []domain.Order{order}
	if err := r.loadChildren(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	return r.ListWithFilter(ctx, OrderFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (r *orderRepository) ListWithFilter(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC, id DESC`,
		orderColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.OrderStatus, error) {
	var previous string
	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&previous); err != nil {
			return notFound(err)
		}
		_, err := tx.Exec(ctx, `UPDATE orders SET status=$1 WHERE id=$2`, string(status), id)
		return err
	})
	if err != nil {
		return "", err
	}
	return domain.OrderStatus(previous), nil
}

// loadChildren attaches items and payments to orders with two batched queries.
func (r *orderRepository) loadChildren(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	itemRows, err := r.pool.Query(ctx, `
        SELECT id, order_id, dish_id, quantity, price
        FROM order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.DishID, &item.Quantity, &item.Price); err != nil {
			return err
		}
		o := &orders[index[item.OrderID]]
		o.Items = append(o.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return err
	}

	paymentRows, err := r.pool.Query(ctx, `
        SELECT id, order_id, method, amount, status
        FROM payments WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var (
			p              domain.Payment
			method, status string
		)
		if err := paymentRows.Scan(&p.ID, &p.OrderID, &method, &p.Amount, &status); err != nil {
			return err
		}
		p.Method = domain.PaymentMethod(method)
		p.Status = domain.PaymentStatus(status)
		orders[index[p.OrderID]].Payment = &p
	}
	return paymentRows.Err()
}

func scanOrder(row pgx.Row, order *domain.Order) error {
	var status string
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.RestaurantID,
		&status,
		&order.TotalPrice,
		&order.CreatedAt,
	); err != nil {
		return err
	}
	order.Status = domain.OrderStatus(status)
	return nil
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}
