package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/delivery-platform/internal/domain"
)

var readCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		UserID:       5,
		RestaurantID: 3,
		Status:       domain.OrderStatusPlaced,
		TotalPrice:   1300,
		Items: []domain.OrderItem{
			{DishID: 1, Quantity: 2, Price: 500},
			{DishID: 2, Quantity: 1, Price: 300},
		},
		Payment: &domain.Payment{Method: domain.PaymentMethodCard, Amount: 1300, Status: domain.PaymentStatusPaid},
	}
}

func TestOrderRepository_CreateWritesOrderItemsAndPayment(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)
	now := time.Now()

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(int64(5), int64(3), "PLACED", int64(1300)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(11), int64(1), 2, int64(500)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(11), int64(2), 1, int64(300)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(22)))
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(int64(11), "CARD", int64(1300), "PAID").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()

	order := sampleOrder()
	require.NoError(t, repo.Create(context.Background(), order))

	assert.Equal(t, int64(11), order.ID)
	assert.Equal(t, int64(22), order.Items[1].ID)
	assert.Equal(t, int64(11), order.Items[0].OrderID)
	assert.Equal(t, int64(31), order.Payment.ID)
	assert.Equal(t, int64(11), order.Payment.OrderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateRollsBackOnItemFailure(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)
	itemErr := errors.New("violates check constraint order_items_quantity_check")

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(int64(5), int64(3), "PLACED", int64(1300)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(11), int64(1), 2, int64(500)).
		WillReturnError(itemErr)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, itemErr)
	// No commit and no payment insert: the order row is discarded with the transaction.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateRollsBackOnPaymentFailure(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(21)))
	mock.ExpectQuery("INSERT INTO order_items").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(22)))
	mock.ExpectQuery("INSERT INTO payments").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	assert.Error(t, repo.Create(context.Background(), sampleOrder()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func orderRows(n int) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "user_id", "restaurant_id", "status", "total_price", "created_at"})
	created := time.Now()
	for i := n; i >= 1; i-- {
		rows.AddRow(int64(i), int64(i%7+1), int64(1), "PLACED", int64(100), created.Add(time.Duration(i)*time.Second))
	}
	return rows
}

func TestOrderRepository_ListWithFilterReturnsEveryRowWithoutLimit(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery(`^SELECT ` + regexp.QuoteMeta(orderColumns+` FROM orders WHERE 1=1 ORDER BY created_at DESC, id DESC`) + `$`).
		WillReturnRows(orderRows(101))
	mock.ExpectQuery("FROM order_items").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "dish_id", "quantity", "price"}))
	mock.ExpectQuery("FROM payments").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "method", "amount", "status"}))

	orders, err := repo.ListWithFilter(context.Background(), OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 101)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListWithFilterNarrowsAndPages(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)
	userID := int64(7)

	want := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1 AND user_id=$1 AND status IN ($2,$3) ` +
		`ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 20`
	mock.ExpectQuery(`^` + regexp.QuoteMeta(want) + `$`).
		WithArgs(userID, "PLACED", "READY").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "restaurant_id", "status", "total_price", "created_at"}).
			AddRow(int64(100), userID, int64(2), "READY", int64(500), time.Now()))
	mock.ExpectQuery("FROM order_items").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "dish_id", "quantity", "price"}).
			AddRow(int64(1), int64(100), int64(9), 1, int64(500)))
	mock.ExpectQuery("FROM payments").WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "method", "amount", "status"}).
			AddRow(int64(4), int64(100), "CASH", int64(500), "PAID"))

	orders, err := repo.ListWithFilter(context.Background(), OrderFilter{
		UserID:   &userID,
		Statuses: []domain.OrderStatus{domain.OrderStatusPlaced, domain.OrderStatusReady},
		Limit:    10,
		Offset:   20,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusReady, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(9), orders[0].Items[0].DishID)
	require.NotNil(t, orders[0].Payment)
	assert.Equal(t, domain.PaymentMethodCash, orders[0].Payment.Method)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatusLocksAndOverwrites(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM orders WHERE id=$1 FOR UPDATE`)).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("DELIVERED"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status=$1 WHERE id=$2`)).
		WithArgs("PLACED", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	previous, err := repo.UpdateStatus(context.Background(), 5, domain.OrderStatusPlaced)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, previous)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatusMissingOrder(t *testing.T) {
	mock := newMockDB(t)
	repo := NewOrderRepository(mock)

	mock.ExpectBeginTx(readCommitted)
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(404)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 404, domain.OrderStatusReady)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollsBackAndRepanics(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectBeginTx(readCommitted)
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = runInTx(context.Background(), mock, func(pgx.Tx) error { panic("boom") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
