package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

func TestLikeEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12", "12"},
		{"1%", `1\%`},
		{"_1", `\_1`},
		{`a\b`, `a\\b`},
		{`%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, likeEscape(tt.in), tt.in)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
		valid    bool
		internal bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true, false, false},
		{"serialization failure", &pq.Error{Code: "40001"}, true, false, false},
		{"deadlock", &pq.Error{Code: "40P01"}, true, false, false},
		{"foreign key", &pq.Error{Code: "23503"}, true, false, false},
		{"check violation", &pq.Error{Code: "23514", Message: "rating out of range"}, false, true, false},
		{"connection", errors.New("connection refused"), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			assert.Equal(t, tt.conflict, apperrors.IsConflict(err))
			assert.Equal(t, tt.valid, apperrors.IsValidation(err))

			var ie *apperrors.InternalError
			assert.Equal(t, tt.internal, errors.As(err, &ie))
		})
	}

	assert.NoError(t, classify("op", nil))
}

func TestWhereBuilder(t *testing.T) {
	var w whereBuilder
	assert.Equal(t, "", w.String())

	w.add("category_id = ?", int64(3))
	w.add("price < ?", 10)
	assert.Equal(t, " WHERE category_id = $1 AND price < $2", w.String())
	assert.Len(t, w.args, 2)
}

// openTestStore connects to the database at WEBSTORE_TEST_DB_HOST.
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	host := os.Getenv("WEBSTORE_TEST_DB_HOST")
	if host == "" {
		t.Skip("Integration test - requires database")
	}

	cfg := config.DatabaseConfig{
		Host:         host,
		Port:         5432,
		User:         "acme",
		Password:     "acme",
		Name:         "acme_webstore_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 1,
	}

	ctx := context.Background()
	db, err := OpenPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(db, logging.NewNop())
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestPostgresStore_OrderLinesBlockHeaderDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	order := &models.Order{CustomerID: 1, Status: "processing", TotalAmount: decimal.NewFromInt(10)}
	require.NoError(t, store.Orders().Create(ctx, order))
	require.NoError(t, store.OrderLines().Create(ctx, &models.OrderLine{
		OrderID: order.ID, ProductID: 3, Price: decimal.NewFromInt(10), Quantity: 1, TotalMoney: decimal.NewFromInt(10),
	}))

	err := store.Orders().Delete(ctx, order.ID)
	assert.True(t, apperrors.IsConflict(err))

	_, err = store.OrderLines().DeleteByOrders(ctx, []int64{order.ID})
	require.NoError(t, err)
	require.NoError(t, store.Orders().Delete(ctx, order.ID))
}

func TestPostgresStore_RollbackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	order := &models.Order{CustomerID: 2, Status: "processing", TotalAmount: decimal.NewFromInt(5)}
	require.NoError(t, store.Orders().Create(ctx, order))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx Store) error {
		if err := tx.Orders().UpdateStatus(ctx, order.ID, "cancelled"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Orders().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
}
