package repository

import (
	"context"
	"database/sql"
	"errors"

	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
)

type CreditRepository struct {
	db *sql.DB
}

func NewCreditRepository(db *sql.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Get returns the customer's credit balance, zero when none has been
// recorded yet.
func (r *CreditRepository) Get(ctx context.Context, customerID string) (domain.CreditBalance, error) {
	cb := domain.CreditBalance{CustomerID: customerID, Balance: decimal.Zero}

	query := `SELECT balance, updated_at FROM credit_balances WHERE customer_id = $1`
	err := r.db.QueryRowContext(ctx, query, customerID).Scan(&cb.Balance, &cb.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cb, nil
	}
	if err != nil {
		return cb, &domain.StoreError{Op: "credits.get", Err: err}
	}
	return cb, nil
}

// Add deposits the delta onto the customer's standing credit inside the
// payment transaction, creating the row on first use, and returns the new
// balance.
func (r *CreditRepository) Add(ctx context.Context, tx *sql.Tx, customerID string, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `INSERT INTO credit_balances (customer_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (customer_id)
		DO UPDATE SET balance = credit_balances.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance`

	var balance decimal.Decimal
	if err := tx.QueryRowContext(ctx, query, customerID, delta).Scan(&balance); err != nil {
		return decimal.Zero, &domain.StoreError{Op: "credits.add", Err: err}
	}
	return balance, nil
}
