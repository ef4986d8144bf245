package repository

import (
	"context"
	"database/sql"

	"billing-engine/internal/domain"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append writes one immutable audit row inside the payment transaction.
func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, rec domain.TransactionRecord) error {
	query := `INSERT INTO transactions
		(id, customer_id, amount, obligation_id, kind, status, occurred_at, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.ExecContext(ctx, query,
		rec.ID, rec.CustomerID, rec.Amount, rec.ObligationID,
		rec.Kind, rec.Status, rec.OccurredAt, rec.Remarks,
	)
	if err != nil {
		return &domain.StoreError{Op: "transactions.append", Err: err}
	}
	return nil
}

func (r *TransactionRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.TransactionRecord, error) {
	query := `SELECT id, customer_id, amount, obligation_id, kind, status, occurred_at, remarks
		FROM transactions
		WHERE customer_id = $1
		ORDER BY occurred_at ASC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, &domain.StoreError{Op: "transactions.list", Err: err}
	}
	defer rows.Close()

	var out []domain.TransactionRecord
	for rows.Next() {
		var rec domain.TransactionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.CustomerID,
			&rec.Amount,
			&rec.ObligationID,
			&rec.Kind,
			&rec.Status,
			&rec.OccurredAt,
			&rec.Remarks,
		); err != nil {
			return nil, &domain.StoreError{Op: "transactions.scan", Err: err}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "transactions.scan", Err: err}
	}
	return out, nil
}
