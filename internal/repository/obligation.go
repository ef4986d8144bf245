package repository

import (
	"context"
	"database/sql"
	"time"

	"billing-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const obligationColumns = `id, customer_id, kind, sequence_label, amount, due_date, paid_amount, remaining_amount, status, is_prorated, prorated_days, daily_rate, created_at, updated_at`

type ObligationRepository struct {
	db *sql.DB
}

func NewObligationRepository(db *sql.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// OutstandingByCustomer lists a customer's obligations with remaining amount,
// oldest due first.
func (r *ObligationRepository) OutstandingByCustomer(ctx context.Context, customerID string, kind domain.ObligationKind) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
		WHERE customer_id = $1 AND kind = $2 AND remaining_amount > 0
		ORDER BY due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, customerID, kind)
	if err != nil {
		return nil, &domain.StoreError{Op: "obligations.outstanding", Err: err}
	}
	defer rows.Close()
	return scanObligations(rows)
}

// LockOutstanding is OutstandingByCustomer inside a transaction with
// SELECT ... FOR UPDATE, serializing concurrent payments per customer.
func (r *ObligationRepository) LockOutstanding(ctx context.Context, tx *sql.Tx, customerID string, kind domain.ObligationKind) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
		WHERE customer_id = $1 AND kind = $2 AND remaining_amount > 0
		ORDER BY due_date ASC
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, customerID, kind)
	if err != nil {
		return nil, &domain.StoreError{Op: "obligations.lock", Err: err}
	}
	defer rows.Close()
	return scanObligations(rows)
}

// HistoryByCustomer lists every obligation ever created for the customer,
// settled ones included, for statements.
func (r *ObligationRepository) HistoryByCustomer(ctx context.Context, customerID string) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
		WHERE customer_id = $1
		ORDER BY due_date ASC, sequence_label ASC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, &domain.StoreError{Op: "obligations.history", Err: err}
	}
	defer rows.Close()
	return scanObligations(rows)
}

func (r *ObligationRepository) Insert(ctx context.Context, ob domain.Obligation) error {
	query := `INSERT INTO obligations
		(id, customer_id, kind, sequence_label, amount, due_date, paid_amount, remaining_amount, status, is_prorated, prorated_days, daily_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`

	_, err := r.db.ExecContext(ctx, query,
		ob.ID, ob.CustomerID, ob.Kind, ob.SequenceLabel,
		ob.Amount, ob.DueDate, ob.PaidAmount, ob.RemainingAmount, ob.Status,
		ob.IsProrated, ob.ProratedDays, ob.DailyRate,
	)
	if err != nil {
		return &domain.StoreError{Op: "obligations.insert", Err: err}
	}
	return nil
}

// ApplyAllocation writes a payment allocation back to one obligation. The
// update is guarded by the remaining amount read before distribution; a zero
// row count means another writer got there first and the caller must retry.
func (r *ObligationRepository) ApplyAllocation(ctx context.Context, tx *sql.Tx, id uuid.UUID, paid, remaining decimal.Decimal, status domain.ObligationStatus, expectedRemaining decimal.Decimal) error {
	query := `UPDATE obligations
		SET paid_amount = $1, remaining_amount = $2, status = $3, updated_at = now()
		WHERE id = $4 AND remaining_amount = $5`

	res, err := tx.ExecContext(ctx, query, paid, remaining, status, id, expectedRemaining)
	if err != nil {
		return &domain.StoreError{Op: "obligations.apply", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "obligations.apply", Err: err}
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ExistsForPeriod reports whether the customer already has a rent obligation
// for the period key. The scheduler's idempotence gate.
func (r *ObligationRepository) ExistsForPeriod(ctx context.Context, customerID, periodKey string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM obligations
		WHERE customer_id = $1 AND kind = $2 AND sequence_label = $3
	)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, customerID, domain.KindRent, periodKey).Scan(&exists); err != nil {
		return false, &domain.StoreError{Op: "obligations.exists_for_period", Err: err}
	}
	return exists, nil
}

// ListActiveRentSubscribers returns every rent customer with their current
// monthly amount, taken from the latest full-month obligation. A customer
// whose only rent row is the prorated join charge is still a subscriber; their
// monthly amount is reconstructed from the contracted daily rate.
func (r *ObligationRepository) ListActiveRentSubscribers(ctx context.Context) ([]domain.RentSubscriber, error) {
	query := `SELECT DISTINCT ON (customer_id) customer_id,
			CASE WHEN is_prorated THEN daily_rate * 30 ELSE amount END AS monthly_amount
		FROM obligations
		WHERE kind = $1
		ORDER BY customer_id, is_prorated ASC, due_date DESC`

	rows, err := r.db.QueryContext(ctx, query, domain.KindRent)
	if err != nil {
		return nil, &domain.StoreError{Op: "obligations.rent_subscribers", Err: err}
	}
	defer rows.Close()

	var out []domain.RentSubscriber
	for rows.Next() {
		var s domain.RentSubscriber
		if err := rows.Scan(&s.CustomerID, &s.MonthlyAmount); err != nil {
			return nil, &domain.StoreError{Op: "obligations.rent_subscribers", Err: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "obligations.rent_subscribers", Err: err}
	}
	return out, nil
}

// MarkOverdue bulk-flags unpaid obligations of one kind whose due date is
// older than the cutoff. Idempotent: rows already overdue are not selected,
// so re-running when nothing changed is a no-op. Returns the customer ids of
// the rows flagged.
func (r *ObligationRepository) MarkOverdue(ctx context.Context, kind domain.ObligationKind, cutoff time.Time) ([]string, error) {
	query := `UPDATE obligations
		SET status = $1, updated_at = now()
		WHERE kind = $2 AND status IN ($3, $4) AND remaining_amount > 0 AND due_date < $5
		RETURNING customer_id`

	rows, err := r.db.QueryContext(ctx, query,
		domain.StatusOverdue, kind, domain.StatusDue, domain.StatusPartial, cutoff)
	if err != nil {
		return nil, &domain.StoreError{Op: "obligations.mark_overdue", Err: err}
	}
	defer rows.Close()

	var customers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &domain.StoreError{Op: "obligations.mark_overdue", Err: err}
		}
		customers = append(customers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "obligations.mark_overdue", Err: err}
	}
	return customers, nil
}

func scanObligations(rows *sql.Rows) ([]domain.Obligation, error) {
	var out []domain.Obligation
	for rows.Next() {
		var o domain.Obligation
		if err := rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.Kind,
			&o.SequenceLabel,
			&o.Amount,
			&o.DueDate,
			&o.PaidAmount,
			&o.RemainingAmount,
			&o.Status,
			&o.IsProrated,
			&o.ProratedDays,
			&o.DailyRate,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, &domain.StoreError{Op: "obligations.scan", Err: err}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "obligations.scan", Err: err}
	}
	return out, nil
}
