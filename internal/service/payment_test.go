package service

import (
	"context"
	"testing"
	"time"

	"billing-engine/internal/domain"
	"billing-engine/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var obligationTestColumns = []string{
	"id", "customer_id", "kind", "sequence_label", "amount", "due_date",
	"paid_amount", "remaining_amount", "status", "is_prorated",
	"prorated_days", "daily_rate", "created_at", "updated_at",
}

func newPaymentServiceForTest(t *testing.T) (*PaymentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc := NewPaymentService(db,
		repository.NewObligationRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewCreditRepository(db),
		nil, nil, log)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return svc, mock
}

func TestProcessPaymentSettlesSingleInstallment(t *testing.T) {
	svc, mock := newPaymentServiceForTest(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindInstallment)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns).
			AddRow(id, "cust-1", "installment", "1", "3333", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				"0", "3333", "due", false, 0, "0", now, now))
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindRent)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns))
	mock.ExpectExec(`UPDATE obligations`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), string(domain.StatusPaid), id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(3333),
	})
	require.NoError(t, err)
	require.Len(t, result.Installments, 1)
	assert.Equal(t, domain.StatusPaid, result.Installments[0].NewStatus)
	assert.True(t, result.Excess.IsZero())
	assert.True(t, result.TotalProcessed.Equal(decimal.NewFromInt(3333)))
	assert.Len(t, result.TransactionIDs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentOverflowBecomesCredit(t *testing.T) {
	svc, mock := newPaymentServiceForTest(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindInstallment)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns).
			AddRow(id, "cust-1", "installment", "12", "3337", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				"0", "3337", "due", false, 0, "0", now, now))
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindRent)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns))
	mock.ExpectExec(`UPDATE obligations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO credit_balances`).
		WithArgs("cust-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("1663"))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(5000),
	})
	require.NoError(t, err)
	assert.True(t, result.Excess.Equal(decimal.NewFromInt(1663)))
	assert.Len(t, result.TransactionIDs, 2) // settlement plus deposit
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentNoPendingDues(t *testing.T) {
	svc, mock := newPaymentServiceForTest(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindInstallment)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns))
	mock.ExpectQuery(`SELECT (.+) FROM obligations`).
		WithArgs("cust-1", string(domain.KindRent)).
		WillReturnRows(sqlmock.NewRows(obligationTestColumns))
	mock.ExpectRollback()

	_, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		CustomerID: "cust-1",
		Amount:     decimal.NewFromInt(1000),
	})
	assert.ErrorIs(t, err, domain.ErrNoPendingDues)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentValidation(t *testing.T) {
	svc, _ := newPaymentServiceForTest(t)
	ctx := context.Background()

	var vErr *domain.ValidationError

	_, err := svc.ProcessPayment(ctx, domain.PaymentRequest{Amount: decimal.NewFromInt(100)})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.ProcessPayment(ctx, domain.PaymentRequest{CustomerID: "cust-1", Amount: decimal.Zero})
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.ProcessPayment(ctx, domain.PaymentRequest{
		CustomerID: "cust-1", Amount: decimal.NewFromInt(100), TargetKind: "mystery",
	})
	assert.ErrorAs(t, err, &vErr)
}
