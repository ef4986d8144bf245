package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"billing-engine/internal/billing"
	"billing-engine/internal/clients"
	"billing-engine/internal/domain"
	"billing-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const duesCacheKeyFormat = "dues:%s"

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func invalidateDuesCache(ctx context.Context, cache *clients.RedisClient, log *logrus.Logger, customerID string) {
	if cache == nil {
		return
	}
	if err := cache.Del(ctx, fmt.Sprintf(duesCacheKeyFormat, customerID)); err != nil {
		log.WithError(err).WithField("customer_id", customerID).Warn("failed to invalidate dues cache")
	}
}

// PaymentService applies incoming payments to a customer's outstanding
// obligations. The distribution itself is a pure calculation; this service
// wraps it in a database transaction so either every allocation lands or none
// does.
type PaymentService struct {
	db           *sql.DB
	obligations  *repository.ObligationRepository
	transactions *repository.TransactionRepository
	credits      *repository.CreditRepository
	cache        *clients.RedisClient
	notify       *clients.Notifier
	log          *logrus.Logger
	now          func() time.Time
}

func NewPaymentService(
	db *sql.DB,
	obligations *repository.ObligationRepository,
	transactions *repository.TransactionRepository,
	credits *repository.CreditRepository,
	cache *clients.RedisClient,
	notify *clients.Notifier,
	log *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		db:           db,
		obligations:  obligations,
		transactions: transactions,
		credits:      credits,
		cache:        cache,
		notify:       notify,
		log:          log,
		now:          time.Now,
	}
}

// ProcessPayment validates the request, locks the customer's outstanding
// obligations, distributes the amount and persists the result atomically.
// A payment that covers nothing fails with domain.ErrNoPendingDues; overflow
// beyond all dues becomes standing credit with its own deposit record.
func (s *PaymentService) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	if req.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer id is required"}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	target := req.TargetKind
	if target == "" {
		target = domain.TargetAuto
	}
	if !target.Valid() {
		return nil, &domain.ValidationError{Field: "target_kind", Message: fmt.Sprintf("unknown target kind %q", req.TargetKind)}
	}

	today := day(s.now())
	if req.EffectiveDate != nil {
		today = day(*req.EffectiveDate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &domain.StoreError{Op: "payment.begin", Err: err}
	}
	defer tx.Rollback()

	var installments, rents []domain.Obligation
	if target == domain.TargetInstallment || target == domain.TargetAuto {
		if installments, err = s.obligations.LockOutstanding(ctx, tx, req.CustomerID, domain.KindInstallment); err != nil {
			return nil, err
		}
	}
	if target == domain.TargetRent || target == domain.TargetAuto {
		if rents, err = s.obligations.LockOutstanding(ctx, tx, req.CustomerID, domain.KindRent); err != nil {
			return nil, err
		}
	}

	dist := billing.Distribute(req.Amount, installments, rents, target, today)
	if dist.Empty() {
		s.log.WithFields(logrus.Fields{
			"customer_id": req.CustomerID,
			"amount":      req.Amount,
			"target":      target,
		}).Warn("payment rejected: no pending dues")
		return nil, domain.ErrNoPendingDues
	}

	occurred := s.now()
	result := &domain.PaymentResult{
		CustomerID:     req.CustomerID,
		Installments:   dist.Installments,
		Rents:          dist.Rents,
		Excess:         dist.Excess,
		TotalProcessed: dist.TotalProcessed,
	}

	allocations := make([]domain.Allocation, 0, len(dist.Installments)+len(dist.Rents))
	allocations = append(allocations, dist.Installments...)
	allocations = append(allocations, dist.Rents...)

	for _, a := range allocations {
		// the remaining amount read under the row lock guards the write
		expected := a.NewRemaining.Add(a.Applied)
		if err := s.obligations.ApplyAllocation(ctx, tx, a.ObligationID, a.NewPaid, a.NewRemaining, a.NewStatus, expected); err != nil {
			return nil, err
		}

		obligationID := a.ObligationID
		rec := domain.TransactionRecord{
			ID:           uuid.New(),
			CustomerID:   req.CustomerID,
			Amount:       a.Applied,
			ObligationID: &obligationID,
			Kind:         txKindFor(a.Kind),
			Status:       string(a.NewStatus),
			OccurredAt:   occurred,
			Remarks:      req.Remarks,
		}
		if err := s.transactions.Append(ctx, tx, rec); err != nil {
			return nil, err
		}
		result.TransactionIDs = append(result.TransactionIDs, rec.ID)
	}

	if dist.Excess.IsPositive() {
		if _, err := s.credits.Add(ctx, tx, req.CustomerID, dist.Excess); err != nil {
			return nil, err
		}
		rec := domain.TransactionRecord{
			ID:         uuid.New(),
			CustomerID: req.CustomerID,
			Amount:     dist.Excess,
			Kind:       domain.TxDeposit,
			Status:     "credited",
			OccurredAt: occurred,
			Remarks:    req.Remarks,
		}
		if err := s.transactions.Append(ctx, tx, rec); err != nil {
			return nil, err
		}
		result.TransactionIDs = append(result.TransactionIDs, rec.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.StoreError{Op: "payment.commit", Err: err}
	}

	invalidateDuesCache(ctx, s.cache, s.log, req.CustomerID)
	if s.notify != nil {
		_ = s.notify.PaymentProcessed(ctx, result)
	}

	s.log.WithFields(logrus.Fields{
		"customer_id":  req.CustomerID,
		"amount":       req.Amount,
		"processed":    result.TotalProcessed,
		"excess":       result.Excess,
		"mode":         req.Mode,
		"target":       target,
		"transactions": len(result.TransactionIDs),
	}).Info("payment processed")

	return result, nil
}

func txKindFor(kind domain.ObligationKind) domain.TransactionKind {
	if kind == domain.KindRent {
		return domain.TxRent
	}
	return domain.TxInstallment
}
