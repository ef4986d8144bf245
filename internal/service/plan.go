package service

import (
	"context"
	"time"

	"billing-engine/internal/billing"
	"billing-engine/internal/clients"
	"billing-engine/internal/domain"

	"github.com/sirupsen/logrus"
)

type PlanObligationStore interface {
	ExistsForPeriod(ctx context.Context, customerID, periodKey string) (bool, error)
	Insert(ctx context.Context, ob domain.Obligation) error
}

// PlanService turns plan requests into persisted obligation schedules.
type PlanService struct {
	obligations PlanObligationStore
	cache       *clients.RedisClient
	log         *logrus.Logger
	now         func() time.Time
}

func NewPlanService(obligations PlanObligationStore, cache *clients.RedisClient, log *logrus.Logger) *PlanService {
	return &PlanService{
		obligations: obligations,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// CreateInstallmentPlan generates and stores a fixed-count installment
// schedule. The generator guarantees the persisted amounts sum to
// total - down exactly.
func (s *PlanService) CreateInstallmentPlan(ctx context.Context, req domain.InstallmentPlanRequest) ([]domain.Obligation, error) {
	if req.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer id is required"}
	}
	start := req.StartDate
	if start.IsZero() {
		start = s.now()
	}

	schedule, err := billing.GenerateInstallmentSchedule(req.CustomerID, req.TotalAmount, req.DownPayment, req.Count, start)
	if err != nil {
		return nil, err
	}

	for _, ob := range schedule {
		if err := s.obligations.Insert(ctx, ob); err != nil {
			return nil, err
		}
	}

	invalidateDuesCache(ctx, s.cache, s.log, req.CustomerID)
	s.log.WithFields(logrus.Fields{
		"customer_id":  req.CustomerID,
		"installments": len(schedule),
		"financed":     req.TotalAmount.Sub(req.DownPayment),
	}).Info("installment plan created")

	return schedule, nil
}

// CreateRentPlan enrolls a customer into rent billing: a prorated first
// period plus full months, skipping any period the customer already has. With
// CycleCount == 0 the schedule catches up through the current month, which
// heals gaps left by missed daily runs.
func (s *PlanService) CreateRentPlan(ctx context.Context, req domain.RentPlanRequest) ([]domain.Obligation, error) {
	if req.CustomerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer id is required"}
	}
	if req.JoinDate.IsZero() {
		return nil, &domain.ValidationError{Field: "join_date", Message: "join date is required"}
	}

	opts := billing.RecurringOptions{CycleCount: req.CycleCount}
	if req.CycleCount <= 0 {
		opts.Through = s.now()
	}

	schedule, err := billing.GenerateRecurringSchedule(req.CustomerID, req.MonthlyAmount, req.JoinDate, opts)
	if err != nil {
		return nil, err
	}

	var created []domain.Obligation
	for _, ob := range schedule {
		exists, err := s.obligations.ExistsForPeriod(ctx, req.CustomerID, ob.SequenceLabel)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		if err := s.obligations.Insert(ctx, ob); err != nil {
			return created, err
		}
		created = append(created, ob)
	}

	invalidateDuesCache(ctx, s.cache, s.log, req.CustomerID)
	s.log.WithFields(logrus.Fields{
		"customer_id": req.CustomerID,
		"generated":   len(schedule),
		"created":     len(created),
	}).Info("rent plan created")

	return created, nil
}
