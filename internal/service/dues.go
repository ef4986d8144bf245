package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"billing-engine/internal/billing"
	"billing-engine/internal/clients"
	"billing-engine/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const duesCacheTTL = 5 * time.Minute

type DuesObligationStore interface {
	OutstandingByCustomer(ctx context.Context, customerID string, kind domain.ObligationKind) ([]domain.Obligation, error)
}

type CreditStore interface {
	Get(ctx context.Context, customerID string) (domain.CreditBalance, error)
}

// DuesService serves the customer-facing "what do I owe" view. Summaries are
// cached for a short TTL; every mutation path (payment, plan creation, daily
// job) deletes the key, so the TTL only bounds staleness from out-of-band
// writes.
type DuesService struct {
	obligations DuesObligationStore
	credits     CreditStore
	cache       *clients.RedisClient
	log         *logrus.Logger
	now         func() time.Time
}

func NewDuesService(obligations DuesObligationStore, credits CreditStore, cache *clients.RedisClient, log *logrus.Logger) *DuesService {
	return &DuesService{
		obligations: obligations,
		credits:     credits,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

func (s *DuesService) Summary(ctx context.Context, customerID string) (*domain.DuesSummary, error) {
	if customerID == "" {
		return nil, &domain.ValidationError{Field: "customer_id", Message: "customer id is required"}
	}

	key := fmt.Sprintf(duesCacheKeyFormat, customerID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached domain.DuesSummary
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	today := day(s.now())

	installments, err := s.obligations.OutstandingByCustomer(ctx, customerID, domain.KindInstallment)
	if err != nil {
		return nil, err
	}
	rents, err := s.obligations.OutstandingByCustomer(ctx, customerID, domain.KindRent)
	if err != nil {
		return nil, err
	}
	credit, err := s.credits.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	instDues, instTotal := decorateDues(installments, today)
	rentDues, rentTotal := decorateDues(rents, today)

	summary := &domain.DuesSummary{
		CustomerID:       customerID,
		Installments:     instDues,
		Rents:            rentDues,
		TotalOutstanding: instTotal.Add(rentTotal),
		CreditBalance:    credit.Balance,
		GeneratedAt:      s.now(),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, payload, duesCacheTTL); err != nil {
				s.log.WithError(err).WithField("customer_id", customerID).Warn("failed to cache dues summary")
			}
		}
	}

	return summary, nil
}

func decorateDues(obligations []domain.Obligation, today time.Time) ([]domain.DuesObligation, decimal.Decimal) {
	out := make([]domain.DuesObligation, 0, len(obligations))
	total := decimal.Zero
	for _, o := range obligations {
		out = append(out, domain.DuesObligation{
			Obligation:  o,
			OverdueDays: billing.OverdueDays(o.DueDate, today, billing.GraceDaysFor(o.Kind)),
		})
		total = total.Add(o.RemainingAmount)
	}
	return out, total
}
