package service

import (
	"context"
	"time"

	"billing-engine/internal/billing"
	"billing-engine/internal/clients"
	"billing-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const dailyJobName = "daily_billing"

// SchedulerObligationStore is the slice of the obligation repository the
// daily job needs.
type SchedulerObligationStore interface {
	ListActiveRentSubscribers(ctx context.Context) ([]domain.RentSubscriber, error)
	ExistsForPeriod(ctx context.Context, customerID, periodKey string) (bool, error)
	Insert(ctx context.Context, ob domain.Obligation) error
	MarkOverdue(ctx context.Context, kind domain.ObligationKind, cutoff time.Time) ([]string, error)
}

type JobStateStore interface {
	LastRun(ctx context.Context, name string) (*time.Time, error)
	MarkRun(ctx context.Context, name string, day time.Time) error
}

// SchedulerService runs the daily billing pass: rent generation for the
// current month and the overdue sweep every day. The pass is idempotent at
// two levels: a durable last-run marker short-circuits same-day reruns, and
// the per-period uniqueness check makes a rerun that slips past the marker a
// no-op anyway.
type SchedulerService struct {
	obligations SchedulerObligationStore
	jobs        JobStateStore
	cache       *clients.RedisClient
	notify      *clients.Notifier
	log         *logrus.Logger
	now         func() time.Time
}

func NewSchedulerService(
	obligations SchedulerObligationStore,
	jobs JobStateStore,
	cache *clients.RedisClient,
	notify *clients.Notifier,
	log *logrus.Logger,
) *SchedulerService {
	return &SchedulerService{
		obligations: obligations,
		jobs:        jobs,
		cache:       cache,
		notify:      notify,
		log:         log,
		now:         time.Now,
	}
}

// RunDaily executes one billing day. Per-customer generation failures are
// collected into the report and do not abort the rest of the batch; storage
// failures on the shared steps do.
func (s *SchedulerService) RunDaily(ctx context.Context) (domain.DailyRunReport, error) {
	today := day(s.now())
	report := domain.DailyRunReport{RunDate: today}

	last, err := s.jobs.LastRun(ctx, dailyJobName)
	if err != nil {
		return report, err
	}
	if last != nil && !day(*last).Before(today) {
		report.AlreadyRan = true
		s.log.WithField("run_date", today.Format("2006-01-02")).Info("daily billing already ran, skipping")
		return report, nil
	}

	affected := map[string]struct{}{}

	if shouldGenerate(today, last) {
		if err := s.generateRentPeriod(ctx, today, &report, affected); err != nil {
			return report, err
		}
	}

	if err := s.sweepOverdue(ctx, today, &report, affected); err != nil {
		return report, err
	}

	report.AffectedCustomerCount = len(affected)

	if err := s.jobs.MarkRun(ctx, dailyJobName, today); err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"run_date":             today.Format("2006-01-02"),
		"generated":            report.GeneratedCount,
		"overdue_installments": report.OverdueInstallmentCount,
		"overdue_rents":        report.OverdueRentCount,
		"affected_customers":   report.AffectedCustomerCount,
		"errors":               len(report.Errors),
	}).Info("daily billing finished")

	return report, nil
}

// shouldGenerate decides whether today's pass creates the current month's
// rent obligations. Normally that happens on the first of the month; when no
// run has covered this month yet (missed cron, fresh deploy), the first run
// that does land catches up instead of silently skipping the month.
func shouldGenerate(today time.Time, last *time.Time) bool {
	if today.Day() == 1 {
		return true
	}
	return last == nil || day(*last).Before(billing.BeginningOfMonth(today))
}

func (s *SchedulerService) generateRentPeriod(ctx context.Context, today time.Time, report *domain.DailyRunReport, affected map[string]struct{}) error {
	subscribers, err := s.obligations.ListActiveRentSubscribers(ctx)
	if err != nil {
		return err
	}

	period := billing.PeriodKey(today)
	due := billing.DueDateForPeriod(today)

	for _, sub := range subscribers {
		// interruptible between customers; completed inserts stay committed
		// and the next run picks up where this one stopped
		if err := ctx.Err(); err != nil {
			return err
		}

		exists, err := s.obligations.ExistsForPeriod(ctx, sub.CustomerID, period)
		if err != nil {
			report.Errors = append(report.Errors, domain.CustomerError{
				CustomerID: sub.CustomerID, Step: "generate", Message: err.Error(),
			})
			continue
		}
		if exists {
			continue
		}

		ob := domain.Obligation{
			ID:              uuid.New(),
			CustomerID:      sub.CustomerID,
			Kind:            domain.KindRent,
			SequenceLabel:   period,
			Amount:          sub.MonthlyAmount,
			DueDate:         due,
			PaidAmount:      decimal.Zero,
			RemainingAmount: sub.MonthlyAmount,
			Status:          domain.StatusDue,
		}
		if err := s.obligations.Insert(ctx, ob); err != nil {
			report.Errors = append(report.Errors, domain.CustomerError{
				CustomerID: sub.CustomerID, Step: "generate", Message: err.Error(),
			})
			continue
		}

		report.GeneratedCount++
		affected[sub.CustomerID] = struct{}{}
		invalidateDuesCache(ctx, s.cache, s.log, sub.CustomerID)
	}
	return nil
}

func (s *SchedulerService) sweepOverdue(ctx context.Context, today time.Time, report *domain.DailyRunReport, affected map[string]struct{}) error {
	instCustomers, err := s.obligations.MarkOverdue(ctx, domain.KindInstallment, today.AddDate(0, 0, -billing.InstallmentGraceDays))
	if err != nil {
		return err
	}
	rentCustomers, err := s.obligations.MarkOverdue(ctx, domain.KindRent, today.AddDate(0, 0, -billing.RentGraceDays))
	if err != nil {
		return err
	}

	report.OverdueInstallmentCount = len(instCustomers)
	report.OverdueRentCount = len(rentCustomers)

	type overdueCounts struct {
		installments int
		rents        int
	}
	counts := map[string]*overdueCounts{}
	for _, id := range instCustomers {
		if counts[id] == nil {
			counts[id] = &overdueCounts{}
		}
		counts[id].installments++
	}
	for _, id := range rentCustomers {
		if counts[id] == nil {
			counts[id] = &overdueCounts{}
		}
		counts[id].rents++
	}

	for id, c := range counts {
		affected[id] = struct{}{}
		invalidateDuesCache(ctx, s.cache, s.log, id)
		if s.notify != nil {
			_ = s.notify.ObligationsOverdue(ctx, id, c.installments, c.rents)
		}
	}
	return nil
}
