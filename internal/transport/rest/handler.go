package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"billing-engine/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error)
}

type PlanCreator interface {
	CreateInstallmentPlan(ctx context.Context, req domain.InstallmentPlanRequest) ([]domain.Obligation, error)
	CreateRentPlan(ctx context.Context, req domain.RentPlanRequest) ([]domain.Obligation, error)
}

type DuesReader interface {
	Summary(ctx context.Context, customerID string) (*domain.DuesSummary, error)
}

type DailyRunner interface {
	RunDaily(ctx context.Context) (domain.DailyRunReport, error)
}

type StatementProvider interface {
	StartStatement(ctx context.Context, customerID string, selected []string) (string, error)
	GetStatement(ctx context.Context, statementID, customerID string) (map[string]interface{}, error)
	ListStatements(ctx context.Context, customerID string) ([]interface{}, error)
}

type Handler struct {
	payments   PaymentProcessor
	plans      PlanCreator
	dues       DuesReader
	scheduler  DailyRunner
	statements StatementProvider
	log        *logrus.Logger
}

func NewHandler(payments PaymentProcessor, plans PlanCreator, dues DuesReader, scheduler DailyRunner, statements StatementProvider, log *logrus.Logger) *Handler {
	return &Handler{
		payments:   payments,
		plans:      plans,
		dues:       dues,
		scheduler:  scheduler,
		statements: statements,
		log:        log,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "billing engine")
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	r.Post("/payments", h.processPayment)

	r.Route("/plans", func(r chi.Router) {
		r.Post("/installments", h.createInstallmentPlan)
		r.Post("/rent", h.createRentPlan)
	})

	r.Route("/customers/{customer_id}", func(r chi.Router) {
		r.Get("/dues", h.getDues)
		r.Route("/statements", func(r chi.Router) {
			r.Get("/", h.listStatements)
			r.Post("/", h.startStatement)
			r.Get("/{statement_id}", h.getStatement)
		})
	})

	r.Post("/jobs/daily", h.runDaily)

	return r
}

// writeServiceError maps the domain error taxonomy onto the response
// envelope. Anything unknown stays an opaque 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		ErrorBadRequest(w, vErr.Error())
	case errors.Is(err, domain.ErrNoPendingDues):
		ErrorUnprocessable(w, "no pending dues to apply payment against")
	case errors.Is(err, domain.ErrConflict):
		ErrorConflict(w, "obligations changed concurrently, retry the payment")
	default:
		h.log.WithError(err).Error("request failed")
		ErrorInternal(w, "internal error")
	}
}
