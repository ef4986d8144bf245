package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"billing-engine/internal/clients"
	"billing-engine/internal/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	statementTTL    = 30 * time.Minute
	statementSetKey = "statement_ids"

	maxStatementRows = 500_000
)

// StatementStatus is the redis-backed lifecycle record of one statement
// render: progress from 0 to 100, then either a file URL or an error.
type StatementStatus struct {
	Key        string    `json:"key"`
	CustomerID string    `json:"customer_id"`
	Progress   float64   `json:"progress"`
	FileURL    *string   `json:"file_url"`
	Error      *string   `json:"error"`
	Created    time.Time `json:"created"`
}

type StatementObligationStore interface {
	HistoryByCustomer(ctx context.Context, customerID string) ([]domain.Obligation, error)
}

type StatementTransactionStore interface {
	ListByCustomer(ctx context.Context, customerID string) ([]domain.TransactionRecord, error)
}

type ObligationColumn struct {
	Header string
	Value  func(o domain.Obligation) any
}

var obligationColumns = map[string]ObligationColumn{
	"id":             {Header: "ID", Value: func(o domain.Obligation) any { return o.ID.String() }},
	"kind":           {Header: "Kind", Value: func(o domain.Obligation) any { return string(o.Kind) }},
	"sequence_label": {Header: "Sequence", Value: func(o domain.Obligation) any { return o.SequenceLabel }},
	"amount":         {Header: "Amount", Value: func(o domain.Obligation) any { return o.Amount.InexactFloat64() }},
	"due_date":       {Header: "Due date", Value: func(o domain.Obligation) any { return o.DueDate.Format("2006-01-02") }},
	"paid_amount":    {Header: "Paid", Value: func(o domain.Obligation) any { return o.PaidAmount.InexactFloat64() }},
	"remaining_amount": {Header: "Remaining", Value: func(o domain.Obligation) any {
		return o.RemainingAmount.InexactFloat64()
	}},
	"status": {Header: "Status", Value: func(o domain.Obligation) any { return string(o.Status) }},
	"prorated": {Header: "Prorated", Value: func(o domain.Obligation) any {
		if !o.IsProrated {
			return ""
		}
		return fmt.Sprintf("%d days @ %s/day", o.ProratedDays, o.DailyRate)
	}},
}

var obligationColumnOrder = []string{
	"id", "kind", "sequence_label", "amount", "due_date",
	"paid_amount", "remaining_amount", "status", "prorated",
}

type TransactionColumn struct {
	Header string
	Value  func(t domain.TransactionRecord) any
}

var transactionColumns = map[string]TransactionColumn{
	"id":     {Header: "ID", Value: func(t domain.TransactionRecord) any { return t.ID.String() }},
	"amount": {Header: "Amount", Value: func(t domain.TransactionRecord) any { return t.Amount.InexactFloat64() }},
	"obligation_id": {Header: "Obligation", Value: func(t domain.TransactionRecord) any {
		if t.ObligationID == nil {
			return ""
		}
		return t.ObligationID.String()
	}},
	"kind":        {Header: "Kind", Value: func(t domain.TransactionRecord) any { return string(t.Kind) }},
	"status":      {Header: "Status", Value: func(t domain.TransactionRecord) any { return t.Status }},
	"occurred_at": {Header: "Date", Value: func(t domain.TransactionRecord) any { return t.OccurredAt.Format("2006-01-02 15:04:05") }},
	"remarks":     {Header: "Remarks", Value: func(t domain.TransactionRecord) any { return t.Remarks }},
}

var transactionColumnOrder = []string{
	"id", "amount", "obligation_id", "kind", "status", "occurred_at", "remarks",
}

// StatementService renders account statements to xlsx in the background:
// an Obligations sheet with the full schedule history and a Transactions
// sheet with the payment audit trail. Progress and the final download URL
// live in redis under a 30 minute TTL.
type StatementService struct {
	obligations  StatementObligationStore
	transactions StatementTransactionStore
	redis        *clients.RedisClient
	storage      *clients.StorageClient
	s3           *clients.S3Client
	notify       *clients.Notifier
	log          *logrus.Logger
}

func NewStatementService(
	obligations StatementObligationStore,
	transactions StatementTransactionStore,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	notify *clients.Notifier,
	log *logrus.Logger,
) *StatementService {
	return &StatementService{
		obligations:  obligations,
		transactions: transactions,
		redis:        redis,
		storage:      storage,
		s3:           s3,
		notify:       notify,
		log:          log,
	}
}

func (s *StatementService) saveStatus(ctx context.Context, st *StatementStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), statementTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, statementSetKey, st.Key)
}

// StartStatement kicks off a background render and returns the statement id
// the caller polls (or listens on the websocket channel) for. An empty
// selection means every obligation column; unknown keys are skipped.
func (s *StatementService) StartStatement(ctx context.Context, customerID string, selected []string) (string, error) {
	if customerID == "" {
		return "", &domain.ValidationError{Field: "customer_id", Message: "customer id is required"}
	}
	if s.redis == nil {
		return "", errors.New("redis client not configured")
	}

	if len(selected) == 0 {
		selected = obligationColumnOrder
	}
	var cols []string
	for _, key := range selected {
		if _, ok := obligationColumns[key]; ok {
			cols = append(cols, key)
		}
	}
	if len(cols) == 0 {
		return "", &domain.ValidationError{Field: "fields", Message: "no known columns selected"}
	}

	statementID := fmt.Sprintf("statements:%s", uuid.NewString())
	status := &StatementStatus{
		Key:        statementID,
		CustomerID: customerID,
		Progress:   0,
		Created:    time.Now(),
	}
	if err := s.saveStatus(ctx, status); err != nil {
		return "", err
	}

	go s.runStatement(context.Background(), statementID, customerID, cols, status.Created)

	return statementID, nil
}

func (s *StatementService) runStatement(ctx context.Context, statementID, customerID string, cols []string, createdAt time.Time) {
	status := &StatementStatus{
		Key:        statementID,
		CustomerID: customerID,
		Progress:   0,
		Created:    createdAt,
	}

	fail := func(err error) {
		errStr := err.Error()
		s.log.WithError(err).WithFields(logrus.Fields{
			"statement_id": statementID,
			"customer_id":  customerID,
		}).Error("statement render failed")
		status.Error = &errStr
		status.Progress = 100
		_ = s.saveStatus(ctx, status)
		if s.notify != nil {
			_ = s.notify.StatementFailed(ctx, customerID, statementID, errStr)
		}
	}

	obligations, err := s.obligations.HistoryByCustomer(ctx, customerID)
	if err != nil {
		fail(err)
		return
	}
	transactions, err := s.transactions.ListByCustomer(ctx, customerID)
	if err != nil {
		fail(err)
		return
	}
	if len(obligations)+len(transactions) > maxStatementRows {
		fail(fmt.Errorf("too many rows for a statement (more than %d)", maxStatementRows))
		return
	}

	f := excelize.NewFile()
	obligationSheet := "Obligations"
	f.SetSheetName(f.GetSheetName(0), obligationSheet)
	_, _ = f.NewSheet("Transactions")

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("customer_%s", customerID)})

	total := len(obligations) + len(transactions)
	written := 0
	reportProgress := func(stage string) {
		raw := 0.0
		if total > 0 {
			raw = float64(written) / float64(total) * 100.0
		}
		progress := math.Round(raw)
		if progress >= 100 {
			progress = 95
		}
		status.Progress = progress
		_ = s.saveStatus(ctx, status)
		if s.notify != nil {
			_ = s.notify.StatementProgress(ctx, customerID, statementID, progress, stage)
		}
	}

	for i, key := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(obligationSheet, cell, obligationColumns[key].Header)
	}
	for rowIdx, o := range obligations {
		for colIdx, key := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(obligationSheet, cell, obligationColumns[key].Value(o))
		}
		written++
		if written%1000 == 0 {
			reportProgress("generating")
		}
	}

	for i, key := range transactionColumnOrder {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue("Transactions", cell, transactionColumns[key].Header)
	}
	for rowIdx, t := range transactions {
		for colIdx, key := range transactionColumnOrder {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue("Transactions", cell, transactionColumns[key].Value(t))
		}
		written++
		if written%1000 == 0 {
			reportProgress("generating")
		}
	}
	reportProgress("saving")

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail(err)
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("statement_%s_%s.xlsx", customerID, time.Now().Format("20060102_150405"))

	savedName, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		fail(err)
		return
	}
	url := s.storage.GetURL(savedName)

	if s.s3 != nil {
		if _, err := s.s3.UploadXLSX(ctx, savedName, data); err != nil {
			// local copy already succeeded; the upload is best effort
			s.log.WithError(err).WithField("statement_id", statementID).Warn("s3 upload failed")
		}
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.notify != nil {
		_ = s.notify.StatementProgress(ctx, customerID, statementID, 100, "ready")
		_ = s.notify.StatementReady(ctx, customerID, statementID, url, fileName)
	}

	s.log.WithFields(logrus.Fields{
		"statement_id": statementID,
		"customer_id":  customerID,
		"obligations":  len(obligations),
		"transactions": len(transactions),
	}).Info("statement rendered")
}

// GetStatement returns one statement's status. Statements are scoped to the
// requesting customer; a key owned by someone else reads as not found.
func (s *StatementService) GetStatement(ctx context.Context, statementID, customerID string) (map[string]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, statementID)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read statement status: %w", err)
	}

	var status StatementStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse statement status: %w", err)
	}
	if status.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}

	return statementMap(status), nil
}

// ListStatements returns the customer's known statements, newest first.
// Expired statuses silently fall off the list when their keys age out.
func (s *StatementService) ListStatements(ctx context.Context, customerID string) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, statementSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement keys: %w", err)
	}

	var statuses []StatementStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var status StatementStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.CustomerID == customerID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var out []interface{}
	for _, status := range statuses {
		out = append(out, statementMap(status))
	}
	return out, nil
}

func statementMap(status StatementStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":         status.Key,
		"customer_id": status.CustomerID,
		"progress":    status.Progress,
		"file_url":    status.FileURL,
		"error":       status.Error,
		"created_at":  humanizeAgo(status.Created),
	}
}

func humanizeAgo(t time.Time) string {
	now := time.Now()
	if t.After(now) {
		return "just now"
	}

	diff := now.Sub(t)
	minutes := int(diff.Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d %s ago", minutes, plural(minutes, "minute"))
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, plural(hours, "hour"))
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d %s ago", days, plural(days, "day"))
	}
	return t.Format("2006-01-02 15:04")
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
