package clients

import (
	"context"
	"fmt"

	"billing-engine/internal/domain"
	ws "billing-engine/internal/transport/websocket"
)

// Notifier assembles billing event payloads and publishes them on the
// in-process hub. Delivery beyond the hub (mail, SMS, push) is someone
// else's job.
type Notifier struct {
	hub *ws.Hub
}

func NewNotifier(hub *ws.Hub) *Notifier {
	return &Notifier{hub: hub}
}

// PaymentProcessed announces a settled payment with its full allocation
// breakdown.
func (n *Notifier) PaymentProcessed(ctx context.Context, result *domain.PaymentResult) error {
	if n.hub == nil || result == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "payment_processed",
		Channel: fmt.Sprintf("billing#%s", result.CustomerID),
		Data: map[string]interface{}{
			"customer_id":     result.CustomerID,
			"total_processed": result.TotalProcessed,
			"excess":          result.Excess,
			"installments":    result.Installments,
			"rents":           result.Rents,
		},
	}

	n.hub.Broadcast(result.CustomerID, message)
	return nil
}

// ObligationsOverdue tells a customer the daily sweep flagged some of their
// obligations.
func (n *Notifier) ObligationsOverdue(ctx context.Context, customerID string, installments, rents int) error {
	if n.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "obligations_overdue",
		Channel: fmt.Sprintf("billing#%s", customerID),
		Data: map[string]interface{}{
			"customer_id":          customerID,
			"overdue_installments": installments,
			"overdue_rents":        rents,
		},
	}

	n.hub.Broadcast(customerID, message)
	return nil
}

// StatementProgress reports rendering progress of an account statement.
func (n *Notifier) StatementProgress(ctx context.Context, customerID, statementID string, progress float64, stage string) error {
	if n.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       statementID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "statement_progress",
		Channel: fmt.Sprintf("statements#%s", customerID),
		Data:    data,
	}

	n.hub.Broadcast(customerID, message)
	return nil
}

// StatementReady announces a finished statement with its download URL.
func (n *Notifier) StatementReady(ctx context.Context, customerID, statementID, url, filename string) error {
	if n.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "statement_ready",
		Channel: fmt.Sprintf("statements#%s", customerID),
		Data: map[string]interface{}{
			"id":          statementID,
			"url":         url,
			"filename":    filename,
			"customer_id": customerID,
		},
	}

	n.hub.Broadcast(customerID, message)
	return nil
}

// StatementFailed announces a statement render failure with the error text.
func (n *Notifier) StatementFailed(ctx context.Context, customerID, statementID, errMsg string) error {
	if n.hub == nil {
		return nil
	}

	message := &ws.Message{
		Type:    "statement_failed",
		Channel: fmt.Sprintf("statements#%s", customerID),
		Data: map[string]interface{}{
			"id":          statementID,
			"error":       errMsg,
			"customer_id": customerID,
		},
	}

	n.hub.Broadcast(customerID, message)
	return nil
}
