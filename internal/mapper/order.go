package mapper

import (
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
)

// OrderFromRemote maps a QuickBooks estimate onto the local order shape.
func OrderFromRemote(qe quickbooks.Estimate) (models.Order, error) {
	if qe.CustomerRef == nil || qe.CustomerRef.Value == "" {
		return models.Order{}, fmt.Errorf("remote estimate %s has no customer reference", qe.ID)
	}

	order := models.Order{
		OrderNumber: qe.DocNumber,
		TotalAmount: qe.TotalAmt,
	}
	if qe.TxnDate != "" {
		placed, err := time.Parse(qbDateLayout, qe.TxnDate)
		if err != nil {
			return models.Order{}, fmt.Errorf("remote estimate %s has bad txn date %q: %w", qe.ID, qe.TxnDate, err)
		}
		order.PlacedAt = placed
	}
	return order, nil
}

// OrderToRemote maps a local order onto the QuickBooks estimate shape.
func OrderToRemote(o models.Order, customerQuickbooksID string) quickbooks.Estimate {
	qe := quickbooks.Estimate{
		DocNumber:   o.OrderNumber,
		TotalAmt:    o.TotalAmount,
		CustomerRef: &quickbooks.Ref{Value: customerQuickbooksID},
	}
	if !o.PlacedAt.IsZero() {
		qe.TxnDate = o.PlacedAt.Format(qbDateLayout)
	}
	return qe
}
