package mapper

import (
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
)

// qbDateLayout is how the QuickBooks API serializes transaction dates.
const qbDateLayout = "2006-01-02"

// InvoiceFromRemote maps a QuickBooks invoice onto the local shape. The
// customer linkage is resolved by the caller from CustomerRef.
func InvoiceFromRemote(qi quickbooks.Invoice) (models.Invoice, error) {
	if qi.CustomerRef == nil || qi.CustomerRef.Value == "" {
		return models.Invoice{}, fmt.Errorf("remote invoice %s has no customer reference", qi.ID)
	}

	invoice := models.Invoice{
		InvoiceNumber: qi.DocNumber,
		TotalAmount:   qi.TotalAmt,
	}

	if qi.TxnDate != "" {
		issued, err := time.Parse(qbDateLayout, qi.TxnDate)
		if err != nil {
			return models.Invoice{}, fmt.Errorf("remote invoice %s has bad txn date %q: %w", qi.ID, qi.TxnDate, err)
		}
		invoice.IssuedAt = issued
	}
	if qi.DueDate != "" {
		due, err := time.Parse(qbDateLayout, qi.DueDate)
		if err != nil {
			return models.Invoice{}, fmt.Errorf("remote invoice %s has bad due date %q: %w", qi.ID, qi.DueDate, err)
		}
		invoice.DueDate = &due
	}

	return invoice, nil
}

// InvoiceToRemote maps a local invoice onto the QuickBooks shape, pointed at
// the customer's remote ID.
func InvoiceToRemote(inv models.Invoice, customerQuickbooksID string) quickbooks.Invoice {
	qi := quickbooks.Invoice{
		DocNumber:   inv.InvoiceNumber,
		TotalAmt:    inv.TotalAmount,
		CustomerRef: &quickbooks.Ref{Value: customerQuickbooksID},
	}
	if !inv.IssuedAt.IsZero() {
		qi.TxnDate = inv.IssuedAt.Format(qbDateLayout)
	}
	if inv.DueDate != nil {
		qi.DueDate = inv.DueDate.Format(qbDateLayout)
	}
	return qi
}
