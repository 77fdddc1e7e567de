package service

import (
	"context"
	"errors"
	"log"

	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
)

// ErrMissingCompanyID rejects a job before any remote call is made. Without
// a realm there is no tenant to sync against, so this fails closed.
var ErrMissingCompanyID = errors.New("sync job is missing its company id")

// SyncJobStore is the slice of the job repository the processors need
type SyncJobStore interface {
	UpdateStatus(ctx context.Context, jobID string, status models.SyncJobStatus, lastError *string) error
	Complete(ctx context.Context, jobID string, payload models.JSONB) error
}

// CustomerStore interface for dependency injection
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListPushPending(ctx context.Context) ([]models.Customer, error)
	Create(ctx context.Context, customer models.Customer) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	MarkSynced(ctx context.Context, id string, quickbooksID string) error
	MarkSyncError(ctx context.Context, id string, message string) error
}

// InvoiceStore interface for dependency injection
type InvoiceStore interface {
	GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Invoice, error)
	GetByNumberForCustomer(ctx context.Context, customerID, invoiceNumber string) (*models.Invoice, error)
	ListPushPending(ctx context.Context) ([]models.Invoice, error)
	Create(ctx context.Context, invoice models.Invoice) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	MarkSynced(ctx context.Context, id string, quickbooksID string) error
	MarkSyncError(ctx context.Context, id string, message string) error
}

// OrderStore interface for dependency injection
type OrderStore interface {
	GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Order, error)
	GetByNumberForCustomer(ctx context.Context, customerID, orderNumber string) (*models.Order, error)
	ListPushPending(ctx context.Context) ([]models.Order, error)
	Create(ctx context.Context, order models.Order) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	MarkSynced(ctx context.Context, id string, quickbooksID string) error
	MarkSyncError(ctx context.Context, id string, message string) error
}

// CustomersAPI is the remote surface the customer processor uses
type CustomersAPI interface {
	QueryCustomers(ctx context.Context, realmID string) ([]quickbooks.Customer, error)
	GetCustomer(ctx context.Context, realmID, id string) (*quickbooks.Customer, error)
	CreateCustomer(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error)
	UpdateCustomer(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error)
}

// InvoicesAPI is the remote surface the invoice processor uses
type InvoicesAPI interface {
	QueryInvoices(ctx context.Context, realmID string) ([]quickbooks.Invoice, error)
	GetInvoice(ctx context.Context, realmID, id string) (*quickbooks.Invoice, error)
	CreateInvoice(ctx context.Context, realmID string, invoice quickbooks.Invoice) (*quickbooks.Invoice, error)
	UpdateInvoice(ctx context.Context, realmID string, invoice quickbooks.Invoice) (*quickbooks.Invoice, error)
}

// EstimatesAPI is the remote surface the order processor uses
type EstimatesAPI interface {
	QueryEstimates(ctx context.Context, realmID string) ([]quickbooks.Estimate, error)
	GetEstimate(ctx context.Context, realmID, id string) (*quickbooks.Estimate, error)
	CreateEstimate(ctx context.Context, realmID string, estimate quickbooks.Estimate) (*quickbooks.Estimate, error)
	UpdateEstimate(ctx context.Context, realmID string, estimate quickbooks.Estimate) (*quickbooks.Estimate, error)
}

// errSkipRecord marks a pulled record that cannot be matched to any local
// row; it is skipped and counted, not treated as a failure.
var errSkipRecord = errors.New("no local match for remote record")

// failJob moves a job to its terminal error state. Used for job-level
// failures only: configuration, authentication, tenancy, or a failed remote
// query. Per-record failures never come through here.
func failJob(ctx context.Context, jobs SyncJobStore, jobID string, cause error) {
	msg := cause.Error()
	if err := jobs.UpdateStatus(ctx, jobID, models.JobStatusError, &msg); err != nil {
		log.Printf("Warning: failed to mark job %s as errored: %v", jobID, err)
	}
}
