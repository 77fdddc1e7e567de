package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetByQuickbooksID retrieves an invoice by its remote accounting ID
func (r *InvoiceRepository) GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Invoice, error) {
	var invoice models.Invoice
	result := r.db.WithContext(ctx).First(&invoice, "quickbooks_id = ?", quickbooksID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by quickbooks id: %w", result.Error)
	}
	return &invoice, nil
}

// GetByNumberForCustomer matches an invoice by its document number scoped to
// one customer, the natural key used during pull
func (r *InvoiceRepository) GetByNumberForCustomer(ctx context.Context, customerID, invoiceNumber string) (*models.Invoice, error) {
	var invoice models.Invoice
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND invoice_number = ?", customerID, invoiceNumber).
		Order("updated_at DESC").
		First(&invoice)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by number: %w", result.Error)
	}
	return &invoice, nil
}

// ListPushPending retrieves invoices that have never been pushed or were
// edited locally since their last push
func (r *InvoiceRepository) ListPushPending(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	result := r.db.WithContext(ctx).
		Where("quickbooks_id IS NULL OR sync_status = ?", models.SyncStatusPending).
		Order("created_at ASC").
		Find(&invoices)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list push-pending invoices: %w", result.Error)
	}
	return invoices, nil
}

// Create inserts a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, invoice models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to an invoice row
func (r *InvoiceRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update invoice: %w", result.Error)
	}
	return nil
}

// MarkSynced records a successful push or pull for the invoice
func (r *InvoiceRepository) MarkSynced(ctx context.Context, id string, quickbooksID string) error {
	now := time.Now()
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"quickbooks_id": quickbooksID,
		"sync_status":   models.SyncStatusSynced,
		"sync_error":    nil,
		"synced_at":     &now,
	})
}

// MarkSyncError records a per-record sync failure on the invoice itself
func (r *InvoiceRepository) MarkSyncError(ctx context.Context, id string, message string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"sync_status": models.SyncStatusError,
		"sync_error":  message,
	})
}
