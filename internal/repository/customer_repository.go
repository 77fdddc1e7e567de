package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrCustomerNotFound = errors.New("customer not found")

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	result := r.db.WithContext(ctx).First(&customer, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", result.Error)
	}
	return &customer, nil
}

// GetByQuickbooksID retrieves a customer by its remote accounting ID
func (r *CustomerRepository) GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Customer, error) {
	var customer models.Customer
	result := r.db.WithContext(ctx).First(&customer, "quickbooks_id = ?", quickbooksID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by quickbooks id: %w", result.Error)
	}
	return &customer, nil
}

// GetByEmail retrieves a customer by email. Duplicate emails are tie-broken
// by most recent update so repeated pulls land on the same row.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	result := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("updated_at DESC").
		First(&customer)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by email: %w", result.Error)
	}
	return &customer, nil
}

// ListPushPending retrieves customers that have never been pushed or were
// edited locally since their last push
func (r *CustomerRepository) ListPushPending(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	result := r.db.WithContext(ctx).
		Where("quickbooks_id IS NULL OR sync_status = ?", models.SyncStatusPending).
		Order("created_at ASC").
		Find(&customers)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list push-pending customers: %w", result.Error)
	}
	return customers, nil
}

// Create inserts a new customer
func (r *CustomerRepository) Create(ctx context.Context, customer models.Customer) error {
	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to a customer row
func (r *CustomerRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update customer: %w", result.Error)
	}
	return nil
}

// MarkSynced records a successful push or pull for the customer
func (r *CustomerRepository) MarkSynced(ctx context.Context, id string, quickbooksID string) error {
	now := time.Now()
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"quickbooks_id": quickbooksID,
		"sync_status":   models.SyncStatusSynced,
		"sync_error":    nil,
		"synced_at":     &now,
	})
}

// MarkSyncError records a per-record sync failure on the customer itself
func (r *CustomerRepository) MarkSyncError(ctx context.Context, id string, message string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"sync_status": models.SyncStatusError,
		"sync_error":  message,
	})
}
