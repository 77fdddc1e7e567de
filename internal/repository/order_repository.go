package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// GetByQuickbooksID retrieves an order by its remote accounting ID
func (r *OrderRepository) GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Order, error) {
	var order models.Order
	result := r.db.WithContext(ctx).First(&order, "quickbooks_id = ?", quickbooksID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by quickbooks id: %w", result.Error)
	}
	return &order, nil
}

// GetByNumberForCustomer matches an order by its number scoped to one
// customer, the natural key used during pull
func (r *OrderRepository) GetByNumberForCustomer(ctx context.Context, customerID, orderNumber string) (*models.Order, error) {
	var order models.Order
	result := r.db.WithContext(ctx).
		Where("customer_id = ? AND order_number = ?", customerID, orderNumber).
		Order("updated_at DESC").
		First(&order)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by number: %w", result.Error)
	}
	return &order, nil
}

// ListPushPending retrieves orders that have never been pushed or were
// edited locally since their last push
func (r *OrderRepository) ListPushPending(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	result := r.db.WithContext(ctx).
		Where("quickbooks_id IS NULL OR sync_status = ?", models.SyncStatusPending).
		Order("created_at ASC").
		Find(&orders)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list push-pending orders: %w", result.Error)
	}
	return orders, nil
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, order models.Order) error {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to an order row
func (r *OrderRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	return nil
}

// MarkSynced records a successful push or pull for the order
func (r *OrderRepository) MarkSynced(ctx context.Context, id string, quickbooksID string) error {
	now := time.Now()
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"quickbooks_id": quickbooksID,
		"sync_status":   models.SyncStatusSynced,
		"sync_error":    nil,
		"synced_at":     &now,
	})
}

// MarkSyncError records a per-record sync failure on the order itself
func (r *OrderRepository) MarkSyncError(ctx context.Context, id string, message string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"sync_status": models.SyncStatusError,
		"sync_error":  message,
	})
}
