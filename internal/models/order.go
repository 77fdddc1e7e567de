package models

import "time"

// Order is synchronized against QuickBooks estimates. Like invoices, an
// order is only push-ready once its customer carries a quickbooks_id.
type Order struct {
	ID           string           `gorm:"column:id;primaryKey"`
	CustomerID   string           `gorm:"column:customer_id;index"`
	OrderNumber  string           `gorm:"column:order_number;index"`
	TotalAmount  float64          `gorm:"column:total_amount"`
	PlacedAt     time.Time        `gorm:"column:placed_at"`
	QuickbooksID *string          `gorm:"column:quickbooks_id;index"`
	SyncStatus   EntitySyncStatus `gorm:"column:sync_status"`
	SyncError    *string          `gorm:"column:sync_error"`
	SyncedAt     *time.Time       `gorm:"column:synced_at"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM.
// "order" is a reserved word in Postgres, hence shop_order.
func (Order) TableName() string {
	return "shop_order"
}
