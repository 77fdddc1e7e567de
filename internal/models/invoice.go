package models

import "time"

// Invoice references its Customer; pushing requires the customer to carry a
// quickbooks_id first.
type Invoice struct {
	ID            string           `gorm:"column:id;primaryKey"`
	CustomerID    string           `gorm:"column:customer_id;index"`
	InvoiceNumber string           `gorm:"column:invoice_number;index"`
	TotalAmount   float64          `gorm:"column:total_amount"`
	DueDate       *time.Time       `gorm:"column:due_date"`
	IssuedAt      time.Time        `gorm:"column:issued_at"`
	QuickbooksID  *string          `gorm:"column:quickbooks_id;index"`
	SyncStatus    EntitySyncStatus `gorm:"column:sync_status"`
	SyncError     *string          `gorm:"column:sync_error"`
	SyncedAt      *time.Time       `gorm:"column:synced_at"`
	CreatedAt     time.Time        `gorm:"column:created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Invoice) TableName() string {
	return "invoice"
}
