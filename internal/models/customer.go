package models

import "time"

type EntitySyncStatus string

const (
	SyncStatusNone    EntitySyncStatus = "none"    // never touched by the sync engine
	SyncStatusPending EntitySyncStatus = "pending" // edited locally, waiting for push
	SyncStatusSynced  EntitySyncStatus = "synced"
	SyncStatusError   EntitySyncStatus = "error"
)

// Customer is the shop's customer record plus its accounting sync columns.
// QuickbooksID is the join key to the remote entity; nil means the customer
// has never been pushed.
type Customer struct {
	ID           string           `gorm:"column:id;primaryKey"`
	Name         string           `gorm:"column:name"`
	Email        string           `gorm:"column:email;index"`
	Phone        string           `gorm:"column:phone"`
	Address      string           `gorm:"column:address"` // single formatted line
	QuickbooksID *string          `gorm:"column:quickbooks_id;index"`
	SyncStatus   EntitySyncStatus `gorm:"column:sync_status"`
	SyncError    *string          `gorm:"column:sync_error"`
	SyncedAt     *time.Time       `gorm:"column:synced_at"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (Customer) TableName() string {
	return "customer"
}
