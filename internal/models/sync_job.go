package models

import "time"

// ProviderQuickBooks is the only accounting provider currently supported.
const ProviderQuickBooks = "quickbooks"

type SyncDirection string

const (
	DirectionPush SyncDirection = "push" // local -> QuickBooks
	DirectionPull SyncDirection = "pull" // QuickBooks -> local
)

type SyncResource string

const (
	ResourceCustomers SyncResource = "customers"
	ResourceInvoices  SyncResource = "invoices"
	ResourceOrders    SyncResource = "orders"
)

type SyncJobStatus string

const (
	JobStatusPending    SyncJobStatus = "pending"
	JobStatusProcessing SyncJobStatus = "processing"
	JobStatusSynced     SyncJobStatus = "synced"
	JobStatusError      SyncJobStatus = "error"
)

// SyncJob is one unit of sync work: a direction crossed with a resource type.
// Jobs are terminal once synced or errored; a re-run is a new row.
type SyncJob struct {
	ID           string        `gorm:"column:id;primaryKey"`
	Provider     string        `gorm:"column:provider;index"`
	Direction    SyncDirection `gorm:"column:direction"`
	ResourceType SyncResource  `gorm:"column:resource_type"`
	Status       SyncJobStatus `gorm:"column:status;index"`
	LastError    *string       `gorm:"column:last_error"`
	Payload      JSONB         `gorm:"column:payload;type:jsonb"`
	CompanyID    string        `gorm:"column:company_id"`
	CreatedAt    time.Time     `gorm:"column:created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at"`
	ProcessedAt  *time.Time    `gorm:"column:processed_at"`
}

// TableName specifies the table name for GORM
func (SyncJob) TableName() string {
	return "sync_job"
}

// SyncCounts summarizes one processed job for the payload column.
type SyncCounts struct {
	Synced  int
	Errors  int
	Skipped int
	Total   int
}

// ToPayload converts the counts into the JSONB shape stored on the job.
func (c SyncCounts) ToPayload() JSONB {
	return JSONB{
		"synced_count":  c.Synced,
		"error_count":   c.Errors,
		"skipped_count": c.Skipped,
		"total":         c.Total,
	}
}
