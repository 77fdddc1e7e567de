package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("sync job not found")

type SyncJobRepository struct {
	db *gorm.DB
}

func NewSyncJobRepository(db *gorm.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

// Create inserts a new sync job
func (r *SyncJobRepository) Create(ctx context.Context, job models.SyncJob) error {
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return fmt.Errorf("failed to create sync job: %w", err)
	}
	return nil
}

// GetByID retrieves a sync job by ID
func (r *SyncJobRepository) GetByID(ctx context.Context, jobID string) (*models.SyncJob, error) {
	var job models.SyncJob
	result := r.db.WithContext(ctx).First(&job, "id = ?", jobID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get sync job: %w", result.Error)
	}
	return &job, nil
}

// GetPendingJobs retrieves pending sync jobs in creation order
func (r *SyncJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]models.SyncJob, error) {
	var jobs []models.SyncJob
	result := r.db.WithContext(ctx).
		Where("status = ?", models.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", result.Error)
	}
	return jobs, nil
}

// UpdateStatus updates the job status.
// Terminal states (synced, error) also set processed_at; moving into
// processing clears it.
func (r *SyncJobRepository) UpdateStatus(ctx context.Context, jobID string, status models.SyncJobStatus, lastError *string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"last_error": lastError,
		"updated_at": now,
	}

	if status == models.JobStatusSynced || status == models.JobStatusError {
		updates["processed_at"] = &now
	} else {
		updates["processed_at"] = nil
	}

	result := r.db.WithContext(ctx).Model(&models.SyncJob{}).
		Where("id = ?", jobID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	return nil
}

// Complete marks the job synced and stores the count summary
func (r *SyncJobRepository) Complete(ctx context.Context, jobID string, payload models.JSONB) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.SyncJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       models.JobStatusSynced,
			"payload":      payload,
			"last_error":   nil,
			"updated_at":   now,
			"processed_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete job: %w", result.Error)
	}
	return nil
}
