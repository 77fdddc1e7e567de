package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/craftyard/shopsync-worker/internal/mapper"
	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
	"github.com/craftyard/shopsync-worker/internal/repository"
)

// OrderProcessor synchronizes shop orders against QuickBooks estimates. The
// dependency rules mirror invoices: the customer must be resolvable on pull
// and already pushed on push.
type OrderProcessor struct {
	orders    OrderStore
	customers CustomerStore
	jobs      SyncJobStore
	api       EstimatesAPI
}

func NewOrderProcessor(orders OrderStore, customers CustomerStore, jobs SyncJobStore, api EstimatesAPI) *OrderProcessor {
	return &OrderProcessor{
		orders:    orders,
		customers: customers,
		jobs:      jobs,
		api:       api,
	}
}

// Pull fetches the full remote estimate set and upserts it locally.
func (p *OrderProcessor) Pull(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing order pull job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	remote, err := p.api.QueryEstimates(ctx, job.CompanyID)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to query remote estimates: %w", err)
	}

	counts := models.SyncCounts{Total: len(remote)}
	for _, qe := range remote {
		err := p.pullOne(ctx, qe)
		switch {
		case err == nil:
			counts.Synced++
		case errors.Is(err, errSkipRecord):
			log.Printf("Skipping remote estimate %s: %v", qe.ID, err)
			counts.Skipped++
		default:
			log.Printf("Warning: failed to pull estimate %s: %v", qe.ID, err)
			counts.Errors++
		}
	}

	log.Printf("Order pull job %s done: %d synced, %d errors, %d skipped of %d",
		job.ID, counts.Synced, counts.Errors, counts.Skipped, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

func (p *OrderProcessor) pullOne(ctx context.Context, qe quickbooks.Estimate) error {
	mapped, err := mapper.OrderFromRemote(qe)
	if err != nil {
		return err
	}

	owner, err := p.customers.GetByQuickbooksID(ctx, qe.CustomerRef.Value)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return fmt.Errorf("%w: customer %s", errSkipRecord, qe.CustomerRef.Value)
		}
		return err
	}

	existing, err := p.orders.GetByQuickbooksID(ctx, qe.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return err
		}
		existing = nil
	}

	if existing == nil && mapped.OrderNumber != "" {
		existing, err = p.orders.GetByNumberForCustomer(ctx, owner.ID, mapped.OrderNumber)
		if err != nil {
			if !errors.Is(err, repository.ErrOrderNotFound) {
				return err
			}
			existing = nil
		}
	}

	now := time.Now()
	if existing != nil {
		fields := map[string]interface{}{
			"order_number":  mapped.OrderNumber,
			"total_amount":  mapped.TotalAmount,
			"quickbooks_id": qe.ID,
			"sync_status":   models.SyncStatusSynced,
			"sync_error":    nil,
			"synced_at":     &now,
		}
		if !mapped.PlacedAt.IsZero() {
			fields["placed_at"] = mapped.PlacedAt
		}
		return p.orders.UpdateFields(ctx, existing.ID, fields)
	}

	quickbooksID := qe.ID
	mapped.ID = uuid.New().String()
	mapped.CustomerID = owner.ID
	mapped.QuickbooksID = &quickbooksID
	mapped.SyncStatus = models.SyncStatusSynced
	mapped.SyncedAt = &now
	mapped.CreatedAt = now
	mapped.UpdatedAt = now
	return p.orders.Create(ctx, mapped)
}

// Push sends push-pending orders to QuickBooks as estimates.
func (p *OrderProcessor) Push(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing order push job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	pending, err := p.orders.ListPushPending(ctx)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to list push-pending orders: %w", err)
	}

	counts := models.SyncCounts{Total: len(pending)}
	for _, order := range pending {
		if err := p.pushOne(ctx, job.CompanyID, order); err != nil {
			log.Printf("Warning: failed to push order %s: %v", order.ID, err)
			if markErr := p.orders.MarkSyncError(ctx, order.ID, err.Error()); markErr != nil {
				log.Printf("Warning: failed to record sync error on order %s: %v", order.ID, markErr)
			}
			counts.Errors++
			continue
		}
		counts.Synced++
	}

	log.Printf("Order push job %s done: %d synced, %d errors of %d", job.ID, counts.Synced, counts.Errors, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

func (p *OrderProcessor) pushOne(ctx context.Context, realmID string, order models.Order) error {
	owner, err := p.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to resolve order customer: %w", err)
	}
	if owner.QuickbooksID == nil || *owner.QuickbooksID == "" {
		return fmt.Errorf("customer %s not synced to quickbooks", owner.ID)
	}

	remote := mapper.OrderToRemote(order, *owner.QuickbooksID)

	if order.QuickbooksID != nil && *order.QuickbooksID != "" {
		current, err := p.api.GetEstimate(ctx, realmID, *order.QuickbooksID)
		if err != nil {
			return fmt.Errorf("failed to fetch remote estimate for update: %w", err)
		}
		remote.ID = current.ID
		remote.SyncToken = current.SyncToken

		updated, err := p.api.UpdateEstimate(ctx, realmID, remote)
		if err != nil {
			return fmt.Errorf("failed to update remote estimate: %w", err)
		}
		return p.orders.MarkSynced(ctx, order.ID, updated.ID)
	}

	created, err := p.api.CreateEstimate(ctx, realmID, remote)
	if err != nil {
		return fmt.Errorf("failed to create remote estimate: %w", err)
	}
	return p.orders.MarkSynced(ctx, order.ID, created.ID)
}
