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

// CustomerProcessor synchronizes shop customers against QuickBooks in both
// directions.
type CustomerProcessor struct {
	customers CustomerStore
	jobs      SyncJobStore
	api       CustomersAPI
}

func NewCustomerProcessor(customers CustomerStore, jobs SyncJobStore, api CustomersAPI) *CustomerProcessor {
	return &CustomerProcessor{
		customers: customers,
		jobs:      jobs,
		api:       api,
	}
}

// Pull fetches the full remote customer set and upserts it locally. A bad
// record is counted and skipped; only tenancy, authentication, or a failed
// remote query abort the whole job.
func (p *CustomerProcessor) Pull(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing customer pull job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	remote, err := p.api.QueryCustomers(ctx, job.CompanyID)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to query remote customers: %w", err)
	}

	counts := models.SyncCounts{Total: len(remote)}
	for _, qc := range remote {
		if err := p.pullOne(ctx, qc); err != nil {
			log.Printf("Warning: failed to pull customer %s: %v", qc.ID, err)
			counts.Errors++
			continue
		}
		counts.Synced++
	}

	log.Printf("Customer pull job %s done: %d synced, %d errors of %d", job.ID, counts.Synced, counts.Errors, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

// pullOne upserts a single remote customer: match by quickbooks_id first,
// then by email, otherwise insert a new local row. Customers have no local
// dependencies, so inserting is always allowed.
func (p *CustomerProcessor) pullOne(ctx context.Context, qc quickbooks.Customer) error {
	mapped, err := mapper.CustomerFromRemote(qc)
	if err != nil {
		return err
	}

	existing, err := p.customers.GetByQuickbooksID(ctx, qc.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrCustomerNotFound) {
			return err
		}
		existing = nil
	}

	if existing == nil && mapped.Email != "" {
		existing, err = p.customers.GetByEmail(ctx, mapped.Email)
		if err != nil {
			if !errors.Is(err, repository.ErrCustomerNotFound) {
				return err
			}
			existing = nil
		}
	}

	now := time.Now()
	if existing != nil {
		return p.customers.UpdateFields(ctx, existing.ID, map[string]interface{}{
			"name":          mapped.Name,
			"email":         mapped.Email,
			"phone":         mapped.Phone,
			"address":       mapped.Address,
			"quickbooks_id": qc.ID,
			"sync_status":   models.SyncStatusSynced,
			"sync_error":    nil,
			"synced_at":     &now,
		})
	}

	quickbooksID := qc.ID
	mapped.ID = uuid.New().String()
	mapped.QuickbooksID = &quickbooksID
	mapped.SyncStatus = models.SyncStatusSynced
	mapped.SyncedAt = &now
	mapped.CreatedAt = now
	mapped.UpdatedAt = now
	return p.customers.Create(ctx, mapped)
}

// Push sends customers that were never pushed, or were edited since their
// last push, to QuickBooks. Per-record failures land on the customer row and
// the loop keeps going.
func (p *CustomerProcessor) Push(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing customer push job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	pending, err := p.customers.ListPushPending(ctx)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to list push-pending customers: %w", err)
	}

	counts := models.SyncCounts{Total: len(pending)}
	for _, customer := range pending {
		if err := p.pushOne(ctx, job.CompanyID, customer); err != nil {
			log.Printf("Warning: failed to push customer %s: %v", customer.ID, err)
			if markErr := p.customers.MarkSyncError(ctx, customer.ID, err.Error()); markErr != nil {
				log.Printf("Warning: failed to record sync error on customer %s: %v", customer.ID, markErr)
			}
			counts.Errors++
			continue
		}
		counts.Synced++
	}

	log.Printf("Customer push job %s done: %d synced, %d errors of %d", job.ID, counts.Synced, counts.Errors, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

// pushOne creates or updates one remote customer. Updates fetch the current
// remote record first; QuickBooks rejects updates without its latest
// SyncToken.
func (p *CustomerProcessor) pushOne(ctx context.Context, realmID string, customer models.Customer) error {
	remote := mapper.CustomerToRemote(customer)

	if customer.QuickbooksID != nil && *customer.QuickbooksID != "" {
		current, err := p.api.GetCustomer(ctx, realmID, *customer.QuickbooksID)
		if err != nil {
			return fmt.Errorf("failed to fetch remote customer for update: %w", err)
		}
		remote.ID = current.ID
		remote.SyncToken = current.SyncToken

		updated, err := p.api.UpdateCustomer(ctx, realmID, remote)
		if err != nil {
			return fmt.Errorf("failed to update remote customer: %w", err)
		}
		return p.customers.MarkSynced(ctx, customer.ID, updated.ID)
	}

	created, err := p.api.CreateCustomer(ctx, realmID, remote)
	if err != nil {
		return fmt.Errorf("failed to create remote customer: %w", err)
	}
	return p.customers.MarkSynced(ctx, customer.ID, created.ID)
}
