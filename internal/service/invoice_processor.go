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

// InvoiceProcessor synchronizes shop invoices against QuickBooks. Invoices
// depend on their customer: pull needs the remote customer matched locally,
// push needs the local customer already pushed.
type InvoiceProcessor struct {
	invoices  InvoiceStore
	customers CustomerStore
	jobs      SyncJobStore
	api       InvoicesAPI
}

func NewInvoiceProcessor(invoices InvoiceStore, customers CustomerStore, jobs SyncJobStore, api InvoicesAPI) *InvoiceProcessor {
	return &InvoiceProcessor{
		invoices:  invoices,
		customers: customers,
		jobs:      jobs,
		api:       api,
	}
}

// Pull fetches the full remote invoice set and upserts it locally. A remote
// invoice whose customer has no local match is skipped, never created with a
// dangling reference.
func (p *InvoiceProcessor) Pull(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing invoice pull job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	remote, err := p.api.QueryInvoices(ctx, job.CompanyID)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to query remote invoices: %w", err)
	}

	counts := models.SyncCounts{Total: len(remote)}
	for _, qi := range remote {
		err := p.pullOne(ctx, qi)
		switch {
		case err == nil:
			counts.Synced++
		case errors.Is(err, errSkipRecord):
			log.Printf("Skipping remote invoice %s: %v", qi.ID, err)
			counts.Skipped++
		default:
			log.Printf("Warning: failed to pull invoice %s: %v", qi.ID, err)
			counts.Errors++
		}
	}

	log.Printf("Invoice pull job %s done: %d synced, %d errors, %d skipped of %d",
		job.ID, counts.Synced, counts.Errors, counts.Skipped, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

func (p *InvoiceProcessor) pullOne(ctx context.Context, qi quickbooks.Invoice) error {
	mapped, err := mapper.InvoiceFromRemote(qi)
	if err != nil {
		return err
	}

	// The remote customer must already be matched locally; otherwise this
	// invoice has no owner and is skipped.
	owner, err := p.customers.GetByQuickbooksID(ctx, qi.CustomerRef.Value)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return fmt.Errorf("%w: customer %s", errSkipRecord, qi.CustomerRef.Value)
		}
		return err
	}

	existing, err := p.invoices.GetByQuickbooksID(ctx, qi.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrInvoiceNotFound) {
			return err
		}
		existing = nil
	}

	if existing == nil && mapped.InvoiceNumber != "" {
		existing, err = p.invoices.GetByNumberForCustomer(ctx, owner.ID, mapped.InvoiceNumber)
		if err != nil {
			if !errors.Is(err, repository.ErrInvoiceNotFound) {
				return err
			}
			existing = nil
		}
	}

	now := time.Now()
	if existing != nil {
		fields := map[string]interface{}{
			"invoice_number": mapped.InvoiceNumber,
			"total_amount":   mapped.TotalAmount,
			"due_date":       mapped.DueDate,
			"quickbooks_id":  qi.ID,
			"sync_status":    models.SyncStatusSynced,
			"sync_error":     nil,
			"synced_at":      &now,
		}
		if !mapped.IssuedAt.IsZero() {
			fields["issued_at"] = mapped.IssuedAt
		}
		return p.invoices.UpdateFields(ctx, existing.ID, fields)
	}

	quickbooksID := qi.ID
	mapped.ID = uuid.New().String()
	mapped.CustomerID = owner.ID
	mapped.QuickbooksID = &quickbooksID
	mapped.SyncStatus = models.SyncStatusSynced
	mapped.SyncedAt = &now
	mapped.CreatedAt = now
	mapped.UpdatedAt = now
	return p.invoices.Create(ctx, mapped)
}

// Push sends push-pending invoices to QuickBooks. An invoice whose customer
// has not been pushed yet is a per-record error, not a job failure.
func (p *InvoiceProcessor) Push(ctx context.Context, job *models.SyncJob) error {
	log.Printf("Processing invoice push job %s", job.ID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobStatusProcessing, nil); err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}

	if job.CompanyID == "" {
		failJob(ctx, p.jobs, job.ID, ErrMissingCompanyID)
		return ErrMissingCompanyID
	}

	pending, err := p.invoices.ListPushPending(ctx)
	if err != nil {
		failJob(ctx, p.jobs, job.ID, err)
		return fmt.Errorf("failed to list push-pending invoices: %w", err)
	}

	counts := models.SyncCounts{Total: len(pending)}
	for _, invoice := range pending {
		if err := p.pushOne(ctx, job.CompanyID, invoice); err != nil {
			log.Printf("Warning: failed to push invoice %s: %v", invoice.ID, err)
			if markErr := p.invoices.MarkSyncError(ctx, invoice.ID, err.Error()); markErr != nil {
				log.Printf("Warning: failed to record sync error on invoice %s: %v", invoice.ID, markErr)
			}
			counts.Errors++
			continue
		}
		counts.Synced++
	}

	log.Printf("Invoice push job %s done: %d synced, %d errors of %d", job.ID, counts.Synced, counts.Errors, counts.Total)
	return p.jobs.Complete(ctx, job.ID, counts.ToPayload())
}

func (p *InvoiceProcessor) pushOne(ctx context.Context, realmID string, invoice models.Invoice) error {
	owner, err := p.customers.GetByID(ctx, invoice.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to resolve invoice customer: %w", err)
	}
	if owner.QuickbooksID == nil || *owner.QuickbooksID == "" {
		return fmt.Errorf("customer %s not synced to quickbooks", owner.ID)
	}

	remote := mapper.InvoiceToRemote(invoice, *owner.QuickbooksID)

	if invoice.QuickbooksID != nil && *invoice.QuickbooksID != "" {
		current, err := p.api.GetInvoice(ctx, realmID, *invoice.QuickbooksID)
		if err != nil {
			return fmt.Errorf("failed to fetch remote invoice for update: %w", err)
		}
		remote.ID = current.ID
		remote.SyncToken = current.SyncToken

		updated, err := p.api.UpdateInvoice(ctx, realmID, remote)
		if err != nil {
			return fmt.Errorf("failed to update remote invoice: %w", err)
		}
		return p.invoices.MarkSynced(ctx, invoice.ID, updated.ID)
	}

	created, err := p.api.CreateInvoice(ctx, realmID, remote)
	if err != nil {
		return fmt.Errorf("failed to create remote invoice: %w", err)
	}
	return p.invoices.MarkSynced(ctx, invoice.ID, created.ID)
}
