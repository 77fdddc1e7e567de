package watcher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/craftyard/shopsync-worker/internal/config"
	"github.com/craftyard/shopsync-worker/internal/models"
)

// Jobs within one tick are processed strictly sequentially, so the batch is
// kept small to bound tick duration against the remote rate limits.
const maxJobsPerTick = 10

// Processor handles one resource type in both directions
type Processor interface {
	Pull(ctx context.Context, job *models.SyncJob) error
	Push(ctx context.Context, job *models.SyncJob) error
}

// JobStore is the slice of the job repository the watcher needs
type JobStore interface {
	Create(ctx context.Context, job models.SyncJob) error
	GetPendingJobs(ctx context.Context, limit int) ([]models.SyncJob, error)
	UpdateStatus(ctx context.Context, jobID string, status models.SyncJobStatus, lastError *string) error
}

// ConnectionSource provides the realm that new jobs are stamped with
type ConnectionSource interface {
	GetActiveConnection(ctx context.Context) (*models.OAuthConnection, error)
}

// Status is the caller-facing snapshot of the poller
type Status struct {
	Running        bool `json:"running"`
	PollIntervalMs int  `json:"pollIntervalMs"`
	IsProcessing   bool `json:"isProcessing"`
}

// Watcher polls the sync_job table and routes pending jobs to the resource
// processors. The single-flight guard is process-local; running more than
// one instance against the same database needs an external job claim.
type Watcher struct {
	cfg         *config.Config
	jobs        JobStore
	connections ConnectionSource
	processors  map[models.SyncResource]Processor

	mu         sync.Mutex
	running    bool
	processing bool
	stopCh     chan struct{}
}

func New(
	cfg *config.Config,
	jobs JobStore,
	connections ConnectionSource,
	customers Processor,
	invoices Processor,
	orders Processor,
) *Watcher {
	return &Watcher{
		cfg:         cfg,
		jobs:        jobs,
		connections: connections,
		processors: map[models.SyncResource]Processor{
			models.ResourceCustomers: customers,
			models.ResourceInvoices:  invoices,
			models.ResourceOrders:    orders,
		},
	}
}

// Start launches the polling loop. Calling it while already running is a
// no-op.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})

	log.Printf("Starting sync watcher (interval %dms)", w.cfg.PollIntervalMs)
	go w.loop(w.stopCh)
}

// Stop prevents future ticks from starting. An in-flight tick runs to
// completion. Calling it while stopped is a no-op, and Start may be called
// again afterwards.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	log.Println("Sync watcher stopped")
}

func (w *Watcher) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Duration(w.cfg.PollIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := w.runTick(context.Background()); err != nil {
				log.Printf("Error processing sync jobs: %v", err)
			}
		}
	}
}

// TriggerNow runs one tick synchronously, outside the timer, and reports how
// many jobs it claimed. It returns 0 while another tick is in flight.
func (w *Watcher) TriggerNow(ctx context.Context) (int, error) {
	return w.runTick(ctx)
}

// runTick claims the single-flight guard, drains one bounded batch of
// pending jobs sequentially, and releases the guard.
func (w *Watcher) runTick(ctx context.Context) (int, error) {
	w.mu.Lock()
	if w.processing {
		w.mu.Unlock()
		log.Println("Sync tick already in flight, skipping")
		return 0, nil
	}
	w.processing = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.processing = false
		w.mu.Unlock()
	}()

	jobs, err := w.jobs.GetPendingJobs(ctx, maxJobsPerTick)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return 0, nil
	}

	log.Printf("Found %d sync job(s) to process", len(jobs))

	for i := range jobs {
		if err := w.processJob(ctx, &jobs[i]); err != nil {
			log.Printf("Failed to process sync job %s: %v", jobs[i].ID, err)
		}
	}

	return len(jobs), nil
}

// processJob routes one job to the processor for its resource type
func (w *Watcher) processJob(ctx context.Context, job *models.SyncJob) error {
	processor, ok := w.processors[job.ResourceType]
	if !ok {
		msg := fmt.Sprintf("unknown resource type %q", job.ResourceType)
		if err := w.jobs.UpdateStatus(ctx, job.ID, models.JobStatusError, &msg); err != nil {
			log.Printf("Warning: failed to mark job %s as errored: %v", job.ID, err)
		}
		return fmt.Errorf("unknown resource type %q", job.ResourceType)
	}

	switch job.Direction {
	case models.DirectionPull:
		return processor.Pull(ctx, job)
	case models.DirectionPush:
		return processor.Push(ctx, job)
	default:
		msg := fmt.Sprintf("unknown sync direction %q", job.Direction)
		if err := w.jobs.UpdateStatus(ctx, job.ID, models.JobStatusError, &msg); err != nil {
			log.Printf("Warning: failed to mark job %s as errored: %v", job.ID, err)
		}
		return fmt.Errorf("unknown sync direction %q", job.Direction)
	}
}

// Enqueue creates one pending job per resource type, stamped with the active
// connection's realm. With no connection the company id stays empty and the
// job fails closed at the processor's tenancy check.
func (w *Watcher) Enqueue(ctx context.Context, direction models.SyncDirection, resources []models.SyncResource) ([]models.SyncJob, error) {
	if direction != models.DirectionPush && direction != models.DirectionPull {
		return nil, fmt.Errorf("invalid sync direction %q", direction)
	}

	companyID := ""
	if conn, err := w.connections.GetActiveConnection(ctx); err == nil {
		companyID = conn.RealmID
	}

	now := time.Now()
	created := make([]models.SyncJob, 0, len(resources))
	for _, resource := range resources {
		if _, ok := w.processors[resource]; !ok {
			return nil, fmt.Errorf("invalid resource type %q", resource)
		}

		job := models.SyncJob{
			ID:           uuid.New().String(),
			Provider:     models.ProviderQuickBooks,
			Direction:    direction,
			ResourceType: resource,
			Status:       models.JobStatusPending,
			CompanyID:    companyID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := w.jobs.Create(ctx, job); err != nil {
			return created, fmt.Errorf("failed to enqueue %s %s job: %w", direction, resource, err)
		}
		created = append(created, job)
	}

	log.Printf("Enqueued %d %s job(s)", len(created), direction)
	return created, nil
}

// GetStatus reports the poller state
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:        w.running,
		PollIntervalMs: w.cfg.PollIntervalMs,
		IsProcessing:   w.processing,
	}
}
