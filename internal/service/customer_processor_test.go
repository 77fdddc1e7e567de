package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
	"github.com/craftyard/shopsync-worker/internal/repository"
)

type mockJobStore struct {
	statuses  []models.SyncJobStatus
	lastError *string
	payload   models.JSONB
	completed bool
}

func (m *mockJobStore) UpdateStatus(ctx context.Context, jobID string, status models.SyncJobStatus, lastError *string) error {
	m.statuses = append(m.statuses, status)
	m.lastError = lastError
	return nil
}

func (m *mockJobStore) Complete(ctx context.Context, jobID string, payload models.JSONB) error {
	m.completed = true
	m.payload = payload
	return nil
}

func (m *mockJobStore) finalStatus() models.SyncJobStatus {
	if m.completed {
		return models.JobStatusSynced
	}
	if len(m.statuses) == 0 {
		return ""
	}
	return m.statuses[len(m.statuses)-1]
}

type mockCustomersAPI struct {
	calls      []string
	queryFunc  func(ctx context.Context, realmID string) ([]quickbooks.Customer, error)
	getFunc    func(ctx context.Context, realmID, id string) (*quickbooks.Customer, error)
	createFunc func(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error)
	updateFunc func(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error)
}

func (m *mockCustomersAPI) QueryCustomers(ctx context.Context, realmID string) ([]quickbooks.Customer, error) {
	m.calls = append(m.calls, "query")
	if m.queryFunc != nil {
		return m.queryFunc(ctx, realmID)
	}
	return nil, nil
}

func (m *mockCustomersAPI) GetCustomer(ctx context.Context, realmID, id string) (*quickbooks.Customer, error) {
	m.calls = append(m.calls, "get")
	if m.getFunc != nil {
		return m.getFunc(ctx, realmID, id)
	}
	return nil, errors.New("not found")
}

func (m *mockCustomersAPI) CreateCustomer(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error) {
	m.calls = append(m.calls, "create")
	if m.createFunc != nil {
		return m.createFunc(ctx, realmID, customer)
	}
	created := customer
	created.ID = "remote-new"
	return &created, nil
}

func (m *mockCustomersAPI) UpdateCustomer(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error) {
	m.calls = append(m.calls, "update")
	if m.updateFunc != nil {
		return m.updateFunc(ctx, realmID, customer)
	}
	updated := customer
	return &updated, nil
}

type mockCustomerStore struct {
	getByIDFunc           func(ctx context.Context, id string) (*models.Customer, error)
	getByQuickbooksIDFunc func(ctx context.Context, quickbooksID string) (*models.Customer, error)
	getByEmailFunc        func(ctx context.Context, email string) (*models.Customer, error)
	listPushPendingFunc   func(ctx context.Context) ([]models.Customer, error)

	created    []models.Customer
	updated    map[string]map[string]interface{}
	synced     map[string]string
	syncErrors map[string]string
}

func newMockCustomerStore() *mockCustomerStore {
	return &mockCustomerStore{
		updated:    map[string]map[string]interface{}{},
		synced:     map[string]string{},
		syncErrors: map[string]string{},
	}
}

func (m *mockCustomerStore) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerStore) GetByQuickbooksID(ctx context.Context, quickbooksID string) (*models.Customer, error) {
	if m.getByQuickbooksIDFunc != nil {
		return m.getByQuickbooksIDFunc(ctx, quickbooksID)
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerStore) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrCustomerNotFound
}

func (m *mockCustomerStore) ListPushPending(ctx context.Context) ([]models.Customer, error) {
	if m.listPushPendingFunc != nil {
		return m.listPushPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockCustomerStore) Create(ctx context.Context, customer models.Customer) error {
	m.created = append(m.created, customer)
	return nil
}

func (m *mockCustomerStore) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	m.updated[id] = fields
	return nil
}

func (m *mockCustomerStore) MarkSynced(ctx context.Context, id string, quickbooksID string) error {
	m.synced[id] = quickbooksID
	return nil
}

func (m *mockCustomerStore) MarkSyncError(ctx context.Context, id string, message string) error {
	m.syncErrors[id] = message
	return nil
}

func pullJob(resource models.SyncResource) *models.SyncJob {
	return &models.SyncJob{
		ID:           "job-1",
		Provider:     models.ProviderQuickBooks,
		Direction:    models.DirectionPull,
		ResourceType: resource,
		Status:       models.JobStatusPending,
		CompanyID:    "realm-1",
		CreatedAt:    time.Now(),
	}
}

func pushJob(resource models.SyncResource) *models.SyncJob {
	job := pullJob(resource)
	job.Direction = models.DirectionPush
	return job
}

func strPtr(s string) *string {
	return &s
}

func TestCustomerProcessor_Pull_MissingCompanyID(t *testing.T) {
	jobs := &mockJobStore{}
	api := &mockCustomersAPI{}
	processor := NewCustomerProcessor(newMockCustomerStore(), jobs, api)

	job := pullJob(models.ResourceCustomers)
	job.CompanyID = ""

	err := processor.Pull(context.Background(), job)
	if !errors.Is(err, ErrMissingCompanyID) {
		t.Fatalf("expected ErrMissingCompanyID, got %v", err)
	}

	// Fail-closed: the remote client must never be touched
	if len(api.calls) != 0 {
		t.Errorf("expected zero remote calls, got %v", api.calls)
	}
	if jobs.finalStatus() != models.JobStatusError {
		t.Errorf("expected job status error, got %s", jobs.finalStatus())
	}
	if jobs.lastError == nil {
		t.Error("expected error message on job")
	}
}

func TestCustomerProcessor_Pull_IsolatesMappingFailure(t *testing.T) {
	remote := []quickbooks.Customer{
		{ID: "1", DisplayName: "One"},
		{ID: "2", DisplayName: "Two"},
		{ID: "3"}, // no display name, mapping fails
		{ID: "4", DisplayName: "Four"},
		{ID: "5", DisplayName: "Five"},
	}

	jobs := &mockJobStore{}
	store := newMockCustomerStore()
	api := &mockCustomersAPI{
		queryFunc: func(ctx context.Context, realmID string) ([]quickbooks.Customer, error) {
			return remote, nil
		},
	}
	processor := NewCustomerProcessor(store, jobs, api)

	if err := processor.Pull(context.Background(), pullJob(models.ResourceCustomers)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !jobs.completed {
		t.Fatal("expected job to complete despite the bad record")
	}
	if got := jobs.payload["synced_count"]; got != 4 {
		t.Errorf("expected synced_count 4, got %v", got)
	}
	if got := jobs.payload["error_count"]; got != 1 {
		t.Errorf("expected error_count 1, got %v", got)
	}
	if got := jobs.payload["total"]; got != 5 {
		t.Errorf("expected total 5, got %v", got)
	}
	if len(store.created) != 4 {
		t.Errorf("expected 4 local rows created, got %d", len(store.created))
	}
}

func TestCustomerProcessor_Pull_MatchesByEmail(t *testing.T) {
	jobs := &mockJobStore{}
	store := newMockCustomerStore()
	store.getByEmailFunc = func(ctx context.Context, email string) (*models.Customer, error) {
		if email == "ada@example.com" {
			return &models.Customer{ID: "local-1", Email: email}, nil
		}
		return nil, repository.ErrCustomerNotFound
	}
	api := &mockCustomersAPI{
		queryFunc: func(ctx context.Context, realmID string) ([]quickbooks.Customer, error) {
			return []quickbooks.Customer{{
				ID:               "42",
				DisplayName:      "Ada's Frames",
				PrimaryEmailAddr: &quickbooks.EmailAddress{Address: "ada@example.com"},
			}}, nil
		},
	}
	processor := NewCustomerProcessor(store, jobs, api)

	if err := processor.Pull(context.Background(), pullJob(models.ResourceCustomers)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(store.created) != 0 {
		t.Errorf("expected no new rows for an email match, got %d", len(store.created))
	}
	fields, ok := store.updated["local-1"]
	if !ok {
		t.Fatal("expected the matched customer to be updated")
	}
	if fields["quickbooks_id"] != "42" {
		t.Errorf("expected quickbooks_id 42 on match, got %v", fields["quickbooks_id"])
	}
}

func TestCustomerProcessor_Push_ExistingIDFetchesThenUpdates(t *testing.T) {
	jobs := &mockJobStore{}
	store := newMockCustomerStore()
	store.listPushPendingFunc = func(ctx context.Context) ([]models.Customer, error) {
		return []models.Customer{{
			ID:           "local-1",
			Name:         "Ada's Frames",
			QuickbooksID: strPtr("42"),
			SyncStatus:   models.SyncStatusPending,
		}}, nil
	}
	api := &mockCustomersAPI{
		getFunc: func(ctx context.Context, realmID, id string) (*quickbooks.Customer, error) {
			return &quickbooks.Customer{ID: id, SyncToken: "7"}, nil
		},
		updateFunc: func(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error) {
			if customer.SyncToken != "7" {
				t.Errorf("expected update to carry fetched SyncToken, got %q", customer.SyncToken)
			}
			updated := customer
			return &updated, nil
		},
	}
	processor := NewCustomerProcessor(store, jobs, api)

	if err := processor.Push(context.Background(), pushJob(models.ResourceCustomers)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []string{"get", "update"}
	if len(api.calls) != 2 || api.calls[0] != expected[0] || api.calls[1] != expected[1] {
		t.Errorf("expected call sequence %v, got %v", expected, api.calls)
	}
	if store.synced["local-1"] != "42" {
		t.Errorf("expected customer marked synced with id 42, got %q", store.synced["local-1"])
	}
}

func TestCustomerProcessor_Push_NewCustomerCreates(t *testing.T) {
	jobs := &mockJobStore{}
	store := newMockCustomerStore()
	store.listPushPendingFunc = func(ctx context.Context) ([]models.Customer, error) {
		return []models.Customer{{ID: "local-1", Name: "Ada's Frames"}}, nil
	}
	api := &mockCustomersAPI{}
	processor := NewCustomerProcessor(store, jobs, api)

	if err := processor.Push(context.Background(), pushJob(models.ResourceCustomers)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(api.calls) != 1 || api.calls[0] != "create" {
		t.Errorf("expected a single create call, got %v", api.calls)
	}
	if store.synced["local-1"] != "remote-new" {
		t.Errorf("expected returned remote id persisted, got %q", store.synced["local-1"])
	}
}

func TestCustomerProcessor_Push_RecordFailureContinues(t *testing.T) {
	jobs := &mockJobStore{}
	store := newMockCustomerStore()
	store.listPushPendingFunc = func(ctx context.Context) ([]models.Customer, error) {
		return []models.Customer{
			{ID: "local-1", Name: "One"},
			{ID: "local-2", Name: "Two"},
		}, nil
	}
	api := &mockCustomersAPI{
		createFunc: func(ctx context.Context, realmID string, customer quickbooks.Customer) (*quickbooks.Customer, error) {
			if customer.DisplayName == "One" {
				return nil, &quickbooks.APIError{StatusCode: 400, Body: "Duplicate Name Exists Error"}
			}
			created := customer
			created.ID = "remote-2"
			return &created, nil
		},
	}
	processor := NewCustomerProcessor(store, jobs, api)

	if err := processor.Push(context.Background(), pushJob(models.ResourceCustomers)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !jobs.completed {
		t.Fatal("expected job to complete despite the record failure")
	}
	if got := jobs.payload["synced_count"]; got != 1 {
		t.Errorf("expected synced_count 1, got %v", got)
	}
	if got := jobs.payload["error_count"]; got != 1 {
		t.Errorf("expected error_count 1, got %v", got)
	}
	if _, ok := store.syncErrors["local-1"]; !ok {
		t.Error("expected sync error recorded on the failed customer")
	}
	if store.synced["local-2"] != "remote-2" {
		t.Errorf("expected second customer synced, got %q", store.synced["local-2"])
	}
}
