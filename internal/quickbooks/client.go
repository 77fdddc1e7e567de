package quickbooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	productionAPIHost = "https://quickbooks.api.intuit.com"
	sandboxAPIHost    = "https://sandbox-quickbooks.api.intuit.com"

	minorVersion = "75"
)

// TokenSource supplies a currently valid access token, normally the
// ConnectionManager.
type TokenSource interface {
	GetValidAccessToken(ctx context.Context) (string, error)
}

// Client is the authenticated QuickBooks API client. It carries no retry
// logic; retries are a policy decision left to callers.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a QuickBooks API client against the sandbox or
// production host.
func NewClient(sandbox bool, tokens TokenSource) *Client {
	baseURL := productionAPIHost
	if sandbox {
		baseURL = sandboxAPIHost
	}
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs one authenticated call. Any non-2xx response becomes an
// *APIError carrying the status code and the body verbatim.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	token, err := c.tokens.GetValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("minorversion", minorVersion)
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// query runs a statement against the realm-scoped query endpoint
func (c *Client) query(ctx context.Context, realmID, statement string) ([]byte, error) {
	q := url.Values{}
	q.Set("query", statement)
	return c.request(ctx, "GET", fmt.Sprintf("/v3/company/%s/query", realmID), q, nil)
}

// QueryCustomers fetches the full remote customer set
func (c *Client) QueryCustomers(ctx context.Context, realmID string) ([]Customer, error) {
	body, err := c.query(ctx, realmID, "select * from Customer")
	if err != nil {
		return nil, err
	}
	var resp struct {
		QueryResponse struct {
			Customer []Customer `json:"Customer"`
		} `json:"QueryResponse"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse customer query response: %w", err)
	}
	return resp.QueryResponse.Customer, nil
}

// GetCustomer reads one remote customer, used to obtain a fresh SyncToken
// before an update
func (c *Client) GetCustomer(ctx context.Context, realmID, id string) (*Customer, error) {
	body, err := c.request(ctx, "GET", fmt.Sprintf("/v3/company/%s/customer/%s", realmID, id), nil, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Customer Customer `json:"Customer"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse customer response: %w", err)
	}
	return &resp.Customer, nil
}

// CreateCustomer creates a remote customer and returns it with its new ID
func (c *Client) CreateCustomer(ctx context.Context, realmID string, customer Customer) (*Customer, error) {
	body, err := c.request(ctx, "POST", fmt.Sprintf("/v3/company/%s/customer", realmID), nil, customer)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Customer Customer `json:"Customer"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse customer response: %w", err)
	}
	return &resp.Customer, nil
}

// UpdateCustomer submits a sparse update; the customer must carry the ID and
// SyncToken fetched from the remote record
func (c *Client) UpdateCustomer(ctx context.Context, realmID string, customer Customer) (*Customer, error) {
	customer.Sparse = true
	return c.CreateCustomer(ctx, realmID, customer)
}

// QueryInvoices fetches the full remote invoice set
func (c *Client) QueryInvoices(ctx context.Context, realmID string) ([]Invoice, error) {
	body, err := c.query(ctx, realmID, "select * from Invoice")
	if err != nil {
		return nil, err
	}
	var resp struct {
		QueryResponse struct {
			Invoice []Invoice `json:"Invoice"`
		} `json:"QueryResponse"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse invoice query response: %w", err)
	}
	return resp.QueryResponse.Invoice, nil
}

// GetInvoice reads one remote invoice
func (c *Client) GetInvoice(ctx context.Context, realmID, id string) (*Invoice, error) {
	body, err := c.request(ctx, "GET", fmt.Sprintf("/v3/company/%s/invoice/%s", realmID, id), nil, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Invoice Invoice `json:"Invoice"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse invoice response: %w", err)
	}
	return &resp.Invoice, nil
}

// CreateInvoice creates a remote invoice and returns it with its new ID
func (c *Client) CreateInvoice(ctx context.Context, realmID string, invoice Invoice) (*Invoice, error) {
	body, err := c.request(ctx, "POST", fmt.Sprintf("/v3/company/%s/invoice", realmID), nil, invoice)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Invoice Invoice `json:"Invoice"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse invoice response: %w", err)
	}
	return &resp.Invoice, nil
}

// UpdateInvoice submits a sparse update carrying the current SyncToken
func (c *Client) UpdateInvoice(ctx context.Context, realmID string, invoice Invoice) (*Invoice, error) {
	invoice.Sparse = true
	return c.CreateInvoice(ctx, realmID, invoice)
}

// QueryEstimates fetches the full remote estimate set; local orders are
// synchronized against estimates
func (c *Client) QueryEstimates(ctx context.Context, realmID string) ([]Estimate, error) {
	body, err := c.query(ctx, realmID, "select * from Estimate")
	if err != nil {
		return nil, err
	}
	var resp struct {
		QueryResponse struct {
			Estimate []Estimate `json:"Estimate"`
		} `json:"QueryResponse"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse estimate query response: %w", err)
	}
	return resp.QueryResponse.Estimate, nil
}

// GetEstimate reads one remote estimate
func (c *Client) GetEstimate(ctx context.Context, realmID, id string) (*Estimate, error) {
	body, err := c.request(ctx, "GET", fmt.Sprintf("/v3/company/%s/estimate/%s", realmID, id), nil, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Estimate Estimate `json:"Estimate"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse estimate response: %w", err)
	}
	return &resp.Estimate, nil
}

// CreateEstimate creates a remote estimate and returns it with its new ID
func (c *Client) CreateEstimate(ctx context.Context, realmID string, estimate Estimate) (*Estimate, error) {
	body, err := c.request(ctx, "POST", fmt.Sprintf("/v3/company/%s/estimate", realmID), nil, estimate)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Estimate Estimate `json:"Estimate"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse estimate response: %w", err)
	}
	return &resp.Estimate, nil
}

// UpdateEstimate submits a sparse update carrying the current SyncToken
func (c *Client) UpdateEstimate(ctx context.Context, realmID string, estimate Estimate) (*Estimate, error) {
	estimate.Sparse = true
	return c.CreateEstimate(ctx, realmID, estimate)
}
