package novaposhta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// It speaks to the storefront backend's carrier proxy, which wraps every
// response in the {success, data, errors} envelope.
type HTTPAPIClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SearchCities fetches settlements matching the query.
// GET /cities?search={q}
func (c *HTTPAPIClient) SearchCities(ctx context.Context, query string) ([]CityRecord, error) {
	path := "/cities?search=" + url.QueryEscape(query)

	data, err := c.doEnvelope(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var cities []CityRecord
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to decode cities response: %w", err)
	}
	return cities, nil
}

// GetWarehouses fetches the pickup locations of a settlement.
// GET /warehouses/{cityRef}
func (c *HTTPAPIClient) GetWarehouses(ctx context.Context, cityRef string) ([]WarehouseRecord, error) {
	path := "/warehouses/" + url.PathEscape(cityRef)

	data, err := c.doEnvelope(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var warehouses []WarehouseRecord
	if err := json.Unmarshal(data, &warehouses); err != nil {
		return nil, fmt.Errorf("failed to decode warehouses response: %w", err)
	}
	return warehouses, nil
}

// CalculateDelivery fetches a delivery cost estimate.
// POST /calculate. The proxy answers with a one-element result array.
func (c *HTTPAPIClient) CalculateDelivery(ctx context.Context, req *CalculateRequest) (*CalculateRecord, error) {
	data, err := c.doEnvelope(ctx, http.MethodPost, "/calculate", req)
	if err != nil {
		return nil, err
	}

	var records []CalculateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode calculate response: %w", err)
	}
	if len(records) == 0 {
		return nil, &APIError{Code: "EMPTY_RESULT", Message: "calculate returned no records"}
	}
	return &records[0], nil
}

// CreateShipping registers a shipment.
// POST /create-shipping
func (c *HTTPAPIClient) CreateShipping(ctx context.Context, req *CreateShippingRequest) (*CreateShippingRecord, error) {
	data, err := c.doEnvelope(ctx, http.MethodPost, "/create-shipping", req)
	if err != nil {
		return nil, err
	}

	var record CreateShippingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Some proxy deployments wrap the record in a one-element array.
		var records []CreateShippingRecord
		if err2 := json.Unmarshal(data, &records); err2 != nil || len(records) == 0 {
			return nil, fmt.Errorf("failed to decode create-shipping response: %w", err)
		}
		record = records[0]
	}
	return &record, nil
}

// GetTracking retrieves the tracking status of a document.
// GET /tracking/{number}
func (c *HTTPAPIClient) GetTracking(ctx context.Context, number string) (*TrackingRecord, error) {
	path := "/tracking/" + url.PathEscape(number)

	data, err := c.doEnvelope(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var record TrackingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}
	return &record, nil
}

// doEnvelope performs a request and unwraps the proxy envelope, converting
// Success=false into an APIError.
func (c *HTTPAPIClient) doEnvelope(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var envelope Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	if !envelope.Success {
		return nil, &APIError{
			Code:    "CARRIER_REJECTED",
			Message: strings.Join(envelope.Errors, "; "),
		}
	}
	return envelope.Data, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	requestURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	req.Header.Set("User-Agent", "kram-delivery/1.0")

	return c.httpClient.Do(req)
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		return &apiErr
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		return &APIError{
			Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message: strings.Join(envelope.Errors, "; "),
		}
	}

	return &APIError{
		Code:    fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message: string(body),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
