package novaposhta

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// APIClient defines the interface for the Nova Poshta proxy API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// SearchCities finds settlements matching a free-text query
	SearchCities(ctx context.Context, query string) ([]CityRecord, error)

	// GetWarehouses lists the pickup locations of a settlement
	GetWarehouses(ctx context.Context, cityRef string) ([]WarehouseRecord, error)

	// CalculateDelivery fetches a delivery cost estimate
	CalculateDelivery(ctx context.Context, req *CalculateRequest) (*CalculateRecord, error)

	// CreateShipping registers an internet document (shipment)
	CreateShipping(ctx context.Context, req *CreateShippingRequest) (*CreateShippingRecord, error)

	// GetTracking retrieves the tracking status of a document
	GetTracking(ctx context.Context, number string) (*TrackingRecord, error)
}

// ============================================================================
// API Request/Response Types (match the backend proxy's JSON envelope)
// ============================================================================

// Envelope is the proxy's uniform response wrapper. A 200 response with
// Success=false is a carrier-side rejection, not a transport failure.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors,omitempty"`
}

// FlexString is a field the carrier serves either as a JSON string or as a
// bare number ("30" in one response, 30 in the next).
type FlexString string

// UnmarshalJSON accepts both representations.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	if s == "null" {
		*f = ""
		return nil
	}
	*f = FlexString(s)
	return nil
}

// Float parses the value as a number; ok is false when the field is empty
// or not numeric.
func (f FlexString) Float() (float64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CityRecord represents a settlement in carrier responses.
type CityRecord struct {
	Ref             string `json:"Ref"`
	Description     string `json:"Description"`
	AreaDescription string `json:"AreaDescription"`
}

// WarehouseRecord represents a pickup location in carrier responses.
// Weight limits and status arrive as free-form text.
type WarehouseRecord struct {
	Ref                   string     `json:"Ref"`
	CityRef               string     `json:"CityRef"`
	Description           string     `json:"Description"`
	ShortAddress          string     `json:"ShortAddress"`
	TypeOfWarehouse       string     `json:"TypeOfWarehouse"`
	PlaceMaxWeightAllowed FlexString `json:"PlaceMaxWeightAllowed"`
	TotalMaxWeightAllowed FlexString `json:"TotalMaxWeightAllowed"`
	WarehouseStatus       string     `json:"WarehouseStatus"`
}

// CalculateRequest is the cost calculation payload.
type CalculateRequest struct {
	CitySender    string  `json:"CitySender"`
	CityRecipient string  `json:"CityRecipient"`
	Weight        float64 `json:"Weight"`
	ServiceType   string  `json:"ServiceType"`
	Cost          float64 `json:"Cost"`
	CargoType     string  `json:"CargoType"`
	SeatsAmount   int     `json:"SeatsAmount"`
}

// CalculateRecord is a single cost calculation result.
type CalculateRecord struct {
	Cost         FlexString `json:"Cost"`
	AssessedCost FlexString `json:"AssessedCost"`
}

// CreateShippingRequest is the shipment registration payload.
type CreateShippingRequest struct {
	RecipientName         string  `json:"RecipientName"`
	RecipientsPhone       string  `json:"RecipientsPhone"`
	CityRecipient         string  `json:"CityRecipient"`
	RecipientAddress      string  `json:"RecipientAddress"`
	ServiceType           string  `json:"ServiceType"`
	Weight                float64 `json:"Weight"`
	Cost                  float64 `json:"Cost"`
	SeatsAmount           int     `json:"SeatsAmount"`
	Description           string  `json:"Description"`
	InfoRegClientBarcodes string  `json:"InfoRegClientBarcodes,omitempty"`
}

// CreateShippingRecord is the shipment registration result.
type CreateShippingRecord struct {
	Ref                   string     `json:"Ref"`
	IntDocNumber          string     `json:"IntDocNumber"`
	CostOnSite            FlexString `json:"CostOnSite"`
	EstimatedDeliveryDate string     `json:"EstimatedDeliveryDate"`
}

// TrackingRecord is the tracking status of a document.
type TrackingRecord struct {
	Number             string `json:"Number"`
	Status             string `json:"Status"`
	StatusCode         string `json:"StatusCode"`
	CityRecipient      string `json:"CityRecipient"`
	WarehouseRecipient string `json:"WarehouseRecipient"`
}

// APIError represents an error from the Nova Poshta proxy API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}
