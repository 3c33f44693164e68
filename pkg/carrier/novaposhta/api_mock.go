package novaposhta

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnSearchCities      func(ctx context.Context, query string) ([]CityRecord, error)
	OnGetWarehouses     func(ctx context.Context, cityRef string) ([]WarehouseRecord, error)
	OnCalculateDelivery func(ctx context.Context, req *CalculateRequest) (*CalculateRecord, error)
	OnCreateShipping    func(ctx context.Context, req *CreateShippingRequest) (*CreateShippingRecord, error)
	OnGetTracking       func(ctx context.Context, number string) (*TrackingRecord, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

var mockCityRecords = []CityRecord{
	{Ref: "8d5a980d-391c-11dd-90d9-001a92567626", Description: "Київ", AreaDescription: "Київська"},
	{Ref: "db5c88e0-391c-11dd-90d9-001a92567626", Description: "Харків", AreaDescription: "Харківська"},
	{Ref: "db5c88d0-391c-11dd-90d9-001a92567626", Description: "Львів", AreaDescription: "Львівська"},
	{Ref: "db5c88f5-391c-11dd-90d9-001a92567626", Description: "Одеса", AreaDescription: "Одеська"},
}

// SearchCities returns mock settlements containing the query.
func (m *MockAPIClient) SearchCities(ctx context.Context, query string) ([]CityRecord, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnSearchCities != nil {
		return m.OnSearchCities(ctx, query)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]CityRecord, 0, len(mockCityRecords))
	for _, city := range mockCityRecords {
		if q == "" || strings.Contains(strings.ToLower(city.Description), q) {
			result = append(result, city)
		}
	}
	return result, nil
}

// GetWarehouses returns mock pickup locations.
func (m *MockAPIClient) GetWarehouses(ctx context.Context, cityRef string) ([]WarehouseRecord, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetWarehouses != nil {
		return m.OnGetWarehouses(ctx, cityRef)
	}

	return []WarehouseRecord{
		{
			Ref:                   uuid.New().String(),
			CityRef:               cityRef,
			Description:           "Відділення №1",
			ShortAddress:          "вул. Хрещатик, 22",
			TypeOfWarehouse:       "Відділення",
			PlaceMaxWeightAllowed: "30",
			TotalMaxWeightAllowed: "1100",
			WarehouseStatus:       "Working",
		},
		{
			Ref:                   uuid.New().String(),
			CityRef:               cityRef,
			Description:           "Поштомат №1021",
			ShortAddress:          "просп. Перемоги, 5",
			TypeOfWarehouse:       "Поштомат",
			PlaceMaxWeightAllowed: "20",
			TotalMaxWeightAllowed: "20",
		},
		{
			Ref:                   uuid.New().String(),
			CityRef:               cityRef,
			Description:           "Відділення №7",
			ShortAddress:          "вул. Соборна, 14",
			TypeOfWarehouse:       "Відділення",
			PlaceMaxWeightAllowed: "0",
			TotalMaxWeightAllowed: "0",
		},
	}, nil
}

// CalculateDelivery returns a mock cost estimate.
func (m *MockAPIClient) CalculateDelivery(ctx context.Context, req *CalculateRequest) (*CalculateRecord, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnCalculateDelivery != nil {
		return m.OnCalculateDelivery(ctx, req)
	}

	cost := 50 + 5*req.Weight
	return &CalculateRecord{
		Cost:         FlexString(fmt.Sprintf("%.0f", cost)),
		AssessedCost: FlexString(fmt.Sprintf("%.0f", req.Cost)),
	}, nil
}

// CreateShipping registers a mock shipment.
func (m *MockAPIClient) CreateShipping(ctx context.Context, req *CreateShippingRequest) (*CreateShippingRecord, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnCreateShipping != nil {
		return m.OnCreateShipping(ctx, req)
	}

	return &CreateShippingRecord{
		Ref:                   uuid.New().String(),
		IntDocNumber:          fmt.Sprintf("20%012d", time.Now().UnixNano()%1000000000000),
		CostOnSite:            FlexString(fmt.Sprintf("%.0f", 50+5*req.Weight)),
		EstimatedDeliveryDate: time.Now().AddDate(0, 0, 2).Format("02.01.2006"),
	}, nil
}

// GetTracking retrieves mock tracking information.
func (m *MockAPIClient) GetTracking(ctx context.Context, number string) (*TrackingRecord, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, number)
	}

	return &TrackingRecord{
		Number:        number,
		Status:        "Відправлення у дорозі",
		StatusCode:    "4",
		CityRecipient: "Київ",
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
