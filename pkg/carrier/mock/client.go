// Package mock provides a mock carrier implementation for testing.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kramstore/delivery/pkg/carrier"
)

// Client is a mock carrier for testing and credential-less development.
type Client struct {
	name string
}

// New creates a new mock carrier.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

var mockCities = []carrier.City{
	{Ref: "kyiv-ref", Name: "Київ", Area: "Київська область"},
	{Ref: "kharkiv-ref", Name: "Харків", Area: "Харківська область"},
	{Ref: "lviv-ref", Name: "Львів", Area: "Львівська область"},
	{Ref: "odesa-ref", Name: "Одеса", Area: "Одеська область"},
}

// SearchCities returns mock cities whose name contains the query.
func (c *Client) SearchCities(ctx context.Context, query string) ([]carrier.City, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]carrier.City, 0, len(mockCities))
	for _, city := range mockCities {
		if q == "" || strings.Contains(strings.ToLower(city.Name), q) {
			result = append(result, city)
		}
	}
	return result, nil
}

// ListWarehouses returns a fixed set of mock warehouses for any known city.
func (c *Client) ListWarehouses(ctx context.Context, cityRef string) ([]carrier.Warehouse, error) {
	if cityRef == "" {
		return nil, carrier.ErrCityRefRequired
	}

	warehouses := []carrier.Warehouse{
		{
			Ref:               cityRef + "-wh-1",
			CityRef:           cityRef,
			Description:       "Відділення №1",
			ShortAddress:      "вул. Хрещатик, 22",
			TypeLabel:         "Відділення",
			StatusLabel:       "Working",
			MaxWeightPerPiece: 30,
			MaxWeightTotal:    1000,
		},
		{
			Ref:               cityRef + "-wh-2",
			CityRef:           cityRef,
			Description:       "Поштомат №1021",
			ShortAddress:      "просп. Перемоги, 5",
			TypeLabel:         "Поштомат",
			MaxWeightPerPiece: 20,
			MaxWeightTotal:    20,
		},
		{
			Ref:          cityRef + "-wh-3",
			CityRef:      cityRef,
			Description:  "Відділення №7 (тимчасово зачинене)",
			ShortAddress: "вул. Соборна, 14",
			TypeLabel:    "Відділення",
			StatusLabel:  "Closed",
		},
	}

	for i := range warehouses {
		w := &warehouses[i]
		w.Status = carrier.ClassifyStatus(w.StatusLabel,
			fmt.Sprintf("%g", w.MaxWeightPerPiece), fmt.Sprintf("%g", w.MaxWeightTotal), w.TypeLabel)
		w.Kind = carrier.ClassifyKind(w.TypeLabel)
	}
	return warehouses, nil
}

// CalculateCost returns a deterministic mock estimate: base rate plus a
// weight component.
func (c *Client) CalculateCost(ctx context.Context, req *carrier.CostRequest) (*carrier.CostEstimate, error) {
	return &carrier.CostEstimate{
		Amount:        50 + 5*req.WeightKg,
		AssessedValue: req.DeclaredValue,
	}, nil
}

// CreateShipment registers a mock shipment.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.Shipment, error) {
	now := time.Now()
	eta := now.Add(2 * 24 * time.Hour)
	return &carrier.Shipment{
		TrackingNumber:    fmt.Sprintf("20%012d", now.UnixNano()%1000000000000),
		Reference:         req.Reference,
		Cost:              50 + 5*req.WeightKg,
		EstimatedDelivery: &eta,
		Carrier:           c.name,
	}, nil
}

// GetTracking returns mock tracking information.
func (c *Client) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingInfo, error) {
	now := time.Now()
	return &carrier.TrackingInfo{
		TrackingNumber: trackingNumber,
		Status:         "Відправлення у дорозі",
		StatusCode:     "4",
		CityRecipient:  "Київ",
		Events: []carrier.TrackingEvent{
			{
				Timestamp:   now.Add(-24 * time.Hour),
				Description: "Відправлення прийнято",
				Location:    "Львів",
			},
			{
				Timestamp:   now.Add(-6 * time.Hour),
				Description: "Відправлення прямує до міста одержувача",
				Location:    "Київ",
			},
		},
	}, nil
}

var _ carrier.Carrier = (*Client)(nil)
