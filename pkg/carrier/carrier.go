// Package carrier provides an abstraction layer for delivery carriers.
package carrier

import (
	"context"
)

// Carrier defines the interface that all delivery carriers must implement.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "novaposhta").
	Name() string

	// SearchCities finds settlements matching a free-text query.
	SearchCities(ctx context.Context, query string) ([]City, error)

	// ListWarehouses returns the pickup locations of a city.
	ListWarehouses(ctx context.Context, cityRef string) ([]Warehouse, error)

	// CalculateCost returns a delivery cost estimate for a shipment.
	CalculateCost(ctx context.Context, req *CostRequest) (*CostEstimate, error)

	// CreateShipment registers a shipment with the carrier.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*Shipment, error)

	// GetTracking retrieves tracking information for a shipment.
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingInfo, error)
}
