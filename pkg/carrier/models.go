package carrier

import (
	"time"
)

// DeliveryType represents how a shipment reaches the recipient.
type DeliveryType string

const (
	DeliveryWarehouse DeliveryType = "warehouse"
	DeliveryPoshtomat DeliveryType = "poshtomat"
	DeliveryCourier   DeliveryType = "courier"
)

// WarehouseStatus is the normalized operational status of a pickup location.
type WarehouseStatus string

const (
	StatusWorking WarehouseStatus = "working"
	StatusClosed  WarehouseStatus = "closed"
	StatusUnknown WarehouseStatus = "unknown"
)

// WarehouseKind is the normalized classification of a pickup location.
type WarehouseKind string

const (
	KindPostOffice   WarehouseKind = "post_office"
	KindCargo        WarehouseKind = "cargo"
	KindParcelLocker WarehouseKind = "parcel_locker"
	KindOther        WarehouseKind = "other"
)

// KindFilter selects a subset of warehouse kinds for listing.
type KindFilter string

const (
	FilterAll          KindFilter = "all"
	FilterPostOffice   KindFilter = "post_office"
	FilterCargo        KindFilter = "cargo"
	FilterParcelLocker KindFilter = "parcel_locker"
)

// ServiceType represents the carrier service between sender and recipient.
type ServiceType string

const (
	ServiceWarehouseWarehouse ServiceType = "WarehouseWarehouse"
	ServiceWarehouseDoors     ServiceType = "WarehouseDoors"
	ServiceDoorsWarehouse     ServiceType = "DoorsWarehouse"
	ServiceDoorsDoors         ServiceType = "DoorsDoors"
)

// City represents a settlement known to the carrier.
// Identity is Ref, an opaque carrier-assigned identifier.
type City struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
	Area string `json:"area"`
}

// Warehouse represents a carrier pickup location. Status and Kind are
// assigned once when the carrier response is ingested; the raw labels are
// kept alongside for display.
type Warehouse struct {
	Ref               string          `json:"ref"`
	CityRef           string          `json:"city_ref"`
	Description       string          `json:"description"`
	ShortAddress      string          `json:"short_address"`
	TypeLabel         string          `json:"type_label"`
	StatusLabel       string          `json:"status_label"`
	MaxWeightPerPiece float64         `json:"max_weight_per_piece"`
	MaxWeightTotal    float64         `json:"max_weight_total"`
	Status            WarehouseStatus `json:"status"`
	Kind              WarehouseKind   `json:"kind"`
}

// Operational reports whether the warehouse accepts shipments.
// Unknown-status warehouses count as operational; the observed carrier data
// leaves status blank for most working branches.
func (w *Warehouse) Operational() bool {
	return w.Status != StatusClosed
}

// CostRequest describes a shipment for cost estimation.
type CostRequest struct {
	OriginCityRef      string      `json:"origin_city_ref"`
	DestinationCityRef string      `json:"destination_city_ref"`
	WeightKg           float64     `json:"weight_kg"`
	ServiceType        ServiceType `json:"service_type"`
	DeclaredValue      float64     `json:"declared_value"`
	CargoType          string      `json:"cargo_type"`
	PieceCount         int         `json:"piece_count"`
}

// CostEstimate is the carrier's quoted delivery cost in local currency units.
type CostEstimate struct {
	Amount        float64 `json:"amount"`
	AssessedValue float64 `json:"assessed_value"`
}

// Recipient holds recipient contact details for a shipment.
type Recipient struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// ShipmentRequest carries everything the carrier needs to register a shipment.
// Exactly one of WarehouseRef / Address is set, switched by DeliveryType.
type ShipmentRequest struct {
	DeliveryType     DeliveryType `json:"delivery_type"`
	Recipient        Recipient    `json:"recipient"`
	CityRef          string       `json:"city_ref"`
	CityName         string       `json:"city_name"`
	WarehouseRef     string       `json:"warehouse_ref,omitempty"`
	WarehouseAddress string       `json:"warehouse_address,omitempty"`
	Address          string       `json:"address,omitempty"`
	WeightKg         float64      `json:"weight_kg"`
	DeclaredValue    float64      `json:"declared_value"`
	PieceCount       int          `json:"piece_count"`
	Description      string       `json:"description"`
	Reference        string       `json:"reference"`
}

// Shipment is the carrier's record of a registered shipment.
type Shipment struct {
	TrackingNumber    string     `json:"tracking_number"`
	Reference         string     `json:"reference"`
	Cost              float64    `json:"cost"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	Carrier           string     `json:"carrier"`
}

// TrackingInfo is the normalized tracking state of a shipment.
type TrackingInfo struct {
	TrackingNumber string          `json:"tracking_number"`
	Status         string          `json:"status"`
	StatusCode     string          `json:"status_code"`
	CityRecipient  string          `json:"city_recipient"`
	Events         []TrackingEvent `json:"events,omitempty"`
}

// TrackingEvent is a single scan/status event in a shipment's history.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
}
