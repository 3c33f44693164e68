// Package novaposhta provides integration with the Nova Poshta carrier
// through the storefront backend's carrier proxy.
package novaposhta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kramstore/delivery/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "novaposhta"

// Config holds Nova Poshta configuration.
type Config struct {
	BaseURL   string
	AuthToken string
	UseMock   bool // When true, uses mock API client
}

// Client is the Nova Poshta carrier client.
// It implements the carrier.Carrier interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
//
// Read operations (city search, warehouse listing) never surface transport
// errors to the caller: failures are logged and collapse to an empty result,
// so UI paths only ever see "data" or "no data". Write operations return
// typed errors the caller can branch on.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Nova Poshta client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   cfg.BaseURL,
			AuthToken: cfg.AuthToken,
			Timeout:   30 * time.Second,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new Nova Poshta client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// SearchCities finds settlements matching the query.
func (c *Client) SearchCities(ctx context.Context, query string) ([]carrier.City, error) {
	records, err := c.apiClient.SearchCities(ctx, query)
	if err != nil {
		c.logger.Error("Nova Poshta city search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return []carrier.City{}, nil
	}

	cities := make([]carrier.City, len(records))
	for i, r := range records {
		cities[i] = cityToCarrier(r)
	}
	return cities, nil
}

// ListWarehouses lists the pickup locations of a city. Status and kind are
// classified here, once, at the ingestion boundary.
func (c *Client) ListWarehouses(ctx context.Context, cityRef string) ([]carrier.Warehouse, error) {
	if cityRef == "" {
		return nil, carrier.ErrCityRefRequired
	}

	records, err := c.apiClient.GetWarehouses(ctx, cityRef)
	if err != nil {
		c.logger.Error("Nova Poshta warehouse listing failed",
			zap.String("city_ref", cityRef),
			zap.Error(err),
		)
		return []carrier.Warehouse{}, nil
	}

	warehouses := make([]carrier.Warehouse, len(records))
	for i, r := range records {
		warehouses[i] = warehouseToCarrier(r)
	}
	return warehouses, nil
}

// CalculateCost fetches a delivery cost estimate. Failures propagate as
// typed errors; the fallback cost substitution is the caller's decision.
func (c *Client) CalculateCost(ctx context.Context, req *carrier.CostRequest) (*carrier.CostEstimate, error) {
	apiReq := &CalculateRequest{
		CitySender:    req.OriginCityRef,
		CityRecipient: req.DestinationCityRef,
		Weight:        req.WeightKg,
		ServiceType:   string(req.ServiceType),
		Cost:          req.DeclaredValue,
		CargoType:     req.CargoType,
		SeatsAmount:   req.PieceCount,
	}

	record, err := c.apiClient.CalculateDelivery(ctx, apiReq)
	if err != nil {
		c.logger.Error("Nova Poshta cost calculation failed", zap.Error(err))
		return nil, c.mapError(err)
	}

	cost, ok := record.Cost.Float()
	if !ok {
		return nil, carrier.NewCarrierError(carrierName, "BAD_COST", "cost field is not numeric")
	}
	assessed, _ := record.AssessedCost.Float()

	return &carrier.CostEstimate{
		Amount:        cost,
		AssessedValue: assessed,
	}, nil
}

// CreateShipment registers a shipment with the carrier.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.Shipment, error) {
	c.logger.Info("Creating Nova Poshta shipment",
		zap.String("city_ref", req.CityRef),
		zap.String("delivery_type", string(req.DeliveryType)),
		zap.String("reference", req.Reference),
	)

	apiReq := shipmentToAPI(req)

	record, err := c.apiClient.CreateShipping(ctx, apiReq)
	if err != nil {
		c.logger.Error("Nova Poshta shipment creation failed", zap.Error(err))
		return nil, c.mapError(err)
	}

	return shippingRecordToCarrier(record, req.Reference), nil
}

// GetTracking retrieves tracking information for a shipment.
func (c *Client) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingInfo, error) {
	record, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		return nil, c.mapError(err)
	}

	return &carrier.TrackingInfo{
		TrackingNumber: record.Number,
		Status:         record.Status,
		StatusCode:     record.StatusCode,
		CityRecipient:  record.CityRecipient,
	}, nil
}

// mapError converts API-level failures into the carrier error taxonomy.
func (c *Client) mapError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == "CARRIER_REJECTED":
			return carrier.NewCarrierError(carrierName, "VALIDATION_REJECTED", apiErr.Message).
				WithCause(carrier.ErrValidationRejected)
		case strings.HasPrefix(apiErr.Code, "HTTP_5"), apiErr.Code == "TIMEOUT":
			return carrier.NewCarrierError(carrierName, "CARRIER_UNAVAILABLE", apiErr.Message).
				WithRetryable(true).
				WithCause(carrier.ErrCarrierUnavailable)
		case apiErr.Code == "HTTP_404":
			return carrier.NewCarrierError(carrierName, "NOT_FOUND", apiErr.Message).
				WithCause(carrier.ErrTrackingNotFound)
		case apiErr.Code == "HTTP_429":
			return carrier.NewCarrierError(carrierName, "RATE_LIMIT", apiErr.Message).
				WithRetryable(true).
				WithCause(carrier.ErrRateLimitExceeded)
		default:
			return carrier.NewCarrierError(carrierName, apiErr.Code, apiErr.Message)
		}
	}

	return carrier.NewCarrierError(carrierName, "CARRIER_UNAVAILABLE", err.Error()).
		WithRetryable(true).
		WithCause(carrier.ErrCarrierUnavailable)
}

// ============================================================================
// Conversion helpers: API records -> carrier models
// ============================================================================

func cityToCarrier(r CityRecord) carrier.City {
	return carrier.City{
		Ref:  r.Ref,
		Name: r.Description,
		Area: r.AreaDescription,
	}
}

func warehouseToCarrier(r WarehouseRecord) carrier.Warehouse {
	perPiece, _ := r.PlaceMaxWeightAllowed.Float()
	total, _ := r.TotalMaxWeightAllowed.Float()

	return carrier.Warehouse{
		Ref:               r.Ref,
		CityRef:           r.CityRef,
		Description:       r.Description,
		ShortAddress:      r.ShortAddress,
		TypeLabel:         r.TypeOfWarehouse,
		StatusLabel:       r.WarehouseStatus,
		MaxWeightPerPiece: perPiece,
		MaxWeightTotal:    total,
		Status: carrier.ClassifyStatus(r.WarehouseStatus,
			string(r.PlaceMaxWeightAllowed), string(r.TotalMaxWeightAllowed), r.TypeOfWarehouse),
		Kind: carrier.ClassifyKind(r.TypeOfWarehouse),
	}
}

func shippingRecordToCarrier(r *CreateShippingRecord, reference string) *carrier.Shipment {
	cost, _ := r.CostOnSite.Float()

	var estimatedDelivery *time.Time
	if r.EstimatedDeliveryDate != "" {
		if t, err := time.Parse("02.01.2006", r.EstimatedDeliveryDate); err == nil {
			estimatedDelivery = &t
		}
	}

	return &carrier.Shipment{
		TrackingNumber:    r.IntDocNumber,
		Reference:         reference,
		Cost:              cost,
		EstimatedDelivery: estimatedDelivery,
		Carrier:           carrierName,
	}
}

// ============================================================================
// Conversion helpers: carrier models -> API records
// ============================================================================

func shipmentToAPI(req *carrier.ShipmentRequest) *CreateShippingRequest {
	apiReq := &CreateShippingRequest{
		RecipientName:   req.Recipient.FullName,
		RecipientsPhone: req.Recipient.Phone,
		CityRecipient:   req.CityRef,
		Weight:          req.WeightKg,
		Cost:            req.DeclaredValue,
		SeatsAmount:     req.PieceCount,
		Description:     req.Description,
	}

	switch req.DeliveryType {
	case carrier.DeliveryCourier:
		apiReq.ServiceType = string(carrier.ServiceWarehouseDoors)
		apiReq.RecipientAddress = req.Address
	default:
		apiReq.ServiceType = string(carrier.ServiceWarehouseWarehouse)
		apiReq.RecipientAddress = req.WarehouseRef
	}

	if apiReq.SeatsAmount == 0 {
		apiReq.SeatsAmount = 1
	}
	return apiReq
}

var _ carrier.Carrier = (*Client)(nil)
