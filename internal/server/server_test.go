package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/kramstore/delivery/internal/selection"
	"github.com/kramstore/delivery/internal/server"
	"github.com/kramstore/delivery/pkg/carrier"
	"github.com/kramstore/delivery/pkg/carrier/mock"
)

// brokenCarrier fails every operation, for exercising the error paths.
type brokenCarrier struct{}

func (brokenCarrier) Name() string { return "broken" }

func (brokenCarrier) SearchCities(ctx context.Context, query string) ([]carrier.City, error) {
	return nil, carrier.NewCarrierError("broken", "TIMEOUT", "search timed out").WithCause(carrier.ErrCarrierUnavailable)
}

func (brokenCarrier) ListWarehouses(ctx context.Context, cityRef string) ([]carrier.Warehouse, error) {
	return nil, carrier.NewCarrierError("broken", "TIMEOUT", "listing timed out").WithCause(carrier.ErrCarrierUnavailable)
}

func (brokenCarrier) CalculateCost(ctx context.Context, req *carrier.CostRequest) (*carrier.CostEstimate, error) {
	return nil, carrier.NewCarrierError("broken", "TIMEOUT", "cost timed out").WithCause(carrier.ErrCarrierUnavailable)
}

func (brokenCarrier) CreateShipment(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.Shipment, error) {
	return nil, carrier.NewCarrierError("broken", "CARRIER_REJECTED", "bad recipient").WithCause(carrier.ErrValidationRejected)
}

func (brokenCarrier) GetTracking(ctx context.Context, trackingNumber string) (*carrier.TrackingInfo, error) {
	return nil, carrier.NewCarrierError("broken", "HTTP_404", "unknown number").WithCause(carrier.ErrTrackingNotFound)
}

var _ carrier.Carrier = brokenCarrier{}

// countingCarrier records the queries that reach SearchCities.
type countingCarrier struct {
	carrier.Carrier
	queries []string
}

func (c *countingCarrier) SearchCities(ctx context.Context, query string) ([]carrier.City, error) {
	c.queries = append(c.queries, query)
	return c.Carrier.SearchCities(ctx, query)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestHandler(t *testing.T) (http.Handler, *selection.MemoryStore) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	registry := carrier.NewRegistry()
	registry.Register(mock.New("novaposhta"))
	registry.Register(brokenCarrier{})
	store := selection.NewMemoryStore(0)

	srv := server.New(server.Config{Port: 8080}, registry, store, logger, nil)
	return srv.Handler(), store
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func putSelection(t *testing.T, store *selection.MemoryStore, sessionID string) *selection.Selection {
	t.Helper()
	sel := &selection.Selection{
		Carrier:          "novaposhta",
		DeliveryType:     carrier.DeliveryWarehouse,
		CityRef:          "kyiv-ref",
		CityName:         "Київ",
		WarehouseRef:     "kyiv-ref-wh-1",
		WarehouseAddress: "Відділення №1 (вул. Хрещатик, 22)",
	}
	require.NoError(t, store.Put(context.Background(), sessionID, sel))
	return sel
}

func TestServer_Health(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, _ := doRequest(t, handler, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_OpenSession(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sessions", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	var data struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.SessionID)
}

func TestServer_SelectionLifecycle(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{
		"carrier": "novaposhta",
		"deliveryType": "warehouse",
		"cityRef": "kyiv-ref",
		"cityName": "Київ",
		"warehouseRef": "kyiv-ref-wh-1",
		"warehouseAddress": "Відділення №1 (вул. Хрещатик, 22)"
	}`

	rec, _ := doRequest(t, handler, http.MethodPut, "/api/v1/sessions/sess-1/selection", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/sessions/sess-1/selection", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sel selection.Selection
	require.NoError(t, json.Unmarshal(env.Data, &sel))
	assert.Equal(t, "kyiv-ref-wh-1", sel.WarehouseRef)

	rec, _ = doRequest(t, handler, http.MethodDelete, "/api/v1/sessions/sess-1/selection", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = doRequest(t, handler, http.MethodGet, "/api/v1/sessions/sess-1/selection", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "SELECTION_NOT_FOUND", env.Errors[0].Code)
}

func TestServer_PutSelection_Invalid(t *testing.T) {
	handler, _ := newTestHandler(t)

	// Courier delivery with a warehouse ref violates the exclusivity rule.
	body := `{
		"carrier": "novaposhta",
		"deliveryType": "courier",
		"cityRef": "kyiv-ref",
		"cityName": "Київ",
		"warehouseRef": "kyiv-ref-wh-1",
		"courierAddress": "вул. Хрещатик, 22"
	}`

	rec, env := doRequest(t, handler, http.MethodPut, "/api/v1/sessions/sess-1/selection", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "VALIDATION_REJECTED", env.Errors[0].Code)
}

func TestServer_PutSelection_BadJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodPut, "/api/v1/sessions/sess-1/selection", "{broken")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "BAD_REQUEST", env.Errors[0].Code)
}

func TestServer_SearchCities(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities?search=Ки", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var cities []carrier.City
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	require.Len(t, cities, 1)
	assert.Equal(t, "Київ", cities[0].Name)
}

func TestServer_SearchCities_ShortQuery(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities?search=К", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var cities []carrier.City
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	assert.Empty(t, cities)
}

func TestServer_SearchCities_PaddedShortQueryNeverReachesCarrier(t *testing.T) {
	logger := otelzap.New(zap.NewNop())
	cc := &countingCarrier{Carrier: mock.New("novaposhta")}
	registry := carrier.NewRegistry()
	registry.Register(cc)
	srv := server.New(server.Config{Port: 8080}, registry, selection.NewMemoryStore(0), logger, nil)

	// "К " is one rune after trimming.
	rec, env := doRequest(t, srv.Handler(), http.MethodGet, "/api/v1/cities?search=%D0%9A%20", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var cities []carrier.City
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	assert.Empty(t, cities)
	assert.Empty(t, cc.queries)
}

func TestServer_SearchCities_CarrierFailureCollapses(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities?search=Київ&carrier=broken", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var cities []carrier.City
	require.NoError(t, json.Unmarshal(env.Data, &cities))
	assert.Empty(t, cities)
}

func TestServer_UnknownCarrier(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities?search=Київ&carrier=nosuch", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "CARRIER_NOT_FOUND", env.Errors[0].Code)
}

func TestServer_ListWarehouses(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities/kyiv-ref/warehouses", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var warehouses []carrier.Warehouse
	require.NoError(t, json.Unmarshal(env.Data, &warehouses))
	require.Len(t, warehouses, 3)

	// Closed warehouses stay in the listing for disabled rendering.
	var closed int
	for _, w := range warehouses {
		if !w.Operational() {
			closed++
		}
	}
	assert.Equal(t, 1, closed)
}

func TestServer_ListWarehouses_KindFilter(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/cities/kyiv-ref/warehouses?type=parcel_locker", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var warehouses []carrier.Warehouse
	require.NoError(t, json.Unmarshal(env.Data, &warehouses))
	require.Len(t, warehouses, 1)
	assert.Equal(t, carrier.KindParcelLocker, warehouses[0].Kind)
}

func TestServer_ListWarehouses_SearchFilter(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet,
		"/api/v1/cities/kyiv-ref/warehouses?search=%D1%81%D0%BE%D0%B1%D0%BE%D1%80%D0%BD%D0%B0", "") // "соборна"

	require.Equal(t, http.StatusOK, rec.Code)
	var warehouses []carrier.Warehouse
	require.NoError(t, json.Unmarshal(env.Data, &warehouses))
	require.Len(t, warehouses, 1)
	assert.Contains(t, warehouses[0].ShortAddress, "Соборна")
}

func TestServer_SessionCost(t *testing.T) {
	handler, store := newTestHandler(t)
	putSelection(t, store, "sess-1")

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sessions/sess-1/cost", `{"weight_kg": 2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result selection.CostResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 60.0, result.Amount) // mock: 50 + 5*2
	assert.False(t, result.Fallback)
}

func TestServer_SessionCost_FallbackOnCarrierFailure(t *testing.T) {
	handler, store := newTestHandler(t)
	putSelection(t, store, "sess-1")

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sessions/sess-1/cost?carrier=broken", `{"weight_kg": 2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var result selection.CostResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, float64(selection.FallbackCost), result.Amount)
	assert.True(t, result.Fallback)
}

func TestServer_SessionCost_NoSelection(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/sessions/nope/cost", `{"weight_kg": 2}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "SELECTION_NOT_FOUND", env.Errors[0].Code)
}

func TestServer_CostComparison(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/cost/comparison", `{"weight_kg": 2}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var costs []struct {
		Carrier string  `json:"carrier"`
		Amount  float64 `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &costs))
	// The broken carrier drops out; the mock prices the shipment.
	require.Len(t, costs, 1)
	assert.Equal(t, "novaposhta", costs[0].Carrier)
	assert.Equal(t, 60.0, costs[0].Amount)
}

func TestServer_CreateShipment(t *testing.T) {
	handler, store := newTestHandler(t)
	putSelection(t, store, "sess-1")

	body := `{
		"sessionId": "sess-1",
		"recipientName": "Олена Петренко",
		"recipientPhone": "067 123 45 67",
		"weightKg": 2,
		"declaredValue": 1200
	}`

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/shipments", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	var shipment carrier.Shipment
	require.NoError(t, json.Unmarshal(env.Data, &shipment))
	assert.NotEmpty(t, shipment.TrackingNumber)
	assert.Equal(t, "novaposhta", shipment.Carrier)
}

func TestServer_CreateShipment_InvalidPhone(t *testing.T) {
	handler, store := newTestHandler(t)
	putSelection(t, store, "sess-1")

	body := `{"sessionId": "sess-1", "recipientName": "Олена", "recipientPhone": "12345", "weightKg": 2}`

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/shipments", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "VALIDATION_REJECTED", env.Errors[0].Code)
}

func TestServer_CreateShipment_NoSelection(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := `{"sessionId": "nope", "recipientName": "Олена", "recipientPhone": "0671234567", "weightKg": 2}`

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/shipments", body)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "SELECTION_NOT_FOUND", env.Errors[0].Code)
}

func TestServer_CreateShipment_CarrierRejection(t *testing.T) {
	handler, store := newTestHandler(t)
	putSelection(t, store, "sess-1")

	body := `{"sessionId": "sess-1", "recipientName": "Олена", "recipientPhone": "0671234567", "weightKg": 2}`

	rec, env := doRequest(t, handler, http.MethodPost, "/api/v1/shipments?carrier=broken", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "VALIDATION_REJECTED", env.Errors[0].Code)
}

func TestServer_Tracking(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/shipments/20450000000001", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var info carrier.TrackingInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "20450000000001", info.TrackingNumber)
	assert.NotEmpty(t, info.Events)
}

func TestServer_Tracking_NotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec, env := doRequest(t, handler, http.MethodGet, "/api/v1/shipments/000?carrier=broken", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "TRACKING_NOT_FOUND", env.Errors[0].Code)
}
