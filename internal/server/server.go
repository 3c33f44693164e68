// Package server exposes the delivery subsystem over REST for the
// storefront checkout pages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/kramstore/delivery/internal/phone"
	"github.com/kramstore/delivery/internal/selection"
	"github.com/kramstore/delivery/internal/telemetry"
	"github.com/kramstore/delivery/pkg/carrier"
)

// Server is the HTTP server for the delivery service.
type Server struct {
	port           int
	defaultCarrier string
	registry       *carrier.Registry
	store          selection.Store
	logger         *otelzap.Logger
	metrics        *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port           int
	DefaultCarrier string
}

// New creates a new server instance. Metrics may be nil.
func New(cfg Config, registry *carrier.Registry, store selection.Store, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	if cfg.DefaultCarrier == "" {
		cfg.DefaultCarrier = "novaposhta"
	}
	return &Server{
		port:           cfg.Port,
		defaultCarrier: cfg.DefaultCarrier,
		registry:       registry,
		store:          store,
		logger:         logger,
		metrics:        metrics,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/sessions", s.handleOpenSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}/selection", s.handleGetSelection)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/selection", s.handlePutSelection)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/selection", s.handleClearSelection)
	mux.HandleFunc("POST /api/v1/sessions/{id}/cost", s.handleSessionCost)

	mux.HandleFunc("GET /api/v1/cities", s.handleSearchCities)
	mux.HandleFunc("GET /api/v1/cities/{ref}/warehouses", s.handleListWarehouses)

	mux.HandleFunc("POST /api/v1/cost/comparison", s.handleCostComparison)
	mux.HandleFunc("POST /api/v1/shipments", s.handleCreateShipment)
	mux.HandleFunc("GET /api/v1/shipments/{number}", s.handleTracking)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Response envelope shared by all API handlers.
type apiResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Errors  []apiError `json:"errors,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{
		Errors: []apiError{{Code: code, Message: message}},
	})
}

// writeCarrierError maps the carrier error taxonomy onto HTTP statuses.
func writeCarrierError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, carrier.ErrValidationRejected):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_REJECTED", err.Error())
	case errors.Is(err, carrier.ErrTrackingNotFound):
		writeError(w, http.StatusNotFound, "TRACKING_NOT_FOUND", err.Error())
	case errors.Is(err, carrier.ErrRateLimitExceeded):
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
	case errors.Is(err, carrier.ErrCarrierUnavailable):
		writeError(w, http.StatusServiceUnavailable, "CARRIER_UNAVAILABLE", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "CARRIER_ERROR", err.Error())
	}
}

// carrierFor resolves the carrier named by the request, falling back to the
// configured default.
func (s *Server) carrierFor(r *http.Request) (carrier.Carrier, error) {
	name := r.URL.Query().Get("carrier")
	if name == "" {
		name = s.defaultCarrier
	}
	return s.registry.Get(name)
}

func (s *Server) record(op, carrierName, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordRequest(op, carrierName, status, time.Since(start).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type sessionOpened struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusCreated, sessionOpened{SessionID: uuid.NewString()})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sel, err := s.store.Get(r.Context(), id)
	if err != nil {
		// Store failures read as absent; checkout re-collects the choice.
		s.logger.Warn("selection read failed", zap.String("session_id", id), zap.Error(err))
		sel = nil
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "SELECTION_NOT_FOUND", "no selection for session")
		return
	}
	writeData(w, http.StatusOK, sel)
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var sel selection.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON: "+err.Error())
		return
	}
	if err := sel.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_REJECTED", err.Error())
		return
	}
	if err := s.store.Put(r.Context(), id, &sel); err != nil {
		s.logger.Error("selection write failed", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "could not persist selection")
		return
	}
	writeData(w, http.StatusOK, &sel)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.store.Clear(r.Context(), id); err != nil {
		s.logger.Error("selection clear failed", zap.String("session_id", id), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "could not clear selection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchCities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	c, err := s.carrierFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "CARRIER_NOT_FOUND", err.Error())
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("search"))
	if utf8.RuneCountInString(query) < selection.MinQueryLength {
		writeData(w, http.StatusOK, []carrier.City{})
		return
	}

	cities, err := c.SearchCities(r.Context(), query)
	if err != nil {
		// Reads collapse to empty for render paths.
		s.logger.Warn("city search failed", zap.String("query", query), zap.Error(err))
		cities = nil
	}
	if cities == nil {
		cities = []carrier.City{}
	}

	s.record("search_cities", c.Name(), "ok", start)
	writeData(w, http.StatusOK, cities)
}

func (s *Server) handleListWarehouses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	c, err := s.carrierFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "CARRIER_NOT_FOUND", err.Error())
		return
	}

	cityRef := r.PathValue("ref")
	filter := parseKindFilter(r.URL.Query().Get("type"))
	search := r.URL.Query().Get("search")

	warehouses, err := c.ListWarehouses(r.Context(), cityRef)
	if err != nil {
		s.logger.Warn("warehouse listing failed", zap.String("city_ref", cityRef), zap.Error(err))
		warehouses = nil
	}

	filtered := carrier.FilterWarehouses(warehouses, filter, search)

	s.record("list_warehouses", c.Name(), "ok", start)
	writeData(w, http.StatusOK, filtered)
}

func parseKindFilter(raw string) carrier.KindFilter {
	switch raw {
	case "post_office", "branch":
		return carrier.FilterPostOffice
	case "cargo":
		return carrier.FilterCargo
	case "parcel_locker", "poshtomat":
		return carrier.FilterParcelLocker
	default:
		return carrier.FilterAll
	}
}

func (s *Server) handleSessionCost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.PathValue("id")

	c, err := s.carrierFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "CARRIER_NOT_FOUND", err.Error())
		return
	}

	var req carrier.CostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON: "+err.Error())
		return
	}

	sel, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Warn("selection read failed", zap.String("session_id", id), zap.Error(err))
		sel = nil
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "SELECTION_NOT_FOUND", "no selection for session")
		return
	}
	if req.DestinationCityRef == "" {
		req.DestinationCityRef = sel.CityRef
	}

	result := selection.ResolveCost(r.Context(), c, &req, s.logger, s.metrics)

	s.record("calculate_cost", c.Name(), "ok", start)
	writeData(w, http.StatusOK, result)
}

type carrierCost struct {
	Carrier       string  `json:"carrier"`
	Amount        float64 `json:"amount"`
	AssessedValue float64 `json:"assessedValue,omitempty"`
}

func (s *Server) handleCostComparison(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req carrier.CostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON: "+err.Error())
		return
	}

	costs, errs := s.registry.CalculateAll(r.Context(), &req)
	for _, err := range errs {
		s.logger.Warn("cost comparison partial failure", zap.Error(err))
	}

	out := make([]carrierCost, 0, len(costs))
	for _, cc := range costs {
		out = append(out, carrierCost{
			Carrier:       cc.Carrier,
			Amount:        cc.Estimate.Amount,
			AssessedValue: cc.Estimate.AssessedValue,
		})
	}

	s.record("cost_comparison", "all", "ok", start)
	writeData(w, http.StatusOK, out)
}

type createShipmentRequest struct {
	SessionID      string  `json:"sessionId"`
	RecipientName  string  `json:"recipientName"`
	RecipientPhone string  `json:"recipientPhone"`
	WeightKg       float64 `json:"weightKg"`
	DeclaredValue  float64 `json:"declaredValue"`
	PieceCount     int     `json:"pieceCount,omitempty"`
	Description    string  `json:"description,omitempty"`
	Reference      string  `json:"reference,omitempty"`
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	c, err := s.carrierFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "CARRIER_NOT_FOUND", err.Error())
		return
	}

	var req createShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON: "+err.Error())
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "sessionId is required")
		return
	}
	if !phone.Valid(req.RecipientPhone) {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_REJECTED", "recipient phone is not a valid Ukrainian number")
		return
	}

	sel, err := s.store.Get(r.Context(), req.SessionID)
	if err != nil {
		s.logger.Warn("selection read failed", zap.String("session_id", req.SessionID), zap.Error(err))
		sel = nil
	}
	if sel == nil {
		writeError(w, http.StatusNotFound, "SELECTION_NOT_FOUND", "no selection for session")
		return
	}

	shipReq := &carrier.ShipmentRequest{
		DeliveryType: sel.DeliveryType,
		Recipient: carrier.Recipient{
			FullName: req.RecipientName,
			Phone:    phone.Normalize(req.RecipientPhone),
		},
		CityRef:          sel.CityRef,
		CityName:         sel.CityName,
		WarehouseRef:     sel.WarehouseRef,
		WarehouseAddress: sel.WarehouseAddress,
		Address:          sel.CourierAddress,
		WeightKg:         req.WeightKg,
		DeclaredValue:    req.DeclaredValue,
		PieceCount:       req.PieceCount,
		Description:      req.Description,
		Reference:        req.Reference,
	}

	shipment, err := c.CreateShipment(r.Context(), shipReq)
	if err != nil {
		s.record("create_shipment", c.Name(), "error", start)
		writeCarrierError(w, err)
		return
	}

	s.record("create_shipment", c.Name(), "ok", start)
	writeData(w, http.StatusCreated, shipment)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	c, err := s.carrierFor(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "CARRIER_NOT_FOUND", err.Error())
		return
	}

	info, err := c.GetTracking(r.Context(), r.PathValue("number"))
	if err != nil {
		s.record("get_tracking", c.Name(), "error", start)
		writeCarrierError(w, err)
		return
	}

	s.record("get_tracking", c.Name(), "ok", start)
	writeData(w, http.StatusOK, info)
}
