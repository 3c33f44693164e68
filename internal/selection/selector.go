package selection

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/kramstore/delivery/internal/telemetry"
	"github.com/kramstore/delivery/pkg/carrier"
)

// State is the position of a session in the delivery selection flow.
type State int

const (
	StateIdle State = iota
	StateCitySearching
	StateCitySelected
	StateWarehouseLoading
	StateWarehouseListed
	StateWarehouseSelected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCitySearching:
		return "city_searching"
	case StateCitySelected:
		return "city_selected"
	case StateWarehouseLoading:
		return "warehouse_loading"
	case StateWarehouseListed:
		return "warehouse_listed"
	case StateWarehouseSelected:
		return "warehouse_selected"
	default:
		return "unknown"
	}
}

var (
	ErrNoCitySelected    = errors.New("no city selected")
	ErrWarehouseNotFound = errors.New("warehouse not in the current listing")
	ErrWarehouseClosed   = errors.New("warehouse is not operational")
)

const (
	// DefaultDebounce is how long city keystrokes coalesce before a search fires.
	DefaultDebounce = 500 * time.Millisecond
	// MinQueryLength is the shortest city query worth sending to the carrier.
	MinQueryLength = 2
)

// Selector is the per-session delivery selection state machine. Searches are
// sequence-stamped so a slow response for a superseded query can never
// overwrite newer candidates.
type Selector struct {
	carrier   carrier.Carrier
	store     Store
	sessionID string
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics
	debounce  time.Duration
	minQuery  int

	mu          sync.Mutex
	state       State
	searchSeq   uint64
	timer       *time.Timer
	candidates  []carrier.City
	city        *carrier.City
	warehouses  []carrier.Warehouse
	filtered    []carrier.Warehouse
	kindFilter  carrier.KindFilter
	whQuery     string
	selection   *Selection
	onCities    func([]carrier.City)
	onSelection func(Selection)
}

// Option configures a Selector.
type Option func(*Selector)

// WithDebounce overrides the city search debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Selector) { s.debounce = d }
}

// WithMetrics attaches service metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// OnCityCandidates registers a callback fired when a debounced search
// resolves. The callback runs outside the selector lock.
func OnCityCandidates(fn func([]carrier.City)) Option {
	return func(s *Selector) { s.onCities = fn }
}

// OnSelection registers a callback fired when a complete selection is
// persisted.
func OnSelection(fn func(Selection)) Option {
	return func(s *Selector) { s.onSelection = fn }
}

// NewSelector creates a selector for one storefront session.
func NewSelector(c carrier.Carrier, store Store, sessionID string, logger *otelzap.Logger, opts ...Option) *Selector {
	s := &Selector{
		carrier:    c,
		store:      store,
		sessionID:  sessionID,
		logger:     logger,
		debounce:   DefaultDebounce,
		minQuery:   MinQueryLength,
		state:      StateIdle,
		kindFilter: carrier.FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads a previously persisted selection, if any. Store failures
// read as absent.
func (s *Selector) Restore(ctx context.Context) *Selection {
	sel, err := s.store.Get(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("failed to restore selection",
			zap.String("session_id", s.sessionID),
			zap.Error(err),
		)
		return nil
	}
	if sel == nil {
		return nil
	}

	s.mu.Lock()
	s.selection = sel
	s.city = &carrier.City{Ref: sel.CityRef, Name: sel.CityName}
	s.state = StateWarehouseSelected
	s.mu.Unlock()
	return sel
}

// State returns the current flow state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InputCityQuery feeds one keystroke's worth of city input. Queries shorter
// than the minimum clear the candidate list without a carrier call; longer
// ones schedule a search after the debounce window, superseding any search
// still pending or in flight.
func (s *Selector) InputCityQuery(ctx context.Context, query string) {
	q := strings.TrimSpace(query)

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.searchSeq++
	seq := s.searchSeq

	if utf8.RuneCountInString(q) < s.minQuery {
		s.candidates = nil
		if s.state == StateCitySearching {
			s.state = StateIdle
		}
		cb := s.onCities
		s.mu.Unlock()
		if cb != nil {
			cb(nil)
		}
		return
	}

	s.state = StateCitySearching
	s.timer = time.AfterFunc(s.debounce, func() {
		s.runSearch(ctx, seq, q)
	})
	s.mu.Unlock()
}

func (s *Selector) runSearch(ctx context.Context, seq uint64, query string) {
	cities, err := s.carrier.SearchCities(ctx, query)
	if err != nil {
		s.logger.Warn("city search failed", zap.String("query", query), zap.Error(err))
		cities = nil
	}

	s.mu.Lock()
	if seq != s.searchSeq {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordStaleDrop("city_search")
		}
		return
	}
	s.candidates = cities
	cb := s.onCities
	s.mu.Unlock()

	if cb != nil {
		cb(cities)
	}
}

// Search runs a city search immediately, bypassing the debounce. It still
// supersedes any pending debounced search.
func (s *Selector) Search(ctx context.Context, query string) []carrier.City {
	q := strings.TrimSpace(query)

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.searchSeq++
	seq := s.searchSeq
	if utf8.RuneCountInString(q) < s.minQuery {
		s.candidates = nil
		s.mu.Unlock()
		return nil
	}
	s.state = StateCitySearching
	s.mu.Unlock()

	s.runSearch(ctx, seq, q)
	return s.CityCandidates()
}

// CityCandidates returns the current candidate list.
func (s *Selector) CityCandidates() []carrier.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]carrier.City, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// SelectCity fixes the destination city, drops any previous warehouse
// selection, and loads the city's warehouses. A listing failure leaves the
// session on an empty list; the shopper can retry or switch city.
func (s *Selector) SelectCity(ctx context.Context, city carrier.City) error {
	if city.Ref == "" {
		return carrier.ErrCityRefRequired
	}

	s.mu.Lock()
	s.searchSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.city = &city
	s.selection = nil
	s.warehouses = nil
	s.filtered = nil
	s.candidates = nil
	s.state = StateCitySelected
	s.mu.Unlock()

	if err := s.store.Clear(ctx, s.sessionID); err != nil {
		s.logger.Warn("failed to clear stored selection",
			zap.String("session_id", s.sessionID),
			zap.Error(err),
		)
	}

	s.mu.Lock()
	s.state = StateWarehouseLoading
	s.mu.Unlock()

	whs, err := s.carrier.ListWarehouses(ctx, city.Ref)
	if err != nil {
		s.logger.Warn("warehouse listing failed",
			zap.String("city_ref", city.Ref),
			zap.Error(err),
		)
		whs = nil
	}

	s.mu.Lock()
	if s.city == nil || s.city.Ref != city.Ref {
		// City changed while we were loading.
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordStaleDrop("warehouse_listing")
		}
		return nil
	}
	s.warehouses = whs
	s.filtered = carrier.FilterWarehouses(whs, s.kindFilter, s.whQuery)
	s.state = StateWarehouseListed
	s.mu.Unlock()
	return nil
}

// City returns the selected city, if any.
func (s *Selector) City() *carrier.City {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city == nil {
		return nil
	}
	c := *s.city
	return &c
}

// SetWarehouseFilter narrows the listing by warehouse kind. Re-filters the
// cached listing without a carrier call.
func (s *Selector) SetWarehouseFilter(f carrier.KindFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kindFilter = f
	s.filtered = carrier.FilterWarehouses(s.warehouses, s.kindFilter, s.whQuery)
}

// SetWarehouseQuery narrows the listing by a free-text address match.
// Re-filters the cached listing without a carrier call.
func (s *Selector) SetWarehouseQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whQuery = query
	s.filtered = carrier.FilterWarehouses(s.warehouses, s.kindFilter, s.whQuery)
}

// Warehouses returns the filtered listing. Closed warehouses stay in the
// list so they can render disabled.
func (s *Selector) Warehouses() []carrier.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]carrier.Warehouse, len(s.filtered))
	copy(out, s.filtered)
	return out
}

// SelectWarehouse completes the selection with a warehouse from the current
// listing and persists it. Closed warehouses are rejected.
func (s *Selector) SelectWarehouse(ctx context.Context, ref string) error {
	s.mu.Lock()
	if s.city == nil {
		s.mu.Unlock()
		return ErrNoCitySelected
	}
	var found *carrier.Warehouse
	for i := range s.warehouses {
		if s.warehouses[i].Ref == ref {
			found = &s.warehouses[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return ErrWarehouseNotFound
	}
	if !found.Operational() {
		s.mu.Unlock()
		return ErrWarehouseClosed
	}

	sel := &Selection{
		Carrier:          s.carrier.Name(),
		DeliveryType:     deliveryTypeFor(found.Kind),
		CityRef:          s.city.Ref,
		CityName:         s.city.Name,
		WarehouseRef:     found.Ref,
		WarehouseAddress: found.FullAddress(),
	}
	s.mu.Unlock()

	return s.commit(ctx, sel)
}

// SelectCourier completes the selection with door delivery to the given
// street address in the selected city.
func (s *Selector) SelectCourier(ctx context.Context, address string) error {
	s.mu.Lock()
	if s.city == nil {
		s.mu.Unlock()
		return ErrNoCitySelected
	}
	sel := &Selection{
		Carrier:        s.carrier.Name(),
		DeliveryType:   carrier.DeliveryCourier,
		CityRef:        s.city.Ref,
		CityName:       s.city.Name,
		CourierAddress: address,
	}
	s.mu.Unlock()

	return s.commit(ctx, sel)
}

func (s *Selector) commit(ctx context.Context, sel *Selection) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.sessionID, sel); err != nil {
		s.logger.Error("failed to persist selection",
			zap.String("session_id", s.sessionID),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.selection = sel
	s.state = StateWarehouseSelected
	cb := s.onSelection
	s.mu.Unlock()

	if cb != nil {
		cb(*sel)
	}
	return nil
}

// Selection returns the committed selection, or nil before one exists.
func (s *Selector) Selection() *Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return nil
	}
	sel := *s.selection
	return &sel
}

// EstimateCost prices the current selection. The destination is filled from
// the selection when the request leaves it blank, and carrier failures fall
// back to the flat rate.
func (s *Selector) EstimateCost(ctx context.Context, req carrier.CostRequest) *CostResult {
	s.mu.Lock()
	if req.DestinationCityRef == "" && s.city != nil {
		req.DestinationCityRef = s.city.Ref
	}
	s.mu.Unlock()

	return ResolveCost(ctx, s.carrier, &req, s.logger, s.metrics)
}

// Reset abandons the session's selection and returns the flow to idle.
func (s *Selector) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.searchSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.candidates = nil
	s.city = nil
	s.warehouses = nil
	s.filtered = nil
	s.kindFilter = carrier.FilterAll
	s.whQuery = ""
	s.selection = nil
	s.state = StateIdle
	s.mu.Unlock()

	return s.store.Clear(ctx, s.sessionID)
}

// Close cancels any pending debounced search.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func deliveryTypeFor(kind carrier.WarehouseKind) carrier.DeliveryType {
	if kind == carrier.KindParcelLocker {
		return carrier.DeliveryPoshtomat
	}
	return carrier.DeliveryWarehouse
}
