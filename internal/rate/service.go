// Package rate — HTTP handlers for stay quotes and pricing authoring.
package rate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/inventory"
	"github.com/pitchbase/rate-engine/internal/metrics"
	"github.com/pitchbase/rate-engine/internal/model"
	"github.com/pitchbase/rate-engine/internal/store"
)

// Service handles quote and authoring requests.
type Service struct {
	resolver  *Resolver
	store     store.Store
	inventory inventory.Lookup
	wsHub     *WSHub // optional hub for pricing-change broadcasts
}

// NewService creates a new rate service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, inv inventory.Lookup, hub *WSHub) *Service {
	return &Service{
		resolver:  NewResolver(st, inv),
		store:     st,
		inventory: inv,
		wsHub:     hub,
	}
}

// --- Request/Response types ---

// QuoteRequest is the JSON body for POST /quotes. Dates are calendar
// dates; check_out is exclusive.
type QuoteRequest struct {
	ItemID              string         `json:"item_id"`
	CheckIn             string         `json:"check_in"`  // YYYY-MM-DD
	CheckOut            string         `json:"check_out"` // YYYY-MM-DD
	ParameterQuantities map[string]int `json:"parameter_quantities"`
}

// CreateEventRequest is the JSON body for event creation.
type CreateEventRequest struct {
	Name            string                 `json:"name"`
	StartDate       string                 `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate         string                 `json:"end_date"`   // YYYY-MM-DD, inclusive
	DaysOfWeek      []int                  `json:"days_of_week,omitempty"`
	PricingType     model.PricingType      `json:"pricing_type"`
	DynamicValue    *decimal.Decimal       `json:"dynamic_value,omitempty"`
	DynamicMode     model.DynamicMode      `json:"dynamic_mode,omitempty"`
	YieldThresholds []model.YieldThreshold `json:"yield_thresholds,omitempty"`
}

// CreateTierRequest is the JSON body for tier creation. EventID empty
// creates a base tier. GroupMin/GroupMax must be both set or both absent.
type CreateTierRequest struct {
	ParameterID string          `json:"parameter_id"`
	EventID     string          `json:"event_id,omitempty"`
	GroupMin    *int            `json:"group_min,omitempty"`
	GroupMax    *int            `json:"group_max,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// UpdateStatusRequest is the JSON body for event status changes.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// --- HTTP Handlers ---

// Quote handles POST /api/v1/quotes.
func (s *Service) Quote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		writeError(w, "item_id is required", http.StatusBadRequest)
		return
	}

	checkIn, err := time.Parse(model.DateFormat, req.CheckIn)
	if err != nil {
		writeError(w, "check_in must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	checkOut, err := time.Parse(model.DateFormat, req.CheckOut)
	if err != nil {
		writeError(w, "check_out must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	result, err := s.resolver.ResolvePricing(r.Context(), model.StayRequest{
		ItemID:              req.ItemID,
		CheckIn:             checkIn,
		CheckOut:            checkOut,
		ParameterQuantities: req.ParameterQuantities,
	})
	switch {
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrStayTooLong):
		metrics.QuotesTotal.WithLabelValues("rejected").Inc()
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		metrics.QuotesTotal.WithLabelValues("error").Inc()
		slog.Error("quote failed", "item", req.ItemID, "err", err)
		writeError(w, "failed to resolve pricing", http.StatusInternalServerError)
		return
	}

	metrics.QuotesTotal.WithLabelValues("ok").Inc()
	metrics.QuoteLatency.Observe(time.Since(start).Seconds())
	metrics.QuoteNights.Observe(float64(len(result.NightlyPricing)))
	for _, note := range result.Notes {
		metrics.ResolutionNotes.WithLabelValues(note.Reason).Inc()
	}

	if len(result.Notes) > 0 {
		slog.Warn("quote resolved with notes",
			"item", req.ItemID,
			"nights", len(result.NightlyPricing),
			"notes", len(result.Notes),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// CreateEvent handles POST /api/v1/items/{itemID}/events.
func (s *Service) CreateEvent(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	switch req.PricingType {
	case model.PricingBase, model.PricingNew, model.PricingDynamic, model.PricingYield:
	default:
		writeError(w, "unknown pricing_type", http.StatusBadRequest)
		return
	}

	startDate, err := time.Parse(model.DateFormat, req.StartDate)
	if err != nil {
		writeError(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	endDate, err := time.Parse(model.DateFormat, req.EndDate)
	if err != nil {
		writeError(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	for _, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			writeError(w, "days_of_week entries must be 0-6", http.StatusBadRequest)
			return
		}
	}

	event := &model.Event{
		ID:              uuid.New().String(),
		ItemID:          itemID,
		Name:            req.Name,
		Status:          model.EventAvailable,
		StartDate:       startDate,
		EndDate:         endDate,
		DaysOfWeek:      req.DaysOfWeek,
		PricingType:     req.PricingType,
		DynamicValue:    req.DynamicValue,
		DynamicMode:     req.DynamicMode,
		YieldThresholds: req.YieldThresholds,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.CreateEvent(r.Context(), event); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("pricing event created",
		"id", event.ID,
		"item", itemID,
		"name", event.Name,
		"type", string(event.PricingType),
		"window", req.StartDate+".."+req.EndDate,
	)
	s.broadcast(WSMessage{Type: "event_created", ItemID: itemID, EventID: event.ID})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

// ListEvents handles GET /api/v1/items/{itemID}/events.
func (s *Service) ListEvents(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	events, err := s.store.ListEvents(r.Context(), itemID)
	if err != nil {
		writeError(w, "failed to list events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// UpdateEventStatus handles PUT /api/v1/items/{itemID}/events/{eventID}/status.
func (s *Service) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	eventID := chi.URLParam(r, "eventID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != model.EventAvailable && req.Status != model.EventDisabled {
		writeError(w, "status must be available or disabled", http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateEventStatus(r.Context(), itemID, eventID, req.Status); err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	slog.Info("pricing event status changed", "id", eventID, "item", itemID, "status", req.Status)
	s.broadcast(WSMessage{Type: "event_status_changed", ItemID: itemID, EventID: eventID, Status: req.Status})

	w.WriteHeader(http.StatusNoContent)
}

// CreateTier handles POST /api/v1/items/{itemID}/tiers.
func (s *Service) CreateTier(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req CreateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ParameterID == "" {
		writeError(w, "parameter_id is required", http.StatusBadRequest)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, "amount must not be negative", http.StatusBadRequest)
		return
	}
	if (req.GroupMin == nil) != (req.GroupMax == nil) {
		writeError(w, "group_min and group_max must be set together", http.StatusBadRequest)
		return
	}
	if req.GroupMin != nil && *req.GroupMin > *req.GroupMax {
		writeError(w, "group_min must not exceed group_max", http.StatusBadRequest)
		return
	}

	tier := &model.PriceTier{
		ID:          uuid.New().String(),
		ItemID:      itemID,
		ParameterID: req.ParameterID,
		EventID:     req.EventID,
		GroupMin:    req.GroupMin,
		GroupMax:    req.GroupMax,
		Amount:      req.Amount.Round(0),
	}

	if err := s.store.CreateTier(r.Context(), tier); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	slog.Info("price tier created",
		"id", tier.ID,
		"item", itemID,
		"parameter", tier.ParameterID,
		"event", tier.EventID,
		"amount", tier.Amount.String(),
	)
	s.broadcast(WSMessage{Type: "tier_created", ItemID: itemID, TierID: tier.ID, ParameterID: tier.ParameterID})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tier)
}

// ListTiers handles GET /api/v1/items/{itemID}/tiers.
func (s *Service) ListTiers(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	tiers, err := s.store.ListTiers(r.Context(), itemID)
	if err != nil {
		writeError(w, "failed to list tiers", http.StatusInternalServerError)
		return
	}
	if tiers == nil {
		tiers = []model.PriceTier{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tiers)
}

// GetStock handles GET /api/v1/items/{itemID}/stock.
func (s *Service) GetStock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	stock, err := s.inventory.RemainingStock(r.Context(), itemID)
	if err != nil {
		writeError(w, "failed to read stock", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stock)
}

func (s *Service) broadcast(msg WSMessage) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(msg)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
