package rate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pitchbase/rate-engine/internal/inventory"
	"github.com/pitchbase/rate-engine/internal/model"
	"github.com/pitchbase/rate-engine/internal/rate"
	"github.com/pitchbase/rate-engine/internal/store"
)

func d(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// newTestEnv creates a test Service with in-memory store and chi router.
func newTestEnv(t *testing.T) (*store.MemoryStore, *inventory.MemoryLookup, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	inv := inventory.NewMemoryLookup()
	svc := rate.NewService(ms, inv, nil)

	r := chi.NewRouter()
	r.Post("/api/v1/quotes", svc.Quote)
	r.Route("/api/v1/items/{itemID}", func(r chi.Router) {
		r.Get("/events", svc.ListEvents)
		r.Post("/events", svc.CreateEvent)
		r.Put("/events/{eventID}/status", svc.UpdateEventStatus)
		r.Get("/tiers", svc.ListTiers)
		r.Post("/tiers", svc.CreateTier)
		r.Get("/stock", svc.GetStock)
	})

	return ms, inv, r
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// seedFlatTier creates a base flat tier directly in the store.
func seedFlatTier(t *testing.T, ms *store.MemoryStore, itemID, param string, amount int64) {
	t.Helper()
	err := ms.CreateTier(context.Background(), &model.PriceTier{
		ID:          "tier-" + itemID + "-" + param,
		ItemID:      itemID,
		ParameterID: param,
		Amount:      d(amount),
	})
	if err != nil {
		t.Fatalf("failed to seed tier: %v", err)
	}
}

// --- Quote endpoint ---

func TestQuote_HappyPath(t *testing.T) {
	ms, _, router := newTestEnv(t)
	seedFlatTier(t, ms, "pitch-1", "adult", 100)

	w := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		ItemID:              "pitch-1",
		CheckIn:             "2025-07-10",
		CheckOut:            "2025-07-13",
		ParameterQuantities: map[string]int{"adult": 2},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result model.PricingResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(result.NightlyPricing) != 3 {
		t.Errorf("expected 3 nights, got %d", len(result.NightlyPricing))
	}
	if !result.ParameterPricing["adult"].Equal(d(300)) {
		t.Errorf("expected total 300, got %s", result.ParameterPricing["adult"])
	}
}

func TestQuote_InvalidRange(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		ItemID:              "pitch-1",
		CheckIn:             "2025-07-10",
		CheckOut:            "2025-07-10",
		ParameterQuantities: map[string]int{"adult": 2},
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuote_BadDates(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		ItemID:   "pitch-1",
		CheckIn:  "July 10th",
		CheckOut: "2025-07-13",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestQuote_MissingItem(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		CheckIn:  "2025-07-10",
		CheckOut: "2025-07-13",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// --- Event authoring ---

func TestCreateEvent_VisibleToQuotes(t *testing.T) {
	ms, _, router := newTestEnv(t)
	seedFlatTier(t, ms, "pitch-1", "adult", 100)

	w := doJSON(t, router, "POST", "/api/v1/items/pitch-1/events", rate.CreateEventRequest{
		Name:         "High season",
		StartDate:    "2025-07-01",
		EndDate:      "2025-07-31",
		PricingType:  model.PricingDynamic,
		DynamicValue: dp(50),
		DynamicMode:  model.DynamicPercent,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created model.Event
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Error("expected a generated event id")
	}
	if created.Status != model.EventAvailable {
		t.Errorf("new events should default to available, got %q", created.Status)
	}

	q := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		ItemID:              "pitch-1",
		CheckIn:             "2025-07-10",
		CheckOut:            "2025-07-11",
		ParameterQuantities: map[string]int{"adult": 2},
	})
	var result model.PricingResult
	json.Unmarshal(q.Body.Bytes(), &result)
	if !result.ParameterPricing["adult"].Equal(d(150)) {
		t.Errorf("quote should reflect the new event (+50%%), got %s", result.ParameterPricing["adult"])
	}
}

func TestCreateEvent_RejectsUnknownPricingType(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/items/pitch-1/events", map[string]any{
		"name":         "Bad event",
		"start_date":   "2025-07-01",
		"end_date":     "2025-07-31",
		"pricing_type": "auction",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpdateEventStatus_DisablesPricing(t *testing.T) {
	ms, _, router := newTestEnv(t)
	seedFlatTier(t, ms, "pitch-1", "adult", 100)

	created := doJSON(t, router, "POST", "/api/v1/items/pitch-1/events", rate.CreateEventRequest{
		Name:         "Promo",
		StartDate:    "2025-07-01",
		EndDate:      "2025-07-31",
		PricingType:  model.PricingDynamic,
		DynamicValue: dp(50),
		DynamicMode:  model.DynamicPercent,
	})
	var event model.Event
	json.Unmarshal(created.Body.Bytes(), &event)

	w := doJSON(t, router, "PUT", "/api/v1/items/pitch-1/events/"+event.ID+"/status",
		rate.UpdateStatusRequest{Status: model.EventDisabled})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	q := doJSON(t, router, "POST", "/api/v1/quotes", rate.QuoteRequest{
		ItemID:              "pitch-1",
		CheckIn:             "2025-07-10",
		CheckOut:            "2025-07-11",
		ParameterQuantities: map[string]int{"adult": 2},
	})
	var result model.PricingResult
	json.Unmarshal(q.Body.Bytes(), &result)
	if !result.ParameterPricing["adult"].Equal(d(100)) {
		t.Errorf("disabled event should not price, got %s", result.ParameterPricing["adult"])
	}
}

func TestUpdateEventStatus_UnknownEvent(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "PUT", "/api/v1/items/pitch-1/events/nope/status",
		rate.UpdateStatusRequest{Status: model.EventDisabled})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// --- Tier authoring ---

func TestCreateTier_Validation(t *testing.T) {
	_, _, router := newTestEnv(t)

	tests := []struct {
		name string
		body rate.CreateTierRequest
	}{
		{"missing parameter", rate.CreateTierRequest{Amount: d(100)}},
		{"negative amount", rate.CreateTierRequest{ParameterID: "adult", Amount: d(-5)}},
		{"half-open group", rate.CreateTierRequest{ParameterID: "adult", GroupMin: ip(1), Amount: d(100)}},
		{"inverted group", rate.CreateTierRequest{ParameterID: "adult", GroupMin: ip(5), GroupMax: ip(2), Amount: d(100)}},
	}
	for _, tt := range tests {
		w := doJSON(t, router, "POST", "/api/v1/items/pitch-1/tiers", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, w.Code)
		}
	}
}

func TestCreateTier_ListedAfterCreate(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := doJSON(t, router, "POST", "/api/v1/items/pitch-1/tiers", rate.CreateTierRequest{
		ParameterID: "adult",
		GroupMin:    ip(1),
		GroupMax:    ip(4),
		Amount:      d(100),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	list := doJSON(t, router, "GET", "/api/v1/items/pitch-1/tiers", nil)
	var tiers []model.PriceTier
	json.Unmarshal(list.Body.Bytes(), &tiers)
	if len(tiers) != 1 || tiers[0].ParameterID != "adult" {
		t.Errorf("expected the created tier listed, got %+v", tiers)
	}
}

// --- Stock endpoint ---

func TestGetStock(t *testing.T) {
	_, inv, router := newTestEnv(t)
	inv.SetStock("pitch-1", 4)

	w := doJSON(t, router, "GET", "/api/v1/items/pitch-1/stock", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stock inventory.Stock
	json.Unmarshal(w.Body.Bytes(), &stock)
	if stock.Unlimited || stock.Remaining != 4 {
		t.Errorf("expected 4 remaining, got %+v", stock)
	}

	w = doJSON(t, router, "GET", "/api/v1/items/pitch-2/stock", nil)
	json.Unmarshal(w.Body.Bytes(), &stock)
	if !stock.Unlimited {
		t.Errorf("unseeded item should be unlimited, got %+v", stock)
	}
}

// --- helpers ---

func dp(n int64) *decimal.Decimal {
	v := decimal.NewFromInt(n)
	return &v
}

func ip(n int) *int {
	return &n
}
