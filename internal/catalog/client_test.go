package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestClient(url string, retries uint64) *Client {
	c := NewClient(url, 2*time.Second, retries)
	c.retryBase = time.Millisecond
	return c
}

func TestClientCompositionDecodesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/catalog/shingle-roof/compositions/standard" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(CompositionResponse{
			Category: CategoryShingleRoof,
			Key:      "standard",
			Items: []CompositionItem{
				{ItemID: "ridge-cap", Role: RoleAccessory, Unit: "un", UnitPrice: decimal.RequireFromString("18.50"), BaseConsumptionRate: 3, CalculationOrder: 2, Measure: "ridge"},
				{ItemID: "shingle", Role: RoleBoard, Unit: "pct", UnitPrice: decimal.RequireFromString("189.90"), BaseConsumptionRate: 0.3226, WastePercent: 10, CalculationOrder: 1, Measure: "area"},
			},
		})
	}))
	defer srv.Close()

	items, err := newTestClient(srv.URL, 0).Composition(context.Background(), Request{Category: CategoryShingleRoof, Key: "standard"})
	if err != nil {
		t.Fatalf("Composition: %v", err)
	}
	if len(items) != 2 || items[0].ItemID != "shingle" {
		t.Fatalf("expected ordered items, got %+v", items)
	}
	if !items[0].UnitPrice.Equal(decimal.RequireFromString("189.90")) {
		t.Fatalf("unit price=%s", items[0].UnitPrice)
	}
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: NotFoundCode})
}

func TestClientNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeNotFound(w)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Composition(context.Background(), Request{Category: CategoryCeiling, Key: "default"})
	if !errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("expected ErrCompositionNotFound, got %v", err)
	}
	if IsServiceError(err) {
		t.Fatalf("not-found must not be a service error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestClientPlainNotFoundIsServiceError(t *testing.T) {
	// A wrong base URL answers with the router's default 404 page.
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newTestClient(srv.URL, 2)
	_, err := c.Composition(context.Background(), Request{Category: CategoryCeiling, Key: "gypsum"})
	if errors.Is(err, ErrCompositionNotFound) {
		t.Fatalf("plain 404 reported as missing composition: %v", err)
	}
	if !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}

	ok, err := c.Configured(context.Background(), CategoryCeiling, "gypsum")
	if ok || !IsServiceError(err) {
		t.Fatalf("Configured=%v, %v; expected service error", ok, err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(AvailabilityResponse{Category: CategorySolarSystem, Configured: true})
	}))
	defer srv.Close()

	ok, err := newTestClient(srv.URL, 3).Configured(context.Background(), CategorySolarSystem, "")
	if err != nil {
		t.Fatalf("Configured: %v", err)
	}
	if !ok {
		t.Fatalf("expected configured=true")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestClientServiceErrorAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).Composition(context.Background(), Request{Category: CategoryFlooring, Key: "laminate"})
	if !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, 1).Configured(context.Background(), CategoryFlooring, "")
	if !IsServiceError(err) {
		t.Fatalf("expected service error for unreachable catalog, got %v", err)
	}
}
