package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/logging"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/quantity"
)

func partitionCatalog() *catalog.Static {
	s := catalog.NewStatic()
	s.Set(catalog.CategoryDrywallPartition, "st-73",
		catalog.CompositionItem{ItemID: "board-st", Role: catalog.RoleBoard, Unit: "un", UnitPrice: decimal.NewFromInt(45), BaseConsumptionRate: 1 / 1.8, WastePercent: 10, CalculationOrder: 1},
		catalog.CompositionItem{ItemID: "screw-25", Role: catalog.RoleAccessory, Unit: "un", UnitPrice: decimal.RequireFromString("0.10"), BaseConsumptionRate: 25, CalculationOrder: 2, DependsOn: "board-st"},
	)
	return s
}

func newTestEngine(lookup catalog.Lookup) *Engine {
	return New(lookup, logging.NewWithOutput("error", io.Discard))
}

func partitionRequest() Request {
	return Request{Params: quantity.PartitionParams{Width: 4, Height: 2.5, WallType: "st-73"}}
}

func TestCalculate_PartitionScenario(t *testing.T) {
	e := newTestEngine(partitionCatalog())

	res, err := e.Calculate(context.Background(), partitionRequest())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.RunID == "" || res.Category != catalog.CategoryDrywallPartition || res.Key != "st-73" {
		t.Fatalf("unexpected result header: %+v", res)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].PurchasableQuantity != 7 || !res.Items[0].LineTotal.Equal(decimal.NewFromInt(315)) {
		t.Fatalf("unexpected board line: %+v", res.Items[0])
	}
	// 7 boards x 25 screws
	if res.Items[1].PurchasableQuantity != 175 {
		t.Fatalf("screws=%v, want 175", res.Items[1].PurchasableQuantity)
	}
	if !res.Summary.GrandTotal.Equal(decimal.RequireFromString("332.50")) {
		t.Fatalf("grand total=%s, want 332.50", res.Summary.GrandTotal)
	}
}

func TestCalculate_GuardShortCircuits(t *testing.T) {
	e := newTestEngine(partitionCatalog())
	calls := 0
	e.compute = func(p quantity.Parameters, c []catalog.CompositionItem, o []quantity.Override) (quantity.Basis, []quantity.Line, error) {
		calls++
		return quantity.ComputeLineItems(p, c, o)
	}

	_, err := e.Calculate(context.Background(), Request{Params: quantity.CeilingParams{Length: 4, Width: 3, CeilingType: "gypsum"}})

	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if ue.Availability.CanCalculate || ue.Availability.Message == "" {
		t.Fatalf("unexpected availability: %+v", ue.Availability)
	}
	if Classify(err) != StatusCompositionUnavailable {
		t.Fatalf("Classify=%s, want %s", Classify(err), StatusCompositionUnavailable)
	}
	if calls != 0 {
		t.Fatalf("quantity calculator invoked %d times", calls)
	}
}

func TestCalculate_CatalogFailureIsRecoverable(t *testing.T) {
	s := partitionCatalog()
	s.Err = errors.New("connection refused")
	e := newTestEngine(s)

	_, err := e.Calculate(context.Background(), partitionRequest())
	status := Classify(err)
	if status != StatusCatalogUnavailable || !status.Recoverable() {
		t.Fatalf("status=%s, want recoverable %s", status, StatusCatalogUnavailable)
	}
	if errors.Is(err, catalog.ErrCompositionNotFound) {
		t.Fatalf("service failure must not look like not-found")
	}
}

func TestCalculate_InvalidParameter(t *testing.T) {
	e := newTestEngine(partitionCatalog())

	_, err := e.Calculate(context.Background(), Request{Params: quantity.PartitionParams{Width: 0, Height: 2.5, WallType: "st-73"}})

	var ipe *quantity.InvalidParameterError
	if !errors.As(err, &ipe) || ipe.Field != "width" {
		t.Fatalf("expected width InvalidParameterError, got %v", err)
	}
	if Classify(err) != StatusInvalidParameter {
		t.Fatalf("Classify=%s", Classify(err))
	}
}

func TestCalculate_MissingCompositionKey(t *testing.T) {
	e := newTestEngine(partitionCatalog())
	e.compute = func(quantity.Parameters, []catalog.CompositionItem, []quantity.Override) (quantity.Basis, []quantity.Line, error) {
		t.Fatalf("calculator must not run without a composition key")
		return quantity.Basis{}, nil, nil
	}

	tests := []struct {
		name   string
		params quantity.Parameters
		field  string
	}{
		{"partition", quantity.PartitionParams{Width: 4, Height: 2.5}, "wall_type"},
		{"flooring", quantity.FlooringParams{Length: 4, Width: 3}, "floor_type"},
		{"ceiling", quantity.CeilingParams{Length: 4, Width: 3}, "ceiling_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Calculate(context.Background(), Request{Params: tt.params})

			var ipe *quantity.InvalidParameterError
			if !errors.As(err, &ipe) || ipe.Field != tt.field {
				t.Fatalf("expected %s InvalidParameterError, got %v", tt.field, err)
			}
			if Classify(err) != StatusInvalidParameter {
				t.Fatalf("Classify=%s", Classify(err))
			}
		})
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	e := newTestEngine(partitionCatalog())
	req := partitionRequest()
	req.Options.Freight = decimal.NewFromInt(50)

	a, err := e.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	b, err := e.Calculate(context.Background(), req)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if a.RunID == b.RunID {
		t.Fatalf("run ids must differ")
	}
	if !a.Summary.GrandTotal.Equal(b.Summary.GrandTotal) || !a.Summary.PricePerUnitArea.Equal(*b.Summary.PricePerUnitArea) {
		t.Fatalf("results differ: %s vs %s", a.Summary.GrandTotal, b.Summary.GrandTotal)
	}
}

func TestResultReprice_KeepsItems(t *testing.T) {
	e := newTestEngine(partitionCatalog())
	res, err := e.Calculate(context.Background(), partitionRequest())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	repriced, err := res.Reprice(pricing.Options{Freight: decimal.NewFromInt(100), HideUnitPrices: true})
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}

	if !repriced.Summary.GrandTotal.Equal(res.Summary.GrandTotal.Add(decimal.NewFromInt(100))) {
		t.Fatalf("grand total=%s", repriced.Summary.GrandTotal)
	}
	if !repriced.Summary.HideUnitPrices || res.Summary.HideUnitPrices {
		t.Fatalf("hide flag must only change on the repriced copy")
	}
	if repriced.RunID != res.RunID || len(repriced.Items) != len(res.Items) {
		t.Fatalf("items changed on reprice")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusReady},
		{"not found", catalog.ErrCompositionNotFound, StatusCompositionUnavailable},
		{"misconfigured composition", quantity.ErrCompositionInvalid, StatusCompositionUnavailable},
		{"service", &catalog.ServiceError{Op: "composition", Err: errors.New("timeout")}, StatusCatalogUnavailable},
		{"deadline", context.DeadlineExceeded, StatusCatalogUnavailable},
		{"invalid", &quantity.InvalidParameterError{Field: "width", Reason: "must be greater than 0"}, StatusInvalidParameter},
		{"inconsistent", pricing.ErrAggregationInconsistency, StatusInconsistent},
		{"superseded", ErrSuperseded, StatusSuperseded},
		{"other", errors.New("disk full"), StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify=%s, want %s", got, tt.want)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(partitionCatalog())

	if !g.CanCalculate(ctx, catalog.CategoryDrywallPartition, "") {
		t.Fatalf("expected partitions to be available")
	}
	if g.CanCalculate(ctx, catalog.CategorySolarSystem, "") {
		t.Fatalf("solar has no composition")
	}
	if msg := g.StatusMessage(ctx, catalog.CategorySolarSystem, ""); msg != "this product line isn't set up yet" {
		t.Fatalf("message=%q", msg)
	}

	down := catalog.NewStatic()
	down.Err = errors.New("dial tcp: connection refused")
	a := NewGuard(down).Check(ctx, catalog.CategoryDrywallPartition, "st-73")
	if a.CanCalculate || a.Status != StatusCatalogUnavailable || a.Message != "catalog temporarily unavailable" {
		t.Fatalf("unexpected availability: %+v", a)
	}
}

// gatedLookup blocks the first availability check until its context ends.
type gatedLookup struct {
	*catalog.Static
	once    sync.Once
	entered chan struct{}
}

func (g *gatedLookup) Configured(ctx context.Context, category catalog.Category, key string) (bool, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-ctx.Done()
		return false, &catalog.ServiceError{Op: "availability", Err: ctx.Err()}
	}
	return g.Static.Configured(ctx, category, key)
}

func TestSession_LastWriteWins(t *testing.T) {
	lookup := &gatedLookup{Static: partitionCatalog(), entered: make(chan struct{})}
	s := NewSession(newTestEngine(lookup))

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := s.Run(context.Background(), Request{Params: quantity.PartitionParams{Width: 2, Height: 2.5, WallType: "st-73"}})
		first <- outcome{res, err}
	}()

	select {
	case <-lookup.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first run never reached the catalog")
	}

	if st, _ := s.State(); st != StateValidating {
		t.Fatalf("state=%s, want %s", st, StateValidating)
	}

	res, err := s.Run(context.Background(), partitionRequest())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	var got outcome
	select {
	case got = <-first:
	case <-time.After(2 * time.Second):
		t.Fatalf("first run was not cancelled")
	}
	if !errors.Is(got.err, ErrSuperseded) || got.res != nil {
		t.Fatalf("first run: res=%v err=%v, want ErrSuperseded", got.res, got.err)
	}

	if st, _ := s.State(); st != StateReady {
		t.Fatalf("state=%s, want ready", st)
	}
	if s.Result() != res || s.Result().Basis.Area != 10 {
		t.Fatalf("session holds a stale result")
	}
}

func TestSession_FailedThenRetry(t *testing.T) {
	s := NewSession(newTestEngine(partitionCatalog()))
	ctx := context.Background()

	_, err := s.Run(ctx, Request{Params: quantity.PartitionParams{Width: -1, Height: 2.5, WallType: "st-73"}})
	if err == nil {
		t.Fatalf("expected failure")
	}
	st, reason := s.State()
	if st != StateFailed || Classify(reason) != StatusInvalidParameter {
		t.Fatalf("state=%s reason=%v", st, reason)
	}
	if _, err := s.Reprice(pricing.Options{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Reprice on failed session: %v", err)
	}

	if _, err := s.Run(ctx, partitionRequest()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if st, reason := s.State(); st != StateReady || reason != nil {
		t.Fatalf("state=%s reason=%v after retry", st, reason)
	}

	res, err := s.Reprice(pricing.Options{Freight: decimal.NewFromInt(20)})
	if err != nil {
		t.Fatalf("Reprice: %v", err)
	}
	if !res.Summary.Freight.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("freight=%s", res.Summary.Freight)
	}

	s.Reset()
	if st, _ := s.State(); st != StateIdle || s.Result() != nil {
		t.Fatalf("reset left state %s", st)
	}
}
