package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/logging"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/quantity"
)

const defaultCatalogTimeout = 5 * time.Second

// Request is the input of one calculation pass.
type Request struct {
	Params    quantity.Parameters
	Overrides []quantity.Override
	Options   pricing.Options
}

// Result is a complete, priced bill of materials.
type Result struct {
	RunID        string                    `json:"run_id"`
	Category     catalog.Category          `json:"category"`
	Key          string                    `json:"composition_key"`
	Parameters   quantity.Parameters       `json:"parameters"`
	Composition  []catalog.CompositionItem `json:"composition"`
	Basis        quantity.Basis            `json:"basis"`
	Items        []pricing.LineItem        `json:"items"`
	Summary      pricing.Summary           `json:"summary"`
	CalculatedAt time.Time                 `json:"calculated_at"`
}

// Reprice rebuilds the summary with new options. Quantities, line totals and
// the catalog snapshot are reused as they are.
func (r *Result) Reprice(opts pricing.Options) (*Result, error) {
	summary, err := pricing.Build(r.Items, r.Basis, opts)
	if err != nil {
		return nil, err
	}
	out := *r
	out.Summary = summary
	return &out, nil
}

type computeFunc func(quantity.Parameters, []catalog.CompositionItem, []quantity.Override) (quantity.Basis, []quantity.Line, error)

// Engine runs calculation passes against a catalog.
type Engine struct {
	lookup catalog.Lookup
	guard  *Guard
	log    logrus.FieldLogger
	// CatalogTimeout bounds the catalog calls of one pass.
	CatalogTimeout time.Duration

	compute computeFunc
	now     func() time.Time
}

func New(lookup catalog.Lookup, logger logrus.FieldLogger) *Engine {
	return &Engine{
		lookup:         lookup,
		guard:          NewGuard(lookup),
		log:            logger,
		CatalogTimeout: defaultCatalogTimeout,
		compute:        quantity.ComputeLineItems,
		now:            time.Now,
	}
}

// Guard returns the availability guard bound to the engine's catalog.
func (e *Engine) Guard() *Guard { return e.guard }

// Calculate runs one pass from scratch: guard, composition fetch, quantities,
// pricing and summary.
func (e *Engine) Calculate(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, func(State) {})
}

func (e *Engine) run(ctx context.Context, req Request, enter func(State)) (*Result, error) {
	if req.Params == nil {
		return nil, &quantity.InvalidParameterError{Field: "parameters", Reason: "are required"}
	}
	category, key := req.Params.Category(), req.Params.CompositionKey()
	runID := uuid.NewString()
	log := e.log.WithFields(logrus.Fields{"runId": runID, "category": category, "key": key})

	enter(StateValidating)
	if err := quantity.RequireCompositionKey(req.Params); err != nil {
		log.WithField("status", Classify(err)).Info("calculation stopped before computing")
		return nil, err
	}
	composition, err := e.fetch(ctx, category, key)
	if err != nil {
		log.WithField("status", Classify(err)).Info("calculation stopped before computing")
		return nil, err
	}

	enter(StateComputing)
	basis, lines, err := e.compute(req.Params, composition, req.Overrides)
	if err != nil {
		if errors.Is(err, quantity.ErrCompositionInvalid) {
			logging.LogError(log, "engine", "run", "derive line items", catalog.Request{Category: category, Key: key}, err)
		}
		return nil, err
	}

	enter(StatePricing)
	items, err := pricing.Price(lines)
	if err != nil {
		logging.LogError(log, "engine", "run", "price line items", lines, err)
		return nil, err
	}
	summary, err := pricing.Build(items, basis, req.Options)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"items": len(items), "grandTotal": summary.GrandTotal.String()}).Debug("calculation ready")

	return &Result{
		RunID:        runID,
		Category:     category,
		Key:          key,
		Parameters:   req.Params,
		Composition:  composition,
		Basis:        basis,
		Items:        items,
		Summary:      summary,
		CalculatedAt: e.now().UTC(),
	}, nil
}

// fetch runs the guard and then loads the composition as one snapshot.
func (e *Engine) fetch(ctx context.Context, category catalog.Category, key string) ([]catalog.CompositionItem, error) {
	timeout := e.CatalogTimeout
	if timeout <= 0 {
		timeout = defaultCatalogTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if a := e.guard.Check(ctx, category, key); !a.CanCalculate {
		return nil, &UnavailableError{Availability: a}
	}

	composition, err := e.lookup.Composition(ctx, catalog.Request{Category: category, Key: key})
	if err != nil {
		return nil, fmt.Errorf("load composition: %w", err)
	}
	return composition, nil
}
