package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/engine"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/proposal"
	"github.com/Simplici0/obra.works/internal/quantity"
)

type calculationRequest struct {
	Category       catalog.Category    `json:"category"`
	Parameters     json.RawMessage     `json:"parameters"`
	Overrides      []quantity.Override `json:"overrides"`
	Freight        decimal.Decimal     `json:"freight"`
	HideUnitPrices bool                `json:"hide_unit_prices"`
	Title          string              `json:"title"`
	Notes          string              `json:"notes"`
}

func (s *server) engineRequest(req calculationRequest) (engine.Request, error) {
	category, err := parseCategory(string(req.Category))
	if err != nil {
		return engine.Request{}, err
	}
	if len(req.Parameters) == 0 {
		return engine.Request{}, &quantity.InvalidParameterError{Field: "parameters", Reason: "are required"}
	}
	params, err := quantity.Decode(category, req.Parameters)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{
		Params:    params,
		Overrides: req.Overrides,
		Options: pricing.Options{
			Freight:        req.Freight,
			HideUnitPrices: req.HideUnitPrices,
			Currency:       s.currency,
		},
	}, nil
}

func (s *server) calculate(w http.ResponseWriter, r *http.Request, funcName string) (*engine.Result, calculationRequest, bool) {
	var body calculationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEngineError(w, funcName, err)
		return nil, body, false
	}
	req, err := s.engineRequest(body)
	if err != nil {
		s.writeEngineError(w, funcName, err)
		return nil, body, false
	}
	res, err := s.engine.Calculate(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, funcName, err)
		return nil, body, false
	}
	return res, body, true
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.calculate(w, r, "handleCalculate")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resultToView(res))
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	out := make([]engine.Availability, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		out = append(out, s.engine.Guard().Check(r.Context(), c, ""))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeEngineError(w, "handleAvailability", err)
		return
	}
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	writeJSON(w, http.StatusOK, s.engine.Guard().Check(r.Context(), category, key))
}

// handleCatalogComposition serves the composition in the shape catalog.Client
// consumes, so one instance can act as the catalog of another.
func (s *server) handleCatalogComposition(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, catalog.ErrorResponse{Error: catalog.NotFoundCode})
		return
	}
	key := chi.URLParam(r, "key")

	items, err := s.catalog.Composition(r.Context(), catalog.Request{Category: category, Key: key})
	switch {
	case errors.Is(err, catalog.ErrCompositionNotFound):
		writeJSON(w, http.StatusNotFound, catalog.ErrorResponse{Error: catalog.NotFoundCode})
		return
	case err != nil:
		s.writeEngineError(w, "handleCatalogComposition", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.CompositionResponse{Category: category, Key: key, Items: items})
}

func (s *server) handleCatalogAvailability(w http.ResponseWriter, r *http.Request) {
	category, err := parseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, catalog.ErrorResponse{Error: catalog.NotFoundCode})
		return
	}
	key := strings.TrimSpace(r.URL.Query().Get("key"))

	ok, err := s.catalog.Configured(r.Context(), category, key)
	if err != nil {
		s.writeEngineError(w, "handleCatalogAvailability", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog.AvailabilityResponse{Category: category, Key: key, Configured: ok})
}

func (s *server) handleProposalsList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := s.proposals.List(r.Context(), query)
	if err != nil {
		s.writeEngineError(w, "handleProposalsList", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "proposals": items})
}

func (s *server) handleProposalCreate(w http.ResponseWriter, r *http.Request) {
	res, body, ok := s.calculate(w, r, "handleProposalCreate")
	if !ok {
		return
	}

	p, err := proposal.FromResult(res, body.Title, body.Notes)
	if err != nil {
		s.writeEngineError(w, "handleProposalCreate", err)
		return
	}
	if err := s.proposals.Save(r.Context(), &p); err != nil {
		s.writeEngineError(w, "handleProposalCreate", err)
		return
	}

	w.Header().Set("Location", "/api/proposals/"+p.ID)
	writeJSON(w, http.StatusCreated, proposalToView(p))
}

func (s *server) handleProposalGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.proposals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, "handleProposalGet", err)
		return
	}
	writeJSON(w, http.StatusOK, proposalToView(p))
}

func (s *server) handleProposalFreight(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Freight *decimal.Decimal `json:"freight"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEngineError(w, "handleProposalFreight", err)
		return
	}
	if body.Freight == nil {
		s.writeEngineError(w, "handleProposalFreight", &quantity.InvalidParameterError{Field: "freight", Reason: "is required"})
		return
	}

	p, err := s.proposals.UpdateFreight(r.Context(), chi.URLParam(r, "id"), *body.Freight)
	if err != nil {
		s.writeEngineError(w, "handleProposalFreight", err)
		return
	}
	writeJSON(w, http.StatusOK, proposalToView(p))
}

func (s *server) handleProposalDisplay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HideUnitPrices bool `json:"hide_unit_prices"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEngineError(w, "handleProposalDisplay", err)
		return
	}

	p, err := s.proposals.SetHideUnitPrices(r.Context(), chi.URLParam(r, "id"), body.HideUnitPrices)
	if err != nil {
		s.writeEngineError(w, "handleProposalDisplay", err)
		return
	}
	writeJSON(w, http.StatusOK, proposalToView(p))
}

// handleProposalRecalculate merges a partial parameter update into the stored
// parameters and recomputes the proposal from scratch.
func (s *server) handleProposalRecalculate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parameters json.RawMessage     `json:"parameters"`
		Overrides  []quantity.Override `json:"overrides"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeEngineError(w, "handleProposalRecalculate", err)
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.proposals.Get(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, "handleProposalRecalculate", err)
		return
	}

	params, err := quantity.Decode(p.Category, p.Parameters)
	if err != nil {
		s.writeEngineError(w, "handleProposalRecalculate", err)
		return
	}
	if len(body.Parameters) > 0 {
		if params, err = quantity.Merge(params, body.Parameters); err != nil {
			s.writeEngineError(w, "handleProposalRecalculate", err)
			return
		}
	}

	res, err := s.engine.Calculate(r.Context(), engine.Request{Params: params, Overrides: body.Overrides, Options: p.Options()})
	if err != nil {
		s.writeEngineError(w, "handleProposalRecalculate", err)
		return
	}

	updated, err := s.proposals.Recalculate(r.Context(), id, res)
	if err != nil {
		s.writeEngineError(w, "handleProposalRecalculate", err)
		return
	}
	writeJSON(w, http.StatusOK, proposalToView(updated))
}

func (s *server) handleProposalBOM(w http.ResponseWriter, r *http.Request) {
	p, err := s.proposals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, "handleProposalBOM", err)
		return
	}

	raw, err := proposal.ExportBOM(p)
	if err != nil {
		s.writeEngineError(w, "handleProposalBOM", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bom-`+p.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
