package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/engine"
	"github.com/Simplici0/obra.works/internal/logging"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/proposal"
	"github.com/Simplici0/obra.works/internal/quantity"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Status  engine.Status `json:"status"`
	Message string        `json:"message"`
	Field   string        `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEngineError maps an engine error to its HTTP status. Unavailable
// compositions are not failures: the caller falls back to manual entry.
func (s *server) writeEngineError(w http.ResponseWriter, funcName string, err error) {
	if errors.Is(err, proposal.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Status: engine.StatusError, Message: "proposal not found"})
		return
	}

	status := engine.Classify(err)
	resp := errorResponse{Status: status, Message: status.Message()}

	var ipe *quantity.InvalidParameterError
	switch status {
	case engine.StatusCompositionUnavailable:
		writeJSON(w, http.StatusOK, availabilityFromError(err))
		return
	case engine.StatusInvalidParameter:
		errors.As(err, &ipe)
		resp.Field, resp.Message = ipe.Field, ipe.Reason
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	case engine.StatusCatalogUnavailable:
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	case engine.StatusSuperseded:
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	logging.LogError(s.log, "server", funcName, "request failed", nil, err)
	writeJSON(w, http.StatusInternalServerError, resp)
}

func availabilityFromError(err error) engine.Availability {
	var ue *engine.UnavailableError
	if errors.As(err, &ue) {
		return ue.Availability
	}
	return engine.Availability{
		Status:  engine.StatusCompositionUnavailable,
		Message: engine.StatusCompositionUnavailable.Message(),
		Err:     err,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &quantity.InvalidParameterError{Field: "body", Reason: err.Error()}
	}
	return nil
}

func parseCategory(raw string) (catalog.Category, error) {
	c, err := catalog.ParseCategory(raw)
	if err != nil {
		return "", &quantity.InvalidParameterError{Field: "category", Reason: err.Error()}
	}
	return c, nil
}

// itemView hides the unit price of a line when the proposal asks for it.
type itemView struct {
	pricing.LineItem
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type resultView struct {
	RunID      string                 `json:"run_id,omitempty"`
	ID         string                 `json:"id,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	Category   catalog.Category       `json:"category"`
	Key        string                 `json:"composition_key"`
	Status     engine.Status          `json:"status"`
	Parameters any                    `json:"parameters"`
	Basis      quantity.Basis         `json:"basis"`
	Items      []itemView             `json:"items"`
	Summary    pricing.Summary        `json:"summary"`
	Breakdown  []pricing.RoleSubtotal `json:"breakdown"`
	Links      map[string]string      `json:"links,omitempty"`
}

func newItemViews(items []pricing.LineItem, hide bool) []itemView {
	out := make([]itemView, len(items))
	for i, it := range items {
		out[i] = itemView{LineItem: it}
		if !hide {
			price := it.UnitPrice
			out[i].UnitPrice = &price
		}
	}
	return out
}

func resultToView(res *engine.Result) resultView {
	return resultView{
		RunID:      res.RunID,
		Category:   res.Category,
		Key:        res.Key,
		Status:     engine.StatusReady,
		Parameters: res.Parameters,
		Basis:      res.Basis,
		Items:      newItemViews(res.Items, res.Summary.HideUnitPrices),
		Summary:    res.Summary,
		Breakdown:  res.Summary.Breakdown(),
	}
}

func proposalToView(p proposal.Proposal) resultView {
	return resultView{
		ID:         p.ID,
		Title:      p.Title,
		Notes:      p.Notes,
		Category:   p.Category,
		Key:        p.Key,
		Status:     engine.StatusReady,
		Parameters: p.Parameters,
		Basis:      p.Basis,
		Items:      newItemViews(p.Items, p.Summary.HideUnitPrices),
		Summary:    p.Summary,
		Breakdown:  p.Summary.Breakdown(),
		Links: map[string]string{
			"self": fmt.Sprintf("/api/proposals/%s", p.ID),
			"bom":  fmt.Sprintf("/api/proposals/%s/bom.xlsx", p.ID),
		},
	}
}
