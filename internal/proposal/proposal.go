package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/engine"
	"github.com/Simplici0/obra.works/internal/pricing"
	"github.com/Simplici0/obra.works/internal/quantity"
)

// ErrNotFound is returned when no proposal has the requested id.
var ErrNotFound = errors.New("proposal not found")

// Proposal is a stored calculation. Reading it never recalculates: items and
// summary are the snapshot taken when it was saved.
type Proposal struct {
	ID          string                    `json:"id"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
	Title       string                    `json:"title"`
	Notes       string                    `json:"notes,omitempty"`
	Category    catalog.Category          `json:"category"`
	Key         string                    `json:"composition_key"`
	Parameters  json.RawMessage           `json:"parameters"`
	Composition []catalog.CompositionItem `json:"composition"`
	Basis       quantity.Basis            `json:"basis"`
	Items       []pricing.LineItem        `json:"items"`
	Summary     pricing.Summary           `json:"summary"`
}

// Options returns the summary options the proposal was built with.
func (p Proposal) Options() pricing.Options {
	return pricing.Options{
		Freight:        p.Summary.Freight,
		HideUnitPrices: p.Summary.HideUnitPrices,
		Currency:       p.Summary.Currency,
	}
}

// FromResult turns a calculation result into an unsaved proposal.
func FromResult(res *engine.Result, title, notes string) (Proposal, error) {
	params, err := json.Marshal(res.Parameters)
	if err != nil {
		return Proposal{}, fmt.Errorf("encode parameters: %w", err)
	}
	return Proposal{
		Title:       strings.TrimSpace(title),
		Notes:       strings.TrimSpace(notes),
		Category:    res.Category,
		Key:         res.Key,
		Parameters:  params,
		Composition: res.Composition,
		Basis:       res.Basis,
		Items:       res.Items,
		Summary:     res.Summary,
	}, nil
}

// ListItem is one row of the proposal list.
type ListItem struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Title      string           `json:"title"`
	Category   catalog.Category `json:"category"`
	GrandTotal decimal.Decimal  `json:"grand_total"`
}

// Store persists proposals in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save inserts p, assigning an id and timestamps.
func (s *Store) Save(ctx context.Context, p *Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	cols, err := encodeSnapshot(*p)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (
			id, created_at, updated_at, title, notes, category, composition_key,
			parameters_json, composition_json, basis_json, items_json, summary_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, now, now, p.Title, p.Notes, string(p.Category), p.Key,
		string(p.Parameters), cols.composition, cols.basis, cols.items, cols.summary); err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get loads a proposal by id.
func (s *Store) Get(ctx context.Context, id string) (Proposal, error) {
	return get(ctx, s.db, id)
}

func get(ctx context.Context, q rowQuerier, id string) (Proposal, error) {
	var p Proposal
	var category, params, composition, basis, items, summary string
	err := q.QueryRowContext(ctx, `
		SELECT
			id, created_at, updated_at, COALESCE(title, ''), COALESCE(notes, ''),
			category, composition_key, parameters_json, composition_json,
			basis_json, items_json, summary_json
		FROM proposals
		WHERE id = ?
	`, id).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Title, &p.Notes,
		&category, &p.Key, &params, &composition, &basis, &items, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return Proposal{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("query proposal: %w", err)
	}

	p.Category = catalog.Category(category)
	p.Parameters = json.RawMessage(params)
	for _, f := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"composition", composition, &p.Composition},
		{"basis", basis, &p.Basis},
		{"items", items, &p.Items},
		{"summary", summary, &p.Summary},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return Proposal{}, fmt.Errorf("decode proposal %s %s: %w", id, f.name, err)
		}
	}
	return p, nil
}

// List returns proposals newest first, filtered by title, notes or category
// when query is not empty.
func (s *Store) List(ctx context.Context, query string) ([]ListItem, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id,
			created_at,
			COALESCE(title, ''),
			category,
			summary_json
		FROM proposals
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ? OR category LIKE ?)
		ORDER BY created_at DESC, id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	out := make([]ListItem, 0)
	for rows.Next() {
		var (
			item        ListItem
			category    string
			summaryJSON string
		)
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &category, &summaryJSON); err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		item.Category = catalog.Category(category)
		item.GrandTotal = extractGrandTotal(summaryJSON)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return out, nil
}

// Recalculate replaces the calculation snapshot of a proposal with res. The
// proposal keeps its freight and display options as stored when the update
// is written.
func (s *Store) Recalculate(ctx context.Context, id string, res *engine.Result) (Proposal, error) {
	var next Proposal
	err := s.update(ctx, "recalculate proposal", func(tx *sql.Tx) error {
		p, err := get(ctx, tx, id)
		if err != nil {
			return err
		}
		if res.Category != p.Category {
			return &quantity.InvalidParameterError{Field: "category", Reason: fmt.Sprintf("proposal is %s, got %s", p.Category, res.Category)}
		}

		repriced, err := res.Reprice(p.Options())
		if err != nil {
			return err
		}
		if next, err = FromResult(repriced, p.Title, p.Notes); err != nil {
			return err
		}
		next.ID, next.CreatedAt = p.ID, p.CreatedAt
		next.UpdatedAt = s.now().UTC()

		cols, err := encodeSnapshot(next)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE proposals
			SET updated_at = ?, composition_key = ?, parameters_json = ?, composition_json = ?,
				basis_json = ?, items_json = ?, summary_json = ?
			WHERE id = ?
		`, next.UpdatedAt, next.Key, string(next.Parameters), cols.composition,
			cols.basis, cols.items, cols.summary, id); err != nil {
			return fmt.Errorf("update proposal calculation: %w", err)
		}
		return nil
	})
	if err != nil {
		return Proposal{}, err
	}
	return next, nil
}

// UpdateFreight re-aggregates the stored items with a new freight value.
// Quantities and line totals stay as saved.
func (s *Store) UpdateFreight(ctx context.Context, id string, freight decimal.Decimal) (Proposal, error) {
	return s.reaggregate(ctx, id, func(o *pricing.Options) { o.Freight = freight })
}

// SetHideUnitPrices toggles the unit price display flag of a proposal.
func (s *Store) SetHideUnitPrices(ctx context.Context, id string, hide bool) (Proposal, error) {
	return s.reaggregate(ctx, id, func(o *pricing.Options) { o.HideUnitPrices = hide })
}

func (s *Store) reaggregate(ctx context.Context, id string, change func(*pricing.Options)) (Proposal, error) {
	var p Proposal
	err := s.update(ctx, "update proposal summary", func(tx *sql.Tx) error {
		var err error
		if p, err = get(ctx, tx, id); err != nil {
			return err
		}

		opts := p.Options()
		change(&opts)
		summary, err := pricing.Build(p.Items, p.Basis, opts)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}

		now := s.now().UTC()
		if _, err := tx.ExecContext(ctx, `
			UPDATE proposals
			SET summary_json = ?, updated_at = ?
			WHERE id = ?
		`, string(raw), now, id); err != nil {
			return fmt.Errorf("update proposal summary: %w", err)
		}

		p.Summary = summary
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Proposal{}, err
	}
	return p, nil
}

// update runs fn in one transaction so the read and the write of a proposal
// see the same row.
func (s *Store) update(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

type snapshotColumns struct {
	composition, basis, items, summary string
}

func encodeSnapshot(p Proposal) (snapshotColumns, error) {
	var cols snapshotColumns
	for _, f := range []struct {
		name string
		v    any
		dst  *string
	}{
		{"composition", p.Composition, &cols.composition},
		{"basis", p.Basis, &cols.basis},
		{"items", p.Items, &cols.items},
		{"summary", p.Summary, &cols.summary},
	} {
		raw, err := json.Marshal(f.v)
		if err != nil {
			return snapshotColumns{}, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = string(raw)
	}
	if len(p.Parameters) == 0 || !json.Valid(p.Parameters) {
		return snapshotColumns{}, errors.New("encode parameters: not valid JSON")
	}
	return cols, nil
}

func extractGrandTotal(summaryJSON string) decimal.Decimal {
	var values struct {
		GrandTotal decimal.Decimal `json:"grand_total"`
	}
	if err := json.Unmarshal([]byte(summaryJSON), &values); err != nil {
		return decimal.Zero
	}
	return values.GrandTotal
}
