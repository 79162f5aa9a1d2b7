package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads compositions from the composition_items table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Composition loads the active items of a composition with a single query,
// so the result is one consistent snapshot of the table.
func (s *Store) Composition(ctx context.Context, req Request) ([]CompositionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			item_id,
			description,
			role,
			unit,
			unit_price,
			base_consumption_rate,
			waste_percent,
			calculation_order,
			COALESCE(measure, ''),
			COALESCE(depends_on, ''),
			COALESCE(rounding, ''),
			COALESCE(unit_mass, 0)
		FROM composition_items
		WHERE category = ? AND composition_key = ? AND active = TRUE
		ORDER BY calculation_order ASC, item_id ASC
	`, string(req.Category), req.Key)
	if err != nil {
		return nil, &ServiceError{Op: "query composition", Err: err}
	}
	defer rows.Close()

	items := make([]CompositionItem, 0)
	for rows.Next() {
		var item CompositionItem
		var role, measure, rounding string
		if err := rows.Scan(
			&item.ItemID,
			&item.Description,
			&role,
			&item.Unit,
			&item.UnitPrice,
			&item.BaseConsumptionRate,
			&item.WastePercent,
			&item.CalculationOrder,
			&measure,
			&item.DependsOn,
			&rounding,
			&item.UnitMass,
		); err != nil {
			return nil, &ServiceError{Op: "scan composition item", Err: err}
		}
		item.Role = Role(role)
		item.Measure = Measure(measure)
		item.Rounding = Rounding(rounding)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &ServiceError{Op: "iterate composition", Err: err}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", req, ErrCompositionNotFound)
	}
	return items, nil
}

// Configured reports whether at least one active item exists for the
// category, narrowed to key when key is not empty.
func (s *Store) Configured(ctx context.Context, category Category, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM composition_items
			WHERE category = ? AND (? = '' OR composition_key = ?) AND active = TRUE
			LIMIT 1
		)
	`, string(category), key, key).Scan(&exists)
	if err != nil {
		return false, &ServiceError{Op: "query availability", Err: err}
	}
	return exists, nil
}

// EnsureItem inserts one item of a composition unless an item with the same
// id already exists for the category and key. It reports whether a row was
// created; existing rows are left as administrators edited them.
func EnsureItem(ctx context.Context, tx *sql.Tx, category Category, key string, item CompositionItem) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM composition_items
			WHERE category = ? AND composition_key = ? AND item_id = ?
		)
	`, string(category), key, item.ItemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check composition item %s: %w", item.ItemID, err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO composition_items (
			category,
			composition_key,
			item_id,
			description,
			role,
			unit,
			unit_price,
			base_consumption_rate,
			waste_percent,
			calculation_order,
			measure,
			depends_on,
			rounding,
			unit_mass,
			active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE)
	`,
		string(category),
		key,
		item.ItemID,
		item.Description,
		string(item.Role),
		item.Unit,
		item.UnitPrice.String(),
		item.BaseConsumptionRate,
		item.WastePercent,
		item.CalculationOrder,
		string(item.Measure),
		item.DependsOn,
		string(item.Rounding),
		item.UnitMass,
	); err != nil {
		return false, fmt.Errorf("insert composition item %s: %w", item.ItemID, err)
	}
	return true, nil
}
