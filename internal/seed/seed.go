package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/obra.works/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts  int
	Existing int
}

// Run installs the default compositions in an idempotent way. Items already
// present are left untouched so prices edited by an administrator survive.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, c := range Compositions() {
		if err := ensureComposition(ctx, tx, c, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureComposition(ctx context.Context, tx *sql.Tx, c Composition, stats *Stats) error {
	for _, item := range c.Items {
		inserted, err := catalog.EnsureItem(ctx, tx, c.Category, c.Key, item)
		if err != nil {
			return fmt.Errorf("seed %s/%s: %w", c.Category, c.Key, err)
		}
		if inserted {
			stats.Inserts++
		} else {
			stats.Existing++
		}
	}
	return nil
}
