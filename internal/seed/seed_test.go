package seed

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/db"
	"github.com/Simplici0/obra.works/internal/engine"
	"github.com/Simplici0/obra.works/internal/logging"
	"github.com/Simplici0/obra.works/internal/migrations"
	"github.com/Simplici0/obra.works/internal/quantity"
)

func openSeedDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}

func totalItems() int {
	n := 0
	for _, c := range Compositions() {
		n += len(c.Items)
	}
	return n
}

func TestRunIsIdempotent(t *testing.T) {
	database := openSeedDB(t)
	ctx := context.Background()
	want := totalItems()

	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, database)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != want || stats.Existing != 0 {
				t.Fatalf("expected %d inserts in first run, got %+v", want, stats)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Existing != want {
			t.Fatalf("expected 0 inserts in iteration %d, got %+v", i, stats)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM composition_items`, nil, want)
	assertCount(t, database, `SELECT COUNT(*) FROM composition_items WHERE category = ? AND composition_key = ?`, []any{"drywall-partition", "st-73"}, 10)
}

func TestRunKeepsEditedPrices(t *testing.T) {
	database := openSeedDB(t)
	ctx := context.Background()

	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if _, err := database.Exec(`UPDATE composition_items SET unit_price = '51.00' WHERE item_id = 'board-st-12.5'`); err != nil {
		t.Fatalf("edit price: %v", err)
	}
	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("rerun seed: %v", err)
	}

	items, err := catalog.NewStore(database).Composition(ctx, catalog.Request{Category: catalog.CategoryDrywallPartition, Key: "st-73"})
	if err != nil {
		t.Fatalf("Composition: %v", err)
	}
	if items[0].ItemID != "board-st-12.5" || items[0].UnitPrice.String() != "51" {
		t.Fatalf("edited price overwritten: %+v", items[0])
	}
}

func TestDefaultCompositionsCalculate(t *testing.T) {
	t.Parallel()

	e := engine.New(Static(), logging.NewWithOutput("error", io.Discard))
	ctx := context.Background()

	cases := []quantity.Parameters{
		quantity.PartitionParams{Width: 5, Height: 2.7, WallType: "st-73", AcousticInsulation: true, Openings: []quantity.Opening{{Kind: "door", Width: 0.8, Height: 2.1}}},
		quantity.PartitionParams{Width: 3, Height: 2.7, WallType: "ru-73"},
		quantity.RoofParams{RoofArea: 96.4, Perimeter: 40.2, RidgeLength: 9.8, HipValleyLength: 6.1, MasonryEdgeLength: 4, SlopePercent: 30},
		quantity.SolarParams{MonthlyConsumptionKWh: 500, TariffPerKWh: 0.92},
		quantity.SolarParams{MonthlyConsumptionKWh: 500, InstallationType: "ground"},
		quantity.FlooringParams{Length: 5, Width: 4, FloorType: "laminate", DoorwayWidth: 0.8},
		quantity.CeilingParams{Length: 5, Width: 4, CeilingType: "gypsum"},
		quantity.LintelParams{Openings: []quantity.LintelOpening{{Width: 1.2, Count: 2}, {Width: 0.8}}},
	}

	for _, params := range cases {
		res, err := e.Calculate(ctx, engine.Request{Params: params})
		if err != nil {
			t.Fatalf("%s/%s: %v", params.Category(), params.CompositionKey(), err)
		}
		if len(res.Items) == 0 || !res.Summary.GrandTotal.IsPositive() {
			t.Fatalf("%s/%s: empty budget %+v", params.Category(), params.CompositionKey(), res.Summary)
		}
	}

	_, err := e.Calculate(ctx, engine.Request{Params: quantity.SolarParams{MonthlyConsumptionKWh: 500, InstallationType: "carport"}})
	if engine.Classify(err) != engine.StatusCompositionUnavailable {
		t.Fatalf("carport should be unconfigured, got %v", err)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
