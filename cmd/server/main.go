package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Simplici0/obra.works/internal/catalog"
	"github.com/Simplici0/obra.works/internal/config"
	"github.com/Simplici0/obra.works/internal/db"
	"github.com/Simplici0/obra.works/internal/engine"
	"github.com/Simplici0/obra.works/internal/logging"
	"github.com/Simplici0/obra.works/internal/migrations"
	"github.com/Simplici0/obra.works/internal/proposal"
	"github.com/Simplici0/obra.works/internal/seed"
)

const requestTimeout = 30 * time.Second

type server struct {
	engine    *engine.Engine
	catalog   catalog.Lookup
	proposals *proposal.Store
	log       logrus.FieldLogger
	currency  string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	migrations.SetLogger(logger)
	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			logger.Fatalf("failed to run database migrations: %v", err)
		}
	}

	if cfg.SeedCatalog {
		stats, err := seed.Run(context.Background(), database)
		if err != nil {
			logger.Fatalf("failed to seed catalog: %v", err)
		}
		logger.WithFields(logrus.Fields{"inserts": stats.Inserts, "existing": stats.Existing}).Info("catalog seeded")
	}

	srv := newServer(cfg, database, newLookup(cfg, database), logger)

	addr := ":" + cfg.Port
	logger.WithField("addr", addr).Info("listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

// newLookup uses the remote catalog service when one is configured and the
// local composition table otherwise.
func newLookup(cfg config.Config, database *sql.DB) catalog.Lookup {
	if cfg.CatalogURL != "" {
		return catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, cfg.CatalogRetries)
	}
	return catalog.NewStore(database)
}

func newServer(cfg config.Config, database *sql.DB, lookup catalog.Lookup, logger logrus.FieldLogger) *server {
	e := engine.New(lookup, logger)
	e.CatalogTimeout = cfg.CatalogTimeout
	return &server{
		engine:    e,
		catalog:   lookup,
		proposals: proposal.NewStore(database),
		log:       logger,
		currency:  cfg.Currency,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{category}/availability", s.handleAvailability)

		r.Get("/catalog/{category}/compositions/{key}", s.handleCatalogComposition)
		r.Get("/catalog/{category}/availability", s.handleCatalogAvailability)

		r.Post("/calculations", s.handleCalculate)

		r.Get("/proposals", s.handleProposalsList)
		r.Post("/proposals", s.handleProposalCreate)
		r.Get("/proposals/{id}", s.handleProposalGet)
		r.Put("/proposals/{id}/freight", s.handleProposalFreight)
		r.Put("/proposals/{id}/display", s.handleProposalDisplay)
		r.Post("/proposals/{id}/recalculate", s.handleProposalRecalculate)
		r.Get("/proposals/{id}/bom.xlsx", s.handleProposalBOM)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
