package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/ingestion"
	"github.com/folhapay/remittance/internal/layout"
	"github.com/folhapay/remittance/internal/metrics"
	"github.com/folhapay/remittance/internal/remittance"
)

// Deps are the services and stores the router serves.
type Deps struct {
	Remittances *remittance.Service
	Ingestion   *ingestion.Service
	Files       RemittanceQueries
	Returns     ReturnQueries
	Catalogue   domain.BankCatalogue
	Registry    *layout.Registry
	Logger      *slog.Logger
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(d Deps) http.Handler {
	if d.Registry == nil {
		d.Registry = layout.Default
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &Handlers{
		remittances: d.Remittances,
		ingestion:   d.Ingestion,
		files:       d.Files,
		returns:     d.Returns,
		catalogue:   d.Catalogue,
		registry:    d.Registry,
		logger:      d.Logger.With("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Remittances.
		r.Post("/remittances", h.CreateRemittance)
		r.Post("/remittances/import", h.ImportRemittance)
		r.Get("/remittances", h.ListRemittances)
		r.Get("/remittances/{id}", h.GetRemittance)
		r.Get("/remittances/{id}/records", h.ListRecords)
		r.Get("/remittances/{id}/download", h.DownloadRemittance)
		r.Get("/remittances/{id}/status", h.RemittanceStatus)
		r.Post("/remittances/{id}/simulate-return", h.SimulateReturn)

		// Returns.
		r.Post("/returns/ingest", h.IngestReturn)
		r.Get("/returns/{id}", h.GetReturn)
		r.Get("/returns/{id}/results", h.ListResults)
		r.Get("/returns/{id}/results.xlsx", h.ExportResults)

		// Reference data.
		r.Get("/layouts", h.ListLayouts)
		r.Get("/banks", h.ListBanks)
	})

	return r
}
