// Route registration and go-chi router setup for the AI gateway.
package api

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Beor18/real-state-matches-sub000/internal/api/handlers"
	apmiddleware "github.com/Beor18/real-state-matches-sub000/internal/api/middleware"
	"github.com/Beor18/real-state-matches-sub000/internal/domain/ai"
	domainaudit "github.com/Beor18/real-state-matches-sub000/internal/domain/audit"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/eventbus"
	"github.com/Beor18/real-state-matches-sub000/internal/infra/llm"
)

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(db *sql.DB) *chi.Mux {
	r := chi.NewRouter()
	auditService := domainaudit.NewService(db)

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Shared services: one event bus, one bounded client cache, one config
	// loader per router. Operational warnings from the AI layer land on the
	// bus and are logged by watchOperationalEvents.
	bus := eventbus.New()
	watchOperationalEvents(bus)
	clients := llm.NewClientCache(llm.DefaultClientCacheSize)

	settingsStore := ai.NewSettingsStore(db)
	loader := ai.NewConfigLoader(settingsStore, bus, nil)
	aiService := ai.NewService(loader, clients, bus, nil)
	adminService := ai.NewAdmin(settingsStore, aiService)

	completionHandler := handlers.NewCompletionHandler(aiService)
	embeddingHandler := handlers.NewEmbeddingHandler(aiService)
	providerHandler := handlers.NewProviderHandler(adminService)
	auditHandler := handlers.NewAuditHandler(auditService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuditMiddleware(auditService))

		r.Route("/ai", func(r chi.Router) {
			r.Post("/complete", completionHandler.Complete)     // POST /api/v1/ai/complete
			r.Post("/embed", embeddingHandler.Embed)            // POST /api/v1/ai/embed
			r.Post("/similarity", embeddingHandler.Similarity)  // POST /api/v1/ai/similarity
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/providers", providerHandler.List)               // GET /api/v1/admin/providers
			r.Put("/providers/{provider}", providerHandler.Upsert)  // PUT /api/v1/admin/providers/{provider}
			r.Post("/providers/test", providerHandler.Test)         // POST /api/v1/admin/providers/test
			r.Get("/audit", auditHandler.List)                      // GET /api/v1/admin/audit
		})
	})

	return r
}

// watchOperationalEvents logs AI-layer warnings published on the bus so
// degraded configs and synthesis fallbacks are visible in server output.
func watchOperationalEvents(bus *eventbus.Bus) {
	degraded := bus.Subscribe(eventbus.TopicConfigDegraded)
	fallback := bus.Subscribe(eventbus.TopicSynthesisFallback)
	go func() {
		for {
			select {
			case evt := <-degraded:
				log.Printf("ai config degraded: %+v", evt.Payload)
			case evt := <-fallback:
				log.Printf("ai synthesis fallback: %+v", evt.Payload)
			}
		}
	}()
}
