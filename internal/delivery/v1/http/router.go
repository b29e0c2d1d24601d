package http

import (
	"net/http"

	_ "github.com/DRSN-tech/image-search-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/image-search-backend/internal/cfg"
	"github.com/DRSN-tech/image-search-backend/internal/usecase"
	"github.com/DRSN-tech/image-search-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(backfillUC usecase.BackfillUC, searchUC usecase.SearchUC, config *cfg.Config) {
	r.router.Use(corsMiddleware)

	// Не-POST на триггерах отвечает 405 тем же JSON-форматом, что и остальные ошибки.
	r.router.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, NewErrorResponse(http.StatusMethodNotAllowed, "method not allowed"))
	})

	r.router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		backfillHandler := NewBackfillHandler(backfillUC, config.Backfill, r.logger)
		searchHandler := NewSearchHandler(searchUC, r.logger)
		registerEmbeddingRoutes(v1, backfillHandler)
		registerSearchRoutes(v1, searchHandler)
	})
}

func registerEmbeddingRoutes(router chi.Router, handler *BackfillHandler) {
	router.Route("/embeddings", func(emb chi.Router) {
		emb.Post("/backfill", handler.runBackfill)
	})
}

func registerSearchRoutes(router chi.Router, handler *SearchHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/search", handler.searchByImage)
	})
}
