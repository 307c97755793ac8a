package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"voice-insight/pkg/config"
	"voice-insight/pkg/logger"
	"voice-insight/pkg/metrics"
)

// NewRouter wires every route of the service.
func NewRouter(cfg *config.Config, h *Handlers, m *metrics.Manager, log logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger(log.Named("http")), BodyLimit(cfg.Server.MaxUploadBytes))

	router.HandleFunc("/", MetricsMiddleware(m, h.IndexHandler, "index")).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/analyses", MetricsMiddleware(m, h.ListAnalysesHandler, "list_analyses")).Methods(http.MethodGet)
	router.HandleFunc("/analyses/{id}", MetricsMiddleware(m, h.GetAnalysisHandler, "get_analysis")).Methods(http.MethodGet)
	router.HandleFunc("/ws", MetricsMiddleware(m, h.WebSocketHandler(cfg.Server.MaxUploadBytes), "ws"))
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	graphs := http.StripPrefix("/static/graphs/", http.FileServer(http.Dir(cfg.Storage.GraphDir)))
	router.PathPrefix("/static/graphs/").Handler(graphs).Methods(http.MethodGet)

	return router
}
