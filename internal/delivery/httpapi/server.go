package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tokentalk/tokentalk/internal/delivery/ws"
	"github.com/tokentalk/tokentalk/internal/domain"
	"github.com/tokentalk/tokentalk/internal/usecase"
	"go.uber.org/zap"
)

type Handler struct {
	alerts   *usecase.AlertUsecase
	users    *usecase.UserUsecase
	chat     *usecase.ChatUsecase
	engine   *usecase.Engine
	feed     domain.PriceFeed
	hub      *ws.Hub
	upgrader websocket.Upgrader
	vapidKey string
	logger   *zap.Logger
}

func NewHandler(
	alerts *usecase.AlertUsecase,
	users *usecase.UserUsecase,
	chat *usecase.ChatUsecase,
	engine *usecase.Engine,
	feed domain.PriceFeed,
	hub *ws.Hub,
	vapidKey string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		alerts: alerts,
		users:  users,
		chat:   chat,
		engine: engine,
		feed:   feed,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		vapidKey: vapidKey,
		logger:   logger,
	}
}

func (h *Handler) Router(registry *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Use(h.requestLogger)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/alerts", h.handleCreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts", h.handleListAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/parse", h.handleParseAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/user/{userID}", h.handleListUserAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}", h.handleGetAlert).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}", h.handleDeleteAlert).Methods(http.MethodDelete)
	api.HandleFunc("/alerts/{id}/status", h.handleUpdateAlertStatus).Methods(http.MethodPatch)
	api.HandleFunc("/alerts/{id}/notifications", h.handleAlertNotifications).Methods(http.MethodGet)

	api.HandleFunc("/prices/current/{symbol}", h.handleCurrentPrice).Methods(http.MethodGet)
	api.HandleFunc("/prices/multiple", h.handleMultiplePrices).Methods(http.MethodGet)

	api.HandleFunc("/chat", h.handleChat).Methods(http.MethodPost)

	api.HandleFunc("/users", h.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", h.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/preferences", h.handleUpdatePreferences).Methods(http.MethodPut)

	api.HandleFunc("/push/vapid-key", h.handleVAPIDKey).Methods(http.MethodGet)
	api.HandleFunc("/push/subscribe", h.handlePushSubscribe).Methods(http.MethodPost)

	api.HandleFunc("/monitoring/alert-engine", h.handleEngineStats).Methods(http.MethodGet)
	api.HandleFunc("/monitoring/alert-engine/run", h.handleEngineRun).Methods(http.MethodPost)

	router.HandleFunc("/ws", h.handleWebsocket)
	router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": h.hub.ConnectionCount(),
	})
}
