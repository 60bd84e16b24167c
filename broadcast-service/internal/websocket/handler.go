package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development (use proper CORS in production)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades auction watchers to WebSocket connections
type Handler struct {
	manager *Manager
	// inbound messages per second and burst allowed per client
	rateLimit rate.Limit
	rateBurst int
}

// NewHandler creates a new WebSocket handler
func NewHandler(manager *Manager, perSecond float64, burst int) *Handler {
	return &Handler{
		manager:   manager,
		rateLimit: rate.Limit(perSecond),
		rateBurst: burst,
	}
}

// SetupRoutes configures WebSocket routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ws/auctions/{id}", h.HandleWebSocket)
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/stats/auctions/{id}", h.GetStats).Methods("GET")

	return router
}

// HandleWebSocket subscribes the caller to an auction's events
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]
	if auctionID == "" {
		http.Error(w, "Auction ID is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.manager.log.WithError(err).Warn("failed to upgrade connection")
		return
	}

	client := &Client{
		ID:        uuid.New().String(),
		AuctionID: auctionID,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Limiter:   rate.NewLimiter(h.rateLimit, h.rateBurst),
	}

	h.manager.RegisterClient(client)
	h.manager.StartReadPump(client)

	welcome, _ := json.Marshal(map[string]string{
		"type":       "connected",
		"auction_id": auctionID,
		"client_id":  client.ID,
	})
	h.manager.Send(client, welcome)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy", "service": "broadcast-service"})
}

// GetStats returns the number of clients watching an auction
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]
	writeJSON(w, map[string]any{
		"auction_id":  auctionID,
		"subscribers": h.manager.SubscriberCount(auctionID),
	})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}
