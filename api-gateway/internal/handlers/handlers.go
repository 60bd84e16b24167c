package handlers

//go:generate mockgen -source=handlers.go -destination=mock_service_test.go -package=handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aaronwang/stay-auction/shared/biddingerrors"
	"github.com/aaronwang/stay-auction/shared/models"
	"github.com/aaronwang/stay-auction/shared/stream"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// BiddingService is what the HTTP layer needs from the service layer
type BiddingService interface {
	SubmitBid(ctx context.Context, sub models.BidSubmission) (*stream.Receipt, error)
	GetActiveBid(ctx context.Context, auctionID string, userID int64) (*models.Bid, error)
	BookingPeriods(ctx context.Context, auctionID string) ([]models.BookingPeriod, error)
	DailyWinners(ctx context.Context, auctionID string) ([]models.NightWinner, error)
	CloseAuction(ctx context.Context, auctionID string) (*models.Settlement, error)
	Standing(ctx context.Context, auctionID string, userID int64, insights bool) (*models.Standing, error)
	Calendar(ctx context.Context, propertyID int64, auctionID string, year, month int) (*models.PropertyCalendar, error)
}

// Handler contains HTTP request handlers
type Handler struct {
	biddingService BiddingService
	log            logrus.FieldLogger
	now            func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(biddingService BiddingService, log logrus.FieldLogger) *Handler {
	return &Handler{
		biddingService: biddingService,
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auctions/{id}/bids", h.PlaceBid).Methods("POST")
	api.HandleFunc("/auctions/{id}/bids/{user_id}", h.GetBid).Methods("GET")
	api.HandleFunc("/auctions/{id}/winners", h.GetWinners).Methods("GET")
	api.HandleFunc("/auctions/{id}/winners/daily", h.GetDailyWinners).Methods("GET")
	api.HandleFunc("/auctions/{id}/close", h.CloseAuction).Methods("POST")
	api.HandleFunc("/auctions/{id}/standing/{user_id}", h.GetStanding).Methods("GET")
	api.HandleFunc("/properties/{property_id}/calendar", h.GetCalendar).Methods("GET")

	router.Use(h.loggingMiddleware)
	router.Use(corsMiddleware)

	return router
}

// PlaceBidRequest is the body of a bid submission; the auction comes from the path
type PlaceBidRequest struct {
	SubmissionID string      `json:"submission_id"`
	UserID       int64       `json:"user_id"`
	PropertyID   int64       `json:"property_id"`
	BidAmount    int64       `json:"bid_amount"`
	BidTime      *time.Time  `json:"bid_time"`
	CheckIn      models.Date `json:"check_in"`
	CheckOut     models.Date `json:"check_out"`
	AllowPartial bool        `json:"allow_partial"`
}

// QueuedResponse acknowledges a queued submission
type QueuedResponse struct {
	Queued       bool   `json:"queued"`
	SubmissionID string `json:"submission_id"`
	Sequence     uint64 `json:"sequence"`
	Duplicate    bool   `json:"duplicate,omitempty"`
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "api-gateway",
		"time":    h.now().Format(time.RFC3339),
	})
}

// PlaceBid validates a submission and queues it for settlement
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]

	var req PlaceBidRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bidTime := h.now()
	if req.BidTime != nil {
		bidTime = req.BidTime.UTC()
	}
	sub := models.BidSubmission{
		SubmissionID: req.SubmissionID,
		UserID:       req.UserID,
		PropertyID:   req.PropertyID,
		AuctionID:    auctionID,
		BidAmount:    req.BidAmount,
		BidTime:      bidTime,
		CheckIn:      req.CheckIn,
		CheckOut:     req.CheckOut,
		AllowPartial: req.AllowPartial,
	}
	if err := sub.Validate(); err != nil {
		h.respondServiceError(w, err)
		return
	}

	receipt, err := h.biddingService.SubmitBid(r.Context(), sub)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, QueuedResponse{
		Queued:       true,
		SubmissionID: receipt.SubmissionID,
		Sequence:     receipt.Sequence,
		Duplicate:    receipt.Duplicate,
	})
}

// GetBid returns the user's active bid
func (h *Handler) GetBid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := parseUserID(w, vars["user_id"])
	if !ok {
		return
	}

	bid, err := h.biddingService.GetActiveBid(r.Context(), vars["id"], userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bid)
}

// GetWinners returns the booking periods of an auction
func (h *Handler) GetWinners(w http.ResponseWriter, r *http.Request) {
	periods, err := h.biddingService.BookingPeriods(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, periods)
}

// GetDailyWinners returns the winner of each night
func (h *Handler) GetDailyWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.biddingService.DailyWinners(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, winners)
}

// CloseAuction settles an auction
func (h *Handler) CloseAuction(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.biddingService.CloseAuction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settlement)
}

// GetStanding returns the win/loss report of a user's bid
func (h *Handler) GetStanding(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, ok := parseUserID(w, vars["user_id"])
	if !ok {
		return
	}
	insights, _ := strconv.ParseBool(r.URL.Query().Get("insights"))

	standing, err := h.biddingService.Standing(r.Context(), vars["id"], userID, insights)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, standing)
}

// GetCalendar returns a property's month view within an auction
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(mux.Vars(r)["property_id"], 10, 64)
	if err != nil || propertyID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid property ID")
		return
	}

	q := r.URL.Query()
	auctionID := q.Get("auction_id")
	if auctionID == "" {
		respondError(w, http.StatusBadRequest, "auction_id is required")
		return
	}
	year, errYear := strconv.Atoi(q.Get("year"))
	month, errMonth := strconv.Atoi(q.Get("month"))
	if errYear != nil || errMonth != nil {
		respondError(w, http.StatusBadRequest, "year and month must be integers")
		return
	}

	cal, err := h.biddingService.Calendar(r.Context(), propertyID, auctionID, year, month)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cal)
}

func parseUserID(w http.ResponseWriter, raw string) (int64, bool) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	return userID, true
}

// StatusFor maps a service error onto an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest
	case errors.Is(err, biddingerrors.ErrAuctionNotFound), errors.Is(err, biddingerrors.ErrBidNotFound):
		return http.StatusNotFound
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict
	case errors.Is(err, biddingerrors.ErrLockContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs all HTTP requests
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"uri":      r.RequestURI,
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}

// corsMiddleware adds CORS headers (for development)
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
