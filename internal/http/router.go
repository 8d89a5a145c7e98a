package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Handlers groups the endpoint handlers mounted under /api/v1.
type Handlers struct {
	Inventory    *InventoryHandler
	Bookings     *BookingHandler
	Availability *AvailabilityHandler
}

// NewRouter builds the API router wrapped in request logging and CORS.
func NewRouter(h Handlers, allowedOrigins []string, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(requestLogger(logger))

	// hotels
	api.HandleFunc("/hotels", h.Inventory.RegisterHotel).Methods(http.MethodPost)
	api.HandleFunc("/hotels/{id}", h.Inventory.GetHotel).Methods(http.MethodGet)
	api.HandleFunc("/hotels/{id}/window", h.Inventory.SetHotelWindow).Methods(http.MethodPut)
	api.HandleFunc("/hotels/{id}/availability", h.Availability.GetAvailability).Methods(http.MethodGet)
	api.HandleFunc("/hotels/{id}/availability/export", h.Availability.ExportAvailability).Methods(http.MethodGet)

	// floors
	api.HandleFunc("/hotel-floors", h.Inventory.ListFloors).Methods(http.MethodGet)
	api.HandleFunc("/hotel-floors", h.Inventory.CreateFloor).Methods(http.MethodPost)
	api.HandleFunc("/hotel-floors/bulk", h.Inventory.BulkCreateFloors).Methods(http.MethodPost)
	api.HandleFunc("/hotel-floors/{id}", h.Inventory.UpdateFloor).Methods(http.MethodPatch)
	api.HandleFunc("/hotel-floors/{id}", h.Inventory.DeleteFloor).Methods(http.MethodDelete)

	// rooms
	api.HandleFunc("/hotel-rooms", h.Inventory.ListRooms).Methods(http.MethodGet)
	api.HandleFunc("/hotel-rooms", h.Inventory.CreateRoom).Methods(http.MethodPost)
	api.HandleFunc("/hotel-rooms/bulk", h.Inventory.BulkCreateRooms).Methods(http.MethodPost)
	api.HandleFunc("/hotel-rooms/{id}", h.Inventory.UpdateRoom).Methods(http.MethodPatch)
	api.HandleFunc("/hotel-rooms/{id}", h.Inventory.DeleteRoom).Methods(http.MethodDelete)
	api.HandleFunc("/hotel-rooms/{id}/occupied-dates", h.Bookings.OccupiedDates).Methods(http.MethodGet)

	// beds
	api.HandleFunc("/hotel-beds/{id}", h.Inventory.SetBedStatus).Methods(http.MethodPatch)
	api.HandleFunc("/hotel-beds/{id}", h.Inventory.DeleteBed).Methods(http.MethodDelete)

	// bed types
	api.HandleFunc("/bed-types", h.Inventory.ListBedTypes).Methods(http.MethodGet)
	api.HandleFunc("/bed-types/{name}", h.Inventory.UpsertBedType).Methods(http.MethodPut)

	// bookings; "check" before {id}
	api.HandleFunc("/hotel-bookings", h.Bookings.ListBookings).Methods(http.MethodGet)
	api.HandleFunc("/hotel-bookings", h.Bookings.CreateBooking).Methods(http.MethodPost)
	api.HandleFunc("/hotel-bookings/check", h.Bookings.CheckBooking).Methods(http.MethodPost)
	api.HandleFunc("/hotel-bookings/{id}", h.Bookings.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/hotel-bookings/{id}/confirm", h.Bookings.ConfirmBooking).Methods(http.MethodPost)
	api.HandleFunc("/hotel-bookings/{id}/cancel", h.Bookings.CancelBooking).Methods(http.MethodPost)
	api.HandleFunc("/hotel-bookings/{id}/complete", h.Bookings.CompleteBooking).Methods(http.MethodPost)

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", OrganizationHeader, IdempotencyHeader},
		AllowCredentials: true,
	})
	return co.Handler(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
