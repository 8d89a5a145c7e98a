package httpapi

import (
	"fmt"
	"net/http"

	"owl-hotel/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AvailabilityHandler struct {
	availability service.AvailabilityService
	logger       *zap.Logger
}

func NewAvailabilityHandler(availability service.AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, logger: logger}
}

func (h *AvailabilityHandler) request(r *http.Request) (service.GetAvailabilityRequest, error) {
	q := r.URL.Query()
	from, err := optionalDate(q.Get("date_from"))
	if err != nil {
		return service.GetAvailabilityRequest{}, err
	}
	to, err := optionalDate(q.Get("date_to"))
	if err != nil {
		return service.GetAvailabilityRequest{}, err
	}
	return service.GetAvailabilityRequest{
		OrganizationID: organizationID(r),
		HotelID:        mux.Vars(r)["id"],
		DateFrom:       from,
		DateTo:         to,
	}, nil
}

// GET /api/v1/hotels/{id}/availability?date_from&date_to
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	report, err := h.availability.GetAvailability(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// GET /api/v1/hotels/{id}/availability/export?date_from&date_to
func (h *AvailabilityHandler) ExportAvailability(w http.ResponseWriter, r *http.Request) {
	req, err := h.request(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	report, err := h.availability.GetAvailability(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := GenerateAvailabilityExport(report)
	if err != nil {
		h.logger.Error("GenerateAvailabilityExport failed", zap.String("hotel_id", req.HotelID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	filename := fmt.Sprintf("availability-%s-%s-%s.xlsx", report.HotelID, report.DateFrom, report.DateTo)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
