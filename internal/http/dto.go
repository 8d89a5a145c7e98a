package httpapi

import (
	"time"

	"owl-hotel/internal/domain"
)

// ============================================
// Request bodies
// ============================================

type registerHotelBody struct {
	ID                 string `json:"id"`
	Organization       string `json:"organization"`
	Name               string `json:"name" validate:"required,max=255"`
	Status             string `json:"status" validate:"omitempty,oneof=active inactive"`
	AvailableStartDate string `json:"available_start_date" validate:"omitempty,datetime=2006-01-02"`
	AvailableEndDate   string `json:"available_end_date" validate:"omitempty,datetime=2006-01-02"`
}

type hotelWindowBody struct {
	AvailableStartDate string `json:"available_start_date" validate:"omitempty,datetime=2006-01-02"`
	AvailableEndDate   string `json:"available_end_date" validate:"omitempty,datetime=2006-01-02"`
}

type createFloorBody struct {
	Hotel      string `json:"hotel" validate:"required"`
	FloorNo    *int   `json:"floor_no" validate:"required"`
	FloorTitle string `json:"floor_title" validate:"max=255"`
}

type floorSpecBody struct {
	FloorNo    *int   `json:"floor_no" validate:"required"`
	FloorTitle string `json:"floor_title" validate:"max=255"`
}

// bulkFloorsBody takes explicit floors, or a count for floors 1..count.
type bulkFloorsBody struct {
	Hotel  string          `json:"hotel" validate:"required"`
	Floors []floorSpecBody `json:"floors" validate:"omitempty,dive"`
	Count  int             `json:"count" validate:"omitempty,min=1,max=200"`
}

type updateFloorBody struct {
	FloorTitle string `json:"floor_title" validate:"required,max=255"`
}

type createRoomBody struct {
	Floor     string `json:"floor" validate:"required"`
	RoomNo    string `json:"room_no" validate:"required,max=64"`
	RoomType  string `json:"room_type" validate:"required"`
	TotalBeds *int   `json:"total_beds" validate:"omitempty,min=1"`
}

type roomSpecBody struct {
	RoomNo    string `json:"room_no" validate:"required,max=64"`
	RoomType  string `json:"room_type" validate:"required"`
	TotalBeds *int   `json:"total_beds" validate:"omitempty,min=1"`
}

type bulkRoomsBody struct {
	Floor string         `json:"floor" validate:"required"`
	Rooms []roomSpecBody `json:"rooms" validate:"required,min=1,dive"`
}

type updateRoomBody struct {
	RoomType  *string `json:"room_type" validate:"omitempty,min=1"`
	TotalBeds *int    `json:"total_beds" validate:"omitempty,min=1"`
}

type bedStatusBody struct {
	Status string `json:"status" validate:"required"`
}

type bedTypeBody struct {
	Capacity int `json:"capacity" validate:"required,min=1"`
}

type createBookingBody struct {
	Hotel          string `json:"hotel"`
	Room           string `json:"room" validate:"required"`
	Bed            string `json:"bed"`
	GuestName      string `json:"guest_name" validate:"required,max=255"`
	GuestCount     int    `json:"guest_count" validate:"omitempty,min=1"`
	CheckinDate    string `json:"checkin_date" validate:"required,datetime=2006-01-02"`
	CheckoutDate   string `json:"checkout_date" validate:"required,datetime=2006-01-02"`
	IdempotencyKey string `json:"idempotency_key" validate:"max=128"`
}

type checkBookingBody struct {
	Room         string `json:"room" validate:"required"`
	Bed          string `json:"bed"`
	CheckinDate  string `json:"checkin_date" validate:"required,datetime=2006-01-02"`
	CheckoutDate string `json:"checkout_date" validate:"required,datetime=2006-01-02"`
}

// ============================================
// Response mapping
// ============================================

func hotelToJSON(h *domain.Hotel) map[string]any {
	return map[string]any{
		"id":                   h.ID,
		"organization":         h.OrganizationID,
		"name":                 h.Name,
		"status":               h.Status,
		"available_start_date": formatDatePtr(h.AvailableFrom),
		"available_end_date":   formatDatePtr(h.AvailableTo),
	}
}

func bookingToJSON(b *domain.Booking) map[string]any {
	out := map[string]any{
		"id":            b.ID,
		"hotel":         b.HotelID,
		"room":          b.RoomID,
		"bed":           b.BedID,
		"guest_name":    b.GuestName,
		"guest_count":   b.GuestCount,
		"checkin_date":  domain.FormatDate(b.Checkin),
		"checkout_date": domain.FormatDate(b.Checkout),
		"status":        string(b.Status),
		"created_at":    b.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":    b.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if b.BedID != "" {
		out["bed_number"] = b.BedNo
	}
	if b.IdempotencyKey != "" {
		out["idempotency_key"] = b.IdempotencyKey
	}
	return out
}

func bookingsToJSON(items []*domain.Booking) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, b := range items {
		out = append(out, bookingToJSON(b))
	}
	return out
}
