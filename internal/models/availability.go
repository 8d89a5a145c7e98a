package models

import (
	"encoding/json"
	"strings"
)

// Room status values in availability reports.
const (
	RoomAvailable         = "AVAILABLE"
	RoomOccupied          = "OCCUPIED"
	RoomPartiallyOccupied = "PARTIALLY_OCCUPIED"
)

// AvailabilityReport is the per-hotel occupancy summary for a date range.
type AvailabilityReport struct {
	HotelID                string              `json:"hotel_id"`
	HotelName              string              `json:"hotel_name"`
	DateFrom               string              `json:"date_from"`
	DateTo                 string              `json:"date_to"`
	TotalRooms             int                 `json:"total_rooms"`
	AvailableRooms         int                 `json:"available_rooms"`
	OccupiedRooms          int                 `json:"occupied_rooms"`
	PartiallyOccupiedRooms int                 `json:"partially_occupied_rooms"`
	TotalBeds              int                 `json:"total_beds"`
	AvailableBeds          int                 `json:"available_beds"`
	OccupiedBeds           int                 `json:"occupied_beds"`
	RoomTypes              []RoomTypeSummary   `json:"room_types"`
	Floors                 []FloorAvailability `json:"floors"`
}

// RoomTypeSummary is the per-room-type breakdown.
type RoomTypeSummary struct {
	RoomType       string `json:"room_type"`
	TotalRooms     int    `json:"total_rooms"`
	AvailableRooms int    `json:"available_rooms"`
	TotalBeds      int    `json:"total_beds"`
	AvailableBeds  int    `json:"available_beds"`
}

type FloorAvailability struct {
	FloorID                string             `json:"floor_id"`
	FloorNo                int                `json:"floor_no"`
	FloorTitle             string             `json:"floor_title"`
	TotalRooms             int                `json:"total_rooms"`
	AvailableRooms         int                `json:"available_rooms"`
	OccupiedRooms          int                `json:"occupied_rooms"`
	PartiallyOccupiedRooms int                `json:"partially_occupied_rooms"`
	Rooms                  []RoomAvailability `json:"rooms"`
}

type RoomAvailability struct {
	RoomID        string            `json:"room_id"`
	RoomNo        string            `json:"room_no"`
	RoomType      string            `json:"room_type"`
	Status        string            `json:"status"`
	TotalBeds     int               `json:"total_beds"`
	AvailableBeds int               `json:"available_beds"`
	OccupiedBeds  int               `json:"occupied_beds"`
	GuestNames    []string          `json:"guest_names"`
	CheckinDate   string            `json:"checkin_date,omitempty"`
	CheckoutDate  string            `json:"checkout_date,omitempty"`
	Beds          []BedAvailability `json:"beds"`
}

type BedAvailability struct {
	BedID     string `json:"bed_id"`
	BedNo     int    `json:"bed_number"`
	Status    string `json:"status"`
	GuestName string `json:"guest_name,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
}

// MarshalJSON adds flat total_<type>_rooms / available_<type>_rooms keys
// next to the structured breakdown; the admin console reads those.
func (r AvailabilityReport) MarshalJSON() ([]byte, error) {
	type plain AvailabilityReport
	base, err := json.Marshal(plain(r))
	if err != nil || len(r.RoomTypes) == 0 {
		return base, err
	}

	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for _, rt := range r.RoomTypes {
		key := roomTypeKey(rt.RoomType)
		m["total_"+key+"_rooms"] = rt.TotalRooms
		m["available_"+key+"_rooms"] = rt.AvailableRooms
	}
	return json.Marshal(m)
}

func roomTypeKey(roomType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(roomType)), " ", "_")
}
