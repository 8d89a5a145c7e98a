package httpapi

import (
	"net/http"

	"owl-hotel/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// InventoryHandler serves hotels, floors, rooms, beds and bed types.
type InventoryHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger}
}

// ============================================
// Hotels
// ============================================

// GET /api/v1/hotels/{id}
func (h *InventoryHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	resp, err := h.inventory.GetHotel(r.Context(), service.GetHotelRequest{
		OrganizationID: organizationID(r),
		HotelID:        mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(hotelToJSON(resp.Hotel)))
}

// POST /api/v1/hotels
func (h *InventoryHandler) RegisterHotel(w http.ResponseWriter, r *http.Request) {
	var body registerHotelBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	from, err := optionalDatePtr(body.AvailableStartDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	to, err := optionalDatePtr(body.AvailableEndDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	org := body.Organization
	if org == "" {
		org = organizationID(r)
	}
	resp, err := h.inventory.RegisterHotel(r.Context(), service.RegisterHotelRequest{
		HotelID:        body.ID,
		OrganizationID: org,
		Name:           body.Name,
		Status:         body.Status,
		AvailableFrom:  from,
		AvailableTo:    to,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(hotelToJSON(resp.Hotel)))
}

// PUT /api/v1/hotels/{id}/window
func (h *InventoryHandler) SetHotelWindow(w http.ResponseWriter, r *http.Request) {
	var body hotelWindowBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	from, err := optionalDatePtr(body.AvailableStartDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	to, err := optionalDatePtr(body.AvailableEndDate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.inventory.SetHotelWindow(r.Context(), service.SetHotelWindowRequest{
		OrganizationID: organizationID(r),
		HotelID:        mux.Vars(r)["id"],
		AvailableFrom:  from,
		AvailableTo:    to,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(hotelToJSON(resp.Hotel)))
}

// ============================================
// Floors
// ============================================

// GET /api/v1/hotel-floors?hotel={id}
func (h *InventoryHandler) ListFloors(w http.ResponseWriter, r *http.Request) {
	resp, err := h.inventory.ListFloors(r.Context(), service.ListFloorsRequest{
		OrganizationID: organizationID(r),
		HotelID:        r.URL.Query().Get("hotel"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Items))
}

// POST /api/v1/hotel-floors
func (h *InventoryHandler) CreateFloor(w http.ResponseWriter, r *http.Request) {
	var body createFloorBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	resp, err := h.inventory.CreateFloor(r.Context(), service.CreateFloorRequest{
		OrganizationID: organizationID(r),
		HotelID:        body.Hotel,
		FloorNo:        *body.FloorNo,
		Title:          body.FloorTitle,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp.Floor))
}

// POST /api/v1/hotel-floors/bulk
func (h *InventoryHandler) BulkCreateFloors(w http.ResponseWriter, r *http.Request) {
	var body bulkFloorsBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	specs := make([]service.FloorSpec, 0, len(body.Floors))
	for _, f := range body.Floors {
		specs = append(specs, service.FloorSpec{FloorNo: *f.FloorNo, Title: f.FloorTitle})
	}
	resp, err := h.inventory.BulkCreateFloors(r.Context(), service.BulkCreateFloorsRequest{
		OrganizationID: organizationID(r),
		HotelID:        body.Hotel,
		Floors:         specs,
		Count:          body.Count,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp.Items))
}

// PATCH /api/v1/hotel-floors/{id}
func (h *InventoryHandler) UpdateFloor(w http.ResponseWriter, r *http.Request) {
	var body updateFloorBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	resp, err := h.inventory.UpdateFloor(r.Context(), service.UpdateFloorRequest{
		OrganizationID: organizationID(r),
		FloorID:        mux.Vars(r)["id"],
		Title:          body.FloorTitle,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Floor))
}

// DELETE /api/v1/hotel-floors/{id}
func (h *InventoryHandler) DeleteFloor(w http.ResponseWriter, r *http.Request) {
	err := h.inventory.DeleteFloor(r.Context(), service.DeleteFloorRequest{
		OrganizationID: organizationID(r),
		FloorID:        mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ============================================
// Rooms
// ============================================

// GET /api/v1/hotel-rooms?hotel={id}&floor={id}
func (h *InventoryHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.inventory.ListRooms(r.Context(), service.ListRoomsRequest{
		OrganizationID: organizationID(r),
		HotelID:        q.Get("hotel"),
		FloorID:        q.Get("floor"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Items))
}

// POST /api/v1/hotel-rooms
func (h *InventoryHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	resp, err := h.inventory.CreateRoom(r.Context(), service.CreateRoomRequest{
		OrganizationID: organizationID(r),
		FloorID:        body.Floor,
		RoomNo:         body.RoomNo,
		RoomType:       body.RoomType,
		Capacity:       body.TotalBeds,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp.Room))
}

// POST /api/v1/hotel-rooms/bulk
func (h *InventoryHandler) BulkCreateRooms(w http.ResponseWriter, r *http.Request) {
	var body bulkRoomsBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	specs := make([]service.RoomSpec, 0, len(body.Rooms))
	for _, rs := range body.Rooms {
		specs = append(specs, service.RoomSpec{RoomNo: rs.RoomNo, RoomType: rs.RoomType, Capacity: rs.TotalBeds})
	}
	resp, err := h.inventory.BulkCreateRooms(r.Context(), service.BulkCreateRoomsRequest{
		OrganizationID: organizationID(r),
		FloorID:        body.Floor,
		Rooms:          specs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(resp.Items))
}

// PATCH /api/v1/hotel-rooms/{id}
func (h *InventoryHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	var body updateRoomBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	resp, err := h.inventory.UpdateRoom(r.Context(), service.UpdateRoomRequest{
		OrganizationID: organizationID(r),
		RoomID:         mux.Vars(r)["id"],
		RoomType:       body.RoomType,
		Capacity:       body.TotalBeds,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Room))
}

// DELETE /api/v1/hotel-rooms/{id}
func (h *InventoryHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	err := h.inventory.DeleteRoom(r.Context(), service.DeleteRoomRequest{
		OrganizationID: organizationID(r),
		RoomID:         mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ============================================
// Beds
// ============================================

// PATCH /api/v1/hotel-beds/{id}
func (h *InventoryHandler) SetBedStatus(w http.ResponseWriter, r *http.Request) {
	var body bedStatusBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	resp, err := h.inventory.SetBedStatus(r.Context(), service.SetBedStatusRequest{
		OrganizationID: organizationID(r),
		BedID:          mux.Vars(r)["id"],
		Status:         body.Status,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp.Bed))
}

// DELETE /api/v1/hotel-beds/{id}
func (h *InventoryHandler) DeleteBed(w http.ResponseWriter, r *http.Request) {
	err := h.inventory.DeleteBed(r.Context(), service.DeleteBedRequest{
		OrganizationID: organizationID(r),
		BedID:          mux.Vars(r)["id"],
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// ============================================
// Bed types
// ============================================

// GET /api/v1/bed-types
func (h *InventoryHandler) ListBedTypes(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListBedTypes(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// PUT /api/v1/bed-types/{name}
func (h *InventoryHandler) UpsertBedType(w http.ResponseWriter, r *http.Request) {
	var body bedTypeBody
	if !decodeAndValidate(w, r, h.logger, &body) {
		return
	}
	bt, err := h.inventory.UpsertBedType(r.Context(), service.UpsertBedTypeRequest{
		Name:     mux.Vars(r)["name"],
		Capacity: body.Capacity,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(bt))
}
