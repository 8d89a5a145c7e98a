package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/repository"
	"owl-hotel/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const testOrg = "org-1"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewMemoryInventoryRepo()
	resolver := service.NewCapacityResolver(repository.NewMemoryBedTypesRepo(), nil, "sharing", 2, logger)
	require.NoError(t, resolver.SeedDefaults(t.Context()))

	return NewRouter(Handlers{
		Inventory:    NewInventoryHandler(service.NewInventoryService(repo, resolver, nil, nil, logger), logger),
		Bookings:     NewBookingHandler(service.NewBookingService(repo, nil, nil, logger), logger),
		Availability: NewAvailabilityHandler(service.NewAvailabilityService(repo, nil, 1, logger), logger),
	}, []string{"*"}, logger)
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OrganizationHeader, testOrg)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var out Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type roomJSON struct {
	ID        string `json:"id"`
	RoomType  string `json:"room_type"`
	TotalBeds int    `json:"total_beds"`
	Details   []struct {
		ID    string `json:"id"`
		BedNo int    `json:"bed_number"`
	} `json:"details"`
}

// seedRoom registers hotel "7" with floor 1 and room 101 of roomType.
func seedRoom(t *testing.T, h http.Handler, roomType string) roomJSON {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/hotels", map[string]any{"id": "7", "name": "Makkah Towers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-floors", map[string]any{"hotel": "7", "floor_no": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	floor := decode[domain.Floor](t, rec).Result
	assert.Equal(t, "Floor 1", floor.Title)

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-rooms", map[string]any{"floor": floor.ID, "room_no": "101", "room_type": roomType})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[roomJSON](t, rec).Result
}

func book(t *testing.T, h http.Handler, room, bed, checkin, checkout string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, http.MethodPost, "/api/v1/hotel-bookings", map[string]any{
		"room":          room,
		"bed":           bed,
		"guest_name":    "Guest " + checkin,
		"checkin_date":  checkin,
		"checkout_date": checkout,
	}, headers...)
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ResultSuccess, decode[map[string]string](t, rec).Code)
}

func TestCreateRoom_ResolvesCapacityFromType(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "double")
	assert.Equal(t, 2, room.TotalBeds)
	require.Len(t, room.Details, 2)
	assert.Equal(t, 1, room.Details[0].BedNo)
	assert.Equal(t, 2, room.Details[1].BedNo)

	rec := do(t, h, http.MethodGet, "/api/v1/hotel-rooms?hotel=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]service.RoomListItem](t, rec).Result
	require.Len(t, items, 1)
	assert.Equal(t, "AVAILABLE", items[0].Status)
}

func TestCreateRoom_LockedCapacityConflicts(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "double")
	rec := do(t, h, http.MethodPatch, "/api/v1/hotel-rooms/"+room.ID, map[string]any{"total_beds": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ResultError, decode[any](t, rec).Code)
}

func TestRegisterHotel_ValidationDetails(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/api/v1/hotels", map[string]any{"available_start_date": "2026-13-40"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	details := decode[[]ValidationErrorDetail](t, rec).Result
	codes := map[string]string{}
	for _, d := range details {
		codes[d.Field] = d.Code
	}
	assert.Equal(t, "validation_required", codes["name"])
	assert.Equal(t, "validation_datetime", codes["available_start_date"])
}

func TestBulkCreateFloors_DuplicateRejectsWholeBatch(t *testing.T) {
	h := newTestRouter(t)
	seedRoom(t, h, "single")

	rec := do(t, h, http.MethodPost, "/api/v1/hotel-floors/bulk", map[string]any{
		"hotel":  "7",
		"floors": []map[string]any{{"floor_no": 2}, {"floor_no": 1}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/hotel-floors?hotel=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.FloorSummary](t, rec).Result, 1)
}

func TestCreateBooking_ConflictReturnsBlockingBooking(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "double")
	bed := room.Details[0].ID

	rec := book(t, h, room.ID, bed, "2026-03-01", "2026-03-05")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[map[string]any](t, rec).Result
	assert.Equal(t, "PENDING", first["status"])
	assert.Equal(t, "2026-03-01", first["checkin_date"])

	rec = book(t, h, room.ID, bed, "2026-03-04", "2026-03-06")
	require.Equal(t, http.StatusConflict, rec.Code)
	res := decode[map[string]map[string]any](t, rec).Result
	assert.Equal(t, first["id"], res["conflicting_booking"]["id"])

	// back-to-back stays share the boundary date
	rec = book(t, h, room.ID, bed, "2026-03-05", "2026-03-07")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// the other bed is free
	rec = book(t, h, room.ID, room.Details[1].ID, "2026-03-01", "2026-03-05")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateBooking_InvalidRange(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")
	rec := book(t, h, room.ID, room.Details[0].ID, "2026-03-05", "2026-03-05")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_IdempotencyHeaderReplays(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")

	rec := book(t, h, room.ID, room.Details[0].ID, "2026-03-01", "2026-03-02", IdempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[map[string]any](t, rec).Result

	rec = book(t, h, room.ID, room.Details[0].ID, "2026-03-01", "2026-03-02", IdempotencyHeader, "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first["id"], decode[map[string]any](t, rec).Result["id"])
}

func TestCheckBooking_DoesNotReserve(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")
	body := map[string]any{"room": room.ID, "checkin_date": "2026-03-01", "checkout_date": "2026-03-03"}

	rec := do(t, h, http.MethodPost, "/api/v1/hotel-bookings/check", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec).Result["conflict"])

	require.Equal(t, http.StatusCreated, book(t, h, room.ID, "", "2026-03-02", "2026-03-04").Code)

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-bookings/check", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec).Result["conflict"])
}

func TestBookingLifecycle(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")
	rec := book(t, h, room.ID, room.Details[0].ID, "2026-03-01", "2026-03-02")
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]any](t, rec).Result["id"].(string)

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-bookings/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", decode[map[string]any](t, rec).Result["status"])

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-bookings/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/hotel-bookings/"+id+"/complete", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/hotel-bookings/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[map[string]any](t, rec).Result["status"])

	rec = do(t, h, http.MethodGet, "/api/v1/hotel-bookings/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListBookings_Paginates(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")
	bed := room.Details[0].ID
	for _, d := range [][2]string{{"2026-03-01", "2026-03-02"}, {"2026-03-02", "2026-03-03"}, {"2026-03-03", "2026-03-04"}} {
		require.Equal(t, http.StatusCreated, book(t, h, room.ID, bed, d[0], d[1]).Code)
	}

	rec := do(t, h, http.MethodGet, "/api/v1/hotel-bookings?hotel=7&page=1&size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Result struct {
			Items      []map[string]any `json:"items"`
			Pagination struct {
				Count int `json:"count"`
				Size  int `json:"size"`
			} `json:"pagination"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Result.Items, 2)
	assert.Equal(t, 3, out.Result.Pagination.Count)

	rec = do(t, h, http.MethodGet, "/api/v1/hotel-rooms/"+room.ID+"/occupied-dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.OccupiedDate](t, rec).Result, 3)
}

func TestOrganizationScoping(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/api/v1/hotels", map[string]any{"id": "9", "organization": "org-2", "name": "Other"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/hotels/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/hotels/9/availability", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAvailability(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "double")
	require.Equal(t, http.StatusCreated, book(t, h, room.ID, room.Details[0].ID, "2026-03-01", "2026-03-03").Code)

	rec := do(t, h, http.MethodGet, "/api/v1/hotels/7/availability?date_from=2026-03-01&date_to=2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.EqualValues(t, 1, out.Result["total_rooms"])
	assert.EqualValues(t, 1, out.Result["partially_occupied_rooms"])
	assert.EqualValues(t, 1, out.Result["total_double_rooms"])
	assert.EqualValues(t, 0, out.Result["available_double_rooms"])

	// a stay checking in on date_to is outside the range
	rec = do(t, h, http.MethodGet, "/api/v1/hotels/7/availability?date_from=2026-02-25&date_to=2026-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.EqualValues(t, 1, out.Result["available_double_rooms"])

	rec = do(t, h, http.MethodGet, "/api/v1/hotels/7/availability?date_from=2026-03-05&date_to=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/hotels/7/availability?date_from=2026-03-01&date_to=2026-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportAvailability(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "double")
	require.Equal(t, http.StatusCreated, book(t, h, room.ID, "", "2026-03-01", "2026-03-03").Code)

	rec := do(t, h, http.MethodGet, "/api/v1/hotels/7/availability/export?date_from=2026-03-01&date_to=2026-03-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "availability-7-2026-03-01-2026-03-02.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Summary", "Rooms"}, f.GetSheetList())

	rows, err := f.GetRows("Rooms")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, availabilityRoomsHeader, rows[0])
	assert.Equal(t, "101", rows[1][1])
	assert.Equal(t, "OCCUPIED", rows[1][3])
}

func TestBedStatusOverride(t *testing.T) {
	h := newTestRouter(t)
	room := seedRoom(t, h, "single")

	rec := do(t, h, http.MethodPatch, "/api/v1/hotel-beds/"+room.Details[0].ID, map[string]any{"status": "UNDER_MAINTENANCE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPatch, "/api/v1/hotel-beds/"+room.Details[0].ID, map[string]any{"status": "OCCUPIED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBedTypes(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodPut, "/api/v1/bed-types/Family", map[string]any{"capacity": 6})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/bed-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	capacities := map[string]int{}
	for _, bt := range decode[[]domain.BedType](t, rec).Result {
		capacities[bt.Name] = bt.Capacity
	}
	assert.Equal(t, 6, capacities["family"])
	assert.Equal(t, 2, capacities["double"])
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrInvalidRange, http.StatusBadRequest},
		{domain.ErrOutOfWindow, http.StatusBadRequest},
		{domain.NotFoundf("room %s", "x"), http.StatusNotFound},
		{&domain.BookingConflictError{RoomID: "r"}, http.StatusConflict},
		{domain.ErrFloorNotEmpty, http.StatusConflict},
		{domain.ErrDuplicateKey, http.StatusConflict},
		{domain.NewStorageError("snapshot", assert.AnError), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
