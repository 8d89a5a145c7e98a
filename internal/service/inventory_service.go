package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/events"
	"owl-hotel/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService manages the Hotel -> Floor -> Room -> Bed hierarchy.
type InventoryService interface {
	// Hotel
	RegisterHotel(ctx context.Context, req RegisterHotelRequest) (*HotelResponse, error)
	GetHotel(ctx context.Context, req GetHotelRequest) (*HotelResponse, error)
	SetHotelWindow(ctx context.Context, req SetHotelWindowRequest) (*HotelResponse, error)

	// Floor
	ListFloors(ctx context.Context, req ListFloorsRequest) (*ListFloorsResponse, error)
	CreateFloor(ctx context.Context, req CreateFloorRequest) (*FloorResponse, error)
	BulkCreateFloors(ctx context.Context, req BulkCreateFloorsRequest) (*BulkCreateFloorsResponse, error)
	UpdateFloor(ctx context.Context, req UpdateFloorRequest) (*FloorResponse, error)
	DeleteFloor(ctx context.Context, req DeleteFloorRequest) error

	// Room
	ListRooms(ctx context.Context, req ListRoomsRequest) (*ListRoomsResponse, error)
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomResponse, error)
	BulkCreateRooms(ctx context.Context, req BulkCreateRoomsRequest) (*BulkCreateRoomsResponse, error)
	SetRoomCapacity(ctx context.Context, req SetRoomCapacityRequest) (*RoomResponse, error)
	ChangeRoomType(ctx context.Context, req ChangeRoomTypeRequest) (*RoomResponse, error)
	UpdateRoom(ctx context.Context, req UpdateRoomRequest) (*RoomResponse, error)
	DeleteRoom(ctx context.Context, req DeleteRoomRequest) error

	// Bed
	SetBedStatus(ctx context.Context, req SetBedStatusRequest) (*BedResponse, error)
	DeleteBed(ctx context.Context, req DeleteBedRequest) error

	// Bed types
	ListBedTypes(ctx context.Context) ([]*domain.BedType, error)
	UpsertBedType(ctx context.Context, req UpsertBedTypeRequest) (*domain.BedType, error)
}

type inventoryService struct {
	repo     repository.InventoryRepository
	resolver *CapacityResolver
	notifier *changeNotifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewInventoryService wires the hierarchy service. cache and publisher may be nil.
func NewInventoryService(repo repository.InventoryRepository, resolver *CapacityResolver, cache *AvailabilityCache, publisher events.Publisher, logger *zap.Logger) InventoryService {
	return &inventoryService{
		repo:     repo,
		resolver: resolver,
		notifier: newChangeNotifier(cache, publisher, logger),
		now:      time.Now,
		logger:   logger,
	}
}

// ============================================
// Requests / responses
// ============================================

type RegisterHotelRequest struct {
	HotelID        string // optional, generated when empty
	OrganizationID string
	Name           string // required
	Status         string
	AvailableFrom  *time.Time
	AvailableTo    *time.Time
}

type GetHotelRequest struct {
	OrganizationID string
	HotelID        string
}

type SetHotelWindowRequest struct {
	OrganizationID string
	HotelID        string
	AvailableFrom  *time.Time // nil clears
	AvailableTo    *time.Time // nil clears
}

type HotelResponse struct {
	Hotel *domain.Hotel
}

type ListFloorsRequest struct {
	OrganizationID string
	HotelID        string
}

// FloorSummary is a floor with its room and bed counts.
type FloorSummary struct {
	ID         string        `json:"id"`
	HotelID    string        `json:"hotel"`
	FloorNo    int           `json:"floor_no"`
	Title      string        `json:"floor_title"`
	TotalRooms int           `json:"total_rooms"`
	TotalBeds  int           `json:"total_beds"`
	Rooms      []RoomSummary `json:"rooms"`
}

type RoomSummary struct {
	ID        string `json:"id"`
	RoomNo    string `json:"room_no"`
	RoomType  string `json:"room_type"`
	TotalBeds int    `json:"total_beds"`
}

type ListFloorsResponse struct {
	Items []*FloorSummary `json:"items"`
}

type CreateFloorRequest struct {
	OrganizationID string
	HotelID        string
	FloorNo        int
	Title          string // defaults to "Floor <n>"
}

type FloorSpec struct {
	FloorNo int
	Title   string
}

type BulkCreateFloorsRequest struct {
	OrganizationID string
	HotelID        string
	Floors         []FloorSpec
	Count          int // used when Floors is empty: floors 1..Count
}

type BulkCreateFloorsResponse struct {
	Items []*domain.Floor `json:"items"`
}

type UpdateFloorRequest struct {
	OrganizationID string
	FloorID        string
	Title          string
}

type FloorResponse struct {
	Floor *domain.Floor
}

type DeleteFloorRequest struct {
	OrganizationID string
	FloorID        string
}

type ListRoomsRequest struct {
	OrganizationID string
	HotelID        string
	FloorID        string // optional
}

// RoomListItem is a room with today's derived statuses.
type RoomListItem struct {
	ID       string        `json:"id"`
	HotelID  string        `json:"hotel"`
	FloorID  string        `json:"floor"`
	RoomNo   string        `json:"room_no"`
	RoomType string        `json:"room_type"`
	Capacity int           `json:"total_beds"`
	Status   string        `json:"status"`
	Details  []BedListItem `json:"details"`
}

type BedListItem struct {
	ID       string `json:"id"`
	BedNo    int    `json:"bed_number"`
	Status   string `json:"status"`
	Override string `json:"override_status,omitempty"`
}

type ListRoomsResponse struct {
	Items []*RoomListItem `json:"items"`
}

type CreateRoomRequest struct {
	OrganizationID string
	FloorID        string
	RoomNo         string
	RoomType       string
	Capacity       *int // sharing rooms only; must match the type otherwise
}

type RoomSpec struct {
	RoomNo   string
	RoomType string
	Capacity *int
}

type BulkCreateRoomsRequest struct {
	OrganizationID string
	FloorID        string
	Rooms          []RoomSpec
}

type BulkCreateRoomsResponse struct {
	Items []*domain.Room `json:"items"`
}

type SetRoomCapacityRequest struct {
	OrganizationID string
	RoomID         string
	Capacity       int
}

type ChangeRoomTypeRequest struct {
	OrganizationID string
	RoomID         string
	RoomType       string
	Capacity       *int // only honoured when the new type is sharing
}

// UpdateRoomRequest changes type and/or capacity in one step.
type UpdateRoomRequest struct {
	OrganizationID string
	RoomID         string
	RoomType       *string
	Capacity       *int
}

type RoomResponse struct {
	Room *domain.Room
}

type DeleteRoomRequest struct {
	OrganizationID string
	RoomID         string
}

type SetBedStatusRequest struct {
	OrganizationID string
	BedID          string
	Status         string // AVAILABLE clears the override
}

type BedResponse struct {
	Bed *domain.Bed
}

type DeleteBedRequest struct {
	OrganizationID string
	BedID          string
}

type UpsertBedTypeRequest struct {
	Name     string
	Capacity int
}

// ============================================
// Hotel
// ============================================

func (s *inventoryService) RegisterHotel(ctx context.Context, req RegisterHotelRequest) (*HotelResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.Validationf("hotel name is required")
	}
	if err := validateWindow(req.AvailableFrom, req.AvailableTo); err != nil {
		return nil, err
	}

	hotel, err := s.repo.UpsertHotel(ctx, &domain.Hotel{
		ID:             strings.TrimSpace(req.HotelID),
		OrganizationID: req.OrganizationID,
		Name:           strings.TrimSpace(req.Name),
		Status:         req.Status,
		AvailableFrom:  dayPtr(req.AvailableFrom),
		AvailableTo:    dayPtr(req.AvailableTo),
	})
	if err != nil {
		logFailure(s.logger, "RegisterHotel failed", err, zap.String("hotel_id", req.HotelID))
		return nil, fmt.Errorf("failed to register hotel: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotel.ID, Action: "hotel.registered"})
	return &HotelResponse{Hotel: hotel}, nil
}

func (s *inventoryService) GetHotel(ctx context.Context, req GetHotelRequest) (*HotelResponse, error) {
	hotel, err := visibleHotel(ctx, s.repo, req.OrganizationID, req.HotelID)
	if err != nil {
		return nil, err
	}
	return &HotelResponse{Hotel: hotel}, nil
}

func (s *inventoryService) SetHotelWindow(ctx context.Context, req SetHotelWindowRequest) (*HotelResponse, error) {
	if err := validateWindow(req.AvailableFrom, req.AvailableTo); err != nil {
		return nil, err
	}
	var hotel *domain.Hotel
	err := s.withHotel(ctx, req.OrganizationID, req.HotelID, func(ctx context.Context, tx repository.HotelTx) error {
		hotel = tx.Hotel()
		hotel.AvailableFrom = dayPtr(req.AvailableFrom)
		hotel.AvailableTo = dayPtr(req.AvailableTo)
		return tx.UpdateHotel(ctx, hotel)
	})
	if err != nil {
		logFailure(s.logger, "SetHotelWindow failed", err, zap.String("hotel_id", req.HotelID))
		return nil, fmt.Errorf("failed to set hotel window: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotel.ID, Action: "hotel.window_changed"})
	return &HotelResponse{Hotel: hotel}, nil
}

// ============================================
// Floor
// ============================================

func (s *inventoryService) ListFloors(ctx context.Context, req ListFloorsRequest) (*ListFloorsResponse, error) {
	if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, req.HotelID); err != nil {
		return nil, err
	}
	floors, err := s.repo.ListFloors(ctx, req.HotelID)
	if err != nil {
		logFailure(s.logger, "ListFloors failed", err, zap.String("hotel_id", req.HotelID))
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}

	items := make([]*FloorSummary, 0, len(floors))
	for _, f := range floors {
		sum := &FloorSummary{
			ID:         f.ID,
			HotelID:    f.HotelID,
			FloorNo:    f.FloorNo,
			Title:      f.Title,
			TotalRooms: len(f.Rooms),
			Rooms:      make([]RoomSummary, 0, len(f.Rooms)),
		}
		for _, r := range f.Rooms {
			sum.TotalBeds += len(r.Beds)
			sum.Rooms = append(sum.Rooms, RoomSummary{ID: r.ID, RoomNo: r.RoomNo, RoomType: r.RoomType, TotalBeds: len(r.Beds)})
		}
		items = append(items, sum)
	}
	return &ListFloorsResponse{Items: items}, nil
}

func (s *inventoryService) CreateFloor(ctx context.Context, req CreateFloorRequest) (*FloorResponse, error) {
	resp, err := s.BulkCreateFloors(ctx, BulkCreateFloorsRequest{
		OrganizationID: req.OrganizationID,
		HotelID:        req.HotelID,
		Floors:         []FloorSpec{{FloorNo: req.FloorNo, Title: req.Title}},
	})
	if err != nil {
		return nil, err
	}
	return &FloorResponse{Floor: resp.Items[0]}, nil
}

// BulkCreateFloors inserts every floor or none.
func (s *inventoryService) BulkCreateFloors(ctx context.Context, req BulkCreateFloorsRequest) (*BulkCreateFloorsResponse, error) {
	specs := req.Floors
	if len(specs) == 0 {
		if req.Count < 1 {
			return nil, domain.Validationf("at least one floor is required")
		}
		for n := 1; n <= req.Count; n++ {
			specs = append(specs, FloorSpec{FloorNo: n})
		}
	}

	floors := make([]*domain.Floor, 0, len(specs))
	seen := make(map[int]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.FloorNo] {
			return nil, fmt.Errorf("%w: floor %d listed twice", domain.ErrDuplicateFloor, spec.FloorNo)
		}
		seen[spec.FloorNo] = true
		title := strings.TrimSpace(spec.Title)
		if title == "" {
			title = domain.DefaultFloorTitle(spec.FloorNo)
		}
		floors = append(floors, &domain.Floor{ID: uuid.NewString(), HotelID: req.HotelID, FloorNo: spec.FloorNo, Title: title})
	}

	err := s.withHotel(ctx, req.OrganizationID, req.HotelID, func(ctx context.Context, tx repository.HotelTx) error {
		for _, f := range floors {
			if err := tx.InsertFloor(ctx, f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "CreateFloor failed", err,
			zap.String("hotel_id", req.HotelID),
			zap.Int("floors", len(floors)),
		)
		return nil, fmt.Errorf("failed to create floors: %w", err)
	}

	for _, f := range floors {
		s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: req.HotelID, FloorID: f.ID, Action: "floor.created"})
	}
	return &BulkCreateFloorsResponse{Items: floors}, nil
}

func (s *inventoryService) UpdateFloor(ctx context.Context, req UpdateFloorRequest) (*FloorResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.Validationf("floor title is required")
	}
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindFloor, req.FloorID)
	if err != nil {
		return nil, err
	}

	var floor *domain.Floor
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		f, err := tx.GetFloor(ctx, req.FloorID)
		if err != nil {
			return err
		}
		f.Title = title
		floor = f
		return tx.UpdateFloor(ctx, f)
	})
	if err != nil {
		logFailure(s.logger, "UpdateFloor failed", err, zap.String("floor_id", req.FloorID))
		return nil, fmt.Errorf("failed to update floor: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, FloorID: floor.ID, Action: "floor.updated"})
	return &FloorResponse{Floor: floor}, nil
}

func (s *inventoryService) DeleteFloor(ctx context.Context, req DeleteFloorRequest) error {
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindFloor, req.FloorID)
	if err != nil {
		return err
	}
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		n, err := tx.CountRooms(ctx, req.FloorID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d rooms on floor", domain.ErrFloorNotEmpty, n)
		}
		return tx.DeleteFloor(ctx, req.FloorID)
	})
	if err != nil {
		logFailure(s.logger, "DeleteFloor failed", err, zap.String("floor_id", req.FloorID))
		return fmt.Errorf("failed to delete floor: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, FloorID: req.FloorID, Action: "floor.deleted"})
	return nil
}

// ============================================
// Room
// ============================================

func (s *inventoryService) ListRooms(ctx context.Context, req ListRoomsRequest) (*ListRoomsResponse, error) {
	if _, err := visibleHotel(ctx, s.repo, req.OrganizationID, req.HotelID); err != nil {
		return nil, err
	}
	today := domain.Day(s.now())
	window := domain.Window{From: today, To: today.AddDate(0, 0, 1)}
	snap, err := s.repo.Snapshot(ctx, req.HotelID, window.Stay())
	if err != nil {
		logFailure(s.logger, "ListRooms failed", err, zap.String("hotel_id", req.HotelID))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	items := []*RoomListItem{}
	for _, f := range snap.Floors {
		if req.FloorID != "" && f.ID != req.FloorID {
			continue
		}
		for _, room := range f.Rooms {
			ra := aggregateRoom(room, snap.Bookings, window.Stay())
			item := &RoomListItem{
				ID:       room.ID,
				HotelID:  room.HotelID,
				FloorID:  room.FloorID,
				RoomNo:   room.RoomNo,
				RoomType: room.RoomType,
				Capacity: room.Capacity,
				Status:   ra.Status,
				Details:  make([]BedListItem, 0, len(room.Beds)),
			}
			for i, b := range room.Beds {
				item.Details = append(item.Details, BedListItem{
					ID:       b.ID,
					BedNo:    b.BedNo,
					Status:   ra.Beds[i].Status,
					Override: string(b.Override),
				})
			}
			items = append(items, item)
		}
	}
	return &ListRoomsResponse{Items: items}, nil
}

func (s *inventoryService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomResponse, error) {
	resp, err := s.BulkCreateRooms(ctx, BulkCreateRoomsRequest{
		OrganizationID: req.OrganizationID,
		FloorID:        req.FloorID,
		Rooms:          []RoomSpec{{RoomNo: req.RoomNo, RoomType: req.RoomType, Capacity: req.Capacity}},
	})
	if err != nil {
		return nil, err
	}
	return &RoomResponse{Room: resp.Items[0]}, nil
}

// BulkCreateRooms inserts every room on the floor or none. Capacity is
// resolved from the type at creation time.
func (s *inventoryService) BulkCreateRooms(ctx context.Context, req BulkCreateRoomsRequest) (*BulkCreateRoomsResponse, error) {
	if len(req.Rooms) == 0 {
		return nil, domain.Validationf("at least one room is required")
	}
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindFloor, req.FloorID)
	if err != nil {
		return nil, err
	}

	rooms := make([]*domain.Room, 0, len(req.Rooms))
	seen := make(map[string]bool, len(req.Rooms))
	for _, spec := range req.Rooms {
		roomNo := strings.TrimSpace(spec.RoomNo)
		if roomNo == "" {
			return nil, domain.Validationf("room number is required")
		}
		if seen[roomNo] {
			return nil, fmt.Errorf("%w: room %s listed twice", domain.ErrDuplicateRoom, roomNo)
		}
		seen[roomNo] = true

		roomType := domain.NormalizeTypeName(spec.RoomType)
		if roomType == "" {
			return nil, domain.Validationf("room type is required")
		}
		capacity, err := s.capacityFor(ctx, roomType, spec.Capacity, 0)
		if err != nil {
			return nil, err
		}
		id := uuid.NewString()
		rooms = append(rooms, &domain.Room{
			ID:       id,
			HotelID:  hotelID,
			FloorID:  req.FloorID,
			RoomNo:   roomNo,
			RoomType: roomType,
			Capacity: capacity,
			Beds:     RegenerateBeds(nil, id, capacity),
		})
	}

	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		for _, r := range rooms {
			if err := tx.InsertRoom(ctx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "CreateRoom failed", err,
			zap.String("hotel_id", hotelID),
			zap.String("floor_id", req.FloorID),
			zap.Int("rooms", len(rooms)),
		)
		return nil, fmt.Errorf("failed to create rooms: %w", err)
	}

	for _, r := range rooms {
		s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, FloorID: r.FloorID, RoomID: r.ID, Action: "room.created"})
	}
	return &BulkCreateRoomsResponse{Items: rooms}, nil
}

func (s *inventoryService) SetRoomCapacity(ctx context.Context, req SetRoomCapacityRequest) (*RoomResponse, error) {
	capacity := req.Capacity
	return s.UpdateRoom(ctx, UpdateRoomRequest{OrganizationID: req.OrganizationID, RoomID: req.RoomID, Capacity: &capacity})
}

func (s *inventoryService) ChangeRoomType(ctx context.Context, req ChangeRoomTypeRequest) (*RoomResponse, error) {
	roomType := req.RoomType
	return s.UpdateRoom(ctx, UpdateRoomRequest{OrganizationID: req.OrganizationID, RoomID: req.RoomID, RoomType: &roomType, Capacity: req.Capacity})
}

// UpdateRoom re-derives capacity from the (new) type and regenerates the
// bed list. Only sharing rooms take an explicit capacity.
func (s *inventoryService) UpdateRoom(ctx context.Context, req UpdateRoomRequest) (*RoomResponse, error) {
	if req.RoomType == nil && req.Capacity == nil {
		return nil, domain.Validationf("room_type or total_beds is required")
	}
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindRoom, req.RoomID)
	if err != nil {
		return nil, err
	}

	var room *domain.Room
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		current, err := tx.GetRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		roomType := current.RoomType
		if req.RoomType != nil {
			roomType = domain.NormalizeTypeName(*req.RoomType)
			if roomType == "" {
				return domain.Validationf("room type is required")
			}
		}
		if req.RoomType == nil && !s.resolver.IsSharing(roomType) {
			return fmt.Errorf("%w: room %s is %s", domain.ErrCapacityLocked, current.RoomNo, roomType)
		}
		capacity, err := s.capacityFor(ctx, roomType, req.Capacity, len(current.Beds))
		if err != nil {
			return err
		}

		beds := RegenerateBeds(current.Beds, current.ID, capacity)
		if err := s.checkRemovedBeds(ctx, tx, current, beds); err != nil {
			return err
		}
		current.RoomType = roomType
		current.Capacity = capacity
		current.Beds = beds
		room = current
		return tx.SaveRoom(ctx, current)
	})
	if err != nil {
		logFailure(s.logger, "UpdateRoom failed", err, zap.String("room_id", req.RoomID))
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, FloorID: room.FloorID, RoomID: room.ID, Action: "room.updated"})
	return &RoomResponse{Room: room}, nil
}

func (s *inventoryService) DeleteRoom(ctx context.Context, req DeleteRoomRequest) error {
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindRoom, req.RoomID)
	if err != nil {
		return err
	}
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		bookings, err := tx.RoomBookings(ctx, req.RoomID)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if b.Active() {
				return fmt.Errorf("%w: room has booking %s", domain.ErrResourceInUse, b.ID)
			}
		}
		return tx.DeleteRoom(ctx, req.RoomID)
	})
	if err != nil {
		logFailure(s.logger, "DeleteRoom failed", err, zap.String("room_id", req.RoomID))
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, RoomID: req.RoomID, Action: "room.deleted"})
	return nil
}

// ============================================
// Bed
// ============================================

func (s *inventoryService) SetBedStatus(ctx context.Context, req SetBedStatusRequest) (*BedResponse, error) {
	override, err := domain.ParseOverride(req.Status)
	if err != nil {
		return nil, err
	}
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindBed, req.BedID)
	if err != nil {
		return nil, err
	}

	var bed *domain.Bed
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		if err := tx.UpdateBedOverride(ctx, req.BedID, override); err != nil {
			return err
		}
		b, err := tx.GetBed(ctx, req.BedID)
		if err != nil {
			return err
		}
		bed = b
		return nil
	})
	if err != nil {
		logFailure(s.logger, "SetBedStatus failed", err, zap.String("bed_id", req.BedID))
		return nil, fmt.Errorf("failed to set bed status: %w", err)
	}

	status := string(override)
	if status == "" {
		status = string(domain.BedAvailable)
	}
	s.notifier.committed(ctx, events.Event{Type: events.BedStatusChanged, HotelID: hotelID, RoomID: bed.RoomID, BedID: bed.ID, Status: status})
	return &BedResponse{Bed: bed}, nil
}

// DeleteBed removes one bed from a sharing room and lowers its capacity.
func (s *inventoryService) DeleteBed(ctx context.Context, req DeleteBedRequest) error {
	hotelID, err := s.repo.HotelIDOf(ctx, repository.KindBed, req.BedID)
	if err != nil {
		return err
	}

	var roomID string
	err = s.withHotel(ctx, req.OrganizationID, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		bed, err := tx.GetBed(ctx, req.BedID)
		if err != nil {
			return err
		}
		room, err := tx.GetRoom(ctx, bed.RoomID)
		if err != nil {
			return err
		}
		roomID = room.ID
		if !s.resolver.IsSharing(room.RoomType) {
			return fmt.Errorf("%w: room %s is %s", domain.ErrCapacityLocked, room.RoomNo, room.RoomType)
		}
		if len(room.Beds) <= 1 {
			return domain.Validationf("room %s must keep at least one bed", room.RoomNo)
		}

		beds := make([]*domain.Bed, 0, len(room.Beds)-1)
		for _, b := range room.Beds {
			if b.ID != req.BedID {
				beds = append(beds, b)
			}
		}
		if err := s.checkRemovedBeds(ctx, tx, room, beds); err != nil {
			return err
		}
		room.Beds = beds
		room.Capacity = len(beds)
		return tx.SaveRoom(ctx, room)
	})
	if err != nil {
		logFailure(s.logger, "DeleteBed failed", err, zap.String("bed_id", req.BedID))
		return fmt.Errorf("failed to delete bed: %w", err)
	}
	s.notifier.committed(ctx, events.Event{Type: events.InventoryChanged, HotelID: hotelID, RoomID: roomID, BedID: req.BedID, Action: "bed.deleted"})
	return nil
}

// ============================================
// Bed types
// ============================================

func (s *inventoryService) ListBedTypes(ctx context.Context) ([]*domain.BedType, error) {
	return s.resolver.ListBedTypes(ctx)
}

func (s *inventoryService) UpsertBedType(ctx context.Context, req UpsertBedTypeRequest) (*domain.BedType, error) {
	bt, err := s.resolver.UpsertBedType(ctx, &domain.BedType{Name: domain.NormalizeTypeName(req.Name), Capacity: req.Capacity})
	if err != nil {
		logFailure(s.logger, "UpsertBedType failed", err, zap.String("name", req.Name))
		return nil, fmt.Errorf("failed to save bed type: %w", err)
	}
	return bt, nil
}

// ============================================
// helpers
// ============================================

// withHotel runs fn in the hotel's write unit after checking that the
// caller's organization may see the hotel.
func (s *inventoryService) withHotel(ctx context.Context, organizationID, hotelID string, fn func(ctx context.Context, tx repository.HotelTx) error) error {
	return withVisibleHotel(ctx, s.repo, organizationID, hotelID, fn)
}

// capacityFor picks the capacity of a room of roomType. Sharing rooms take
// the requested value, else keep current, else fall back to the type's
// default. Other types always use the reference list.
func (s *inventoryService) capacityFor(ctx context.Context, roomType string, requested *int, current int) (int, error) {
	if s.resolver.IsSharing(roomType) {
		switch {
		case requested != nil:
			if *requested < 1 {
				return 0, domain.Validationf("capacity must be at least 1")
			}
			return *requested, nil
		case current > 0:
			return current, nil
		}
		return s.resolver.ResolveOrDefault(ctx, roomType)
	}

	capacity, err := s.resolver.ResolveOrDefault(ctx, roomType)
	if err != nil {
		return 0, err
	}
	if requested != nil && *requested != capacity {
		return 0, fmt.Errorf("%w: %s rooms have %d beds", domain.ErrCapacityLocked, roomType, capacity)
	}
	return capacity, nil
}

// checkRemovedBeds rejects dropping beds that active bookings still use.
func (s *inventoryService) checkRemovedBeds(ctx context.Context, tx repository.HotelTx, room *domain.Room, kept []*domain.Bed) error {
	keep := make(map[string]bool, len(kept))
	for _, b := range kept {
		keep[b.ID] = true
	}
	var removed []string
	for _, b := range room.Beds {
		if !keep[b.ID] {
			removed = append(removed, b.ID)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	bookings, err := tx.RoomBookings(ctx, room.ID)
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		// a whole-room booking holds every bed
		for _, bedID := range removed {
			if b.Covers(bedID) {
				return fmt.Errorf("%w: bed %s has booking %s", domain.ErrResourceInUse, bedID, b.ID)
			}
		}
	}
	return nil
}

func visibleHotel(ctx context.Context, repo repository.InventoryRepository, organizationID, hotelID string) (*domain.Hotel, error) {
	if hotelID == "" {
		return nil, domain.Validationf("hotel id is required")
	}
	hotel, err := repo.GetHotel(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	if !hotel.VisibleTo(organizationID) {
		return nil, domain.NotFoundf("hotel %s", hotelID)
	}
	return hotel, nil
}

func withVisibleHotel(ctx context.Context, repo repository.InventoryRepository, organizationID, hotelID string, fn func(ctx context.Context, tx repository.HotelTx) error) error {
	if hotelID == "" {
		return domain.Validationf("hotel id is required")
	}
	return repo.WithHotelTx(ctx, hotelID, func(ctx context.Context, tx repository.HotelTx) error {
		if !tx.Hotel().VisibleTo(organizationID) {
			return domain.NotFoundf("hotel %s", hotelID)
		}
		return fn(ctx, tx)
	})
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && domain.Day(*to).Before(domain.Day(*from)) {
		return fmt.Errorf("%w: available_to before available_from", domain.ErrInvalidRange)
	}
	return nil
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := domain.Day(*t)
	return &d
}
