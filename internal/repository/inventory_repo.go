package repository

import (
	"context"
	"time"

	"owl-hotel/internal/domain"
)

// ResourceKind names the child resources that can be resolved back to
// their hotel.
type ResourceKind string

const (
	KindFloor   ResourceKind = "floor"
	KindRoom    ResourceKind = "room"
	KindBed     ResourceKind = "bed"
	KindBooking ResourceKind = "booking"
)

// FloorWithRooms is a floor together with its rooms (beds included),
// ordered by room number.
type FloorWithRooms struct {
	*domain.Floor
	Rooms []*domain.Room
}

// HotelSnapshot is a consistent read of one hotel: the whole hierarchy
// plus every non-cancelled booking whose stay intersects the requested range.
type HotelSnapshot struct {
	Hotel    *domain.Hotel
	Floors   []*FloorWithRooms
	Bookings []*domain.Booking
}

// BookingFilter narrows ListBookings. Zero values mean "any".
type BookingFilter struct {
	HotelID        string
	RoomID         string
	BedID          string
	Status         domain.BookingStatus
	CheckoutBefore time.Time // checkout <= CheckoutBefore
}

// InventoryRepository stores the Hotel -> Floor -> Room -> Bed hierarchy
// and its bookings. Reads see committed state only; all writes go
// through WithHotelTx, which serializes writers per hotel.
type InventoryRepository interface {
	UpsertHotel(ctx context.Context, hotel *domain.Hotel) (*domain.Hotel, error)
	GetHotel(ctx context.Context, hotelID string) (*domain.Hotel, error)

	ListFloors(ctx context.Context, hotelID string) ([]*FloorWithRooms, error)
	ListRooms(ctx context.Context, hotelID string) ([]*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)

	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter, page, size int) ([]*domain.Booking, int, error)
	// RoomBookings returns the non-cancelled bookings of a room, by checkin.
	RoomBookings(ctx context.Context, roomID string) ([]*domain.Booking, error)

	Snapshot(ctx context.Context, hotelID string, stay domain.Stay) (*HotelSnapshot, error)

	// HotelIDOf resolves a floor/room/bed/booking id to its hotel.
	HotelIDOf(ctx context.Context, kind ResourceKind, id string) (string, error)

	// WithHotelTx runs fn as one atomic unit against hotelID. Nothing fn
	// wrote is visible if it returns an error or ctx is cancelled.
	WithHotelTx(ctx context.Context, hotelID string, fn func(ctx context.Context, tx HotelTx) error) error
}

// HotelTx is the write view of a single hotel inside WithHotelTx.
// Lookups are scoped to the hotel: ids of other hotels report ErrNotFound.
type HotelTx interface {
	Hotel() *domain.Hotel
	UpdateHotel(ctx context.Context, hotel *domain.Hotel) error

	GetFloor(ctx context.Context, floorID string) (*domain.Floor, error)
	InsertFloor(ctx context.Context, floor *domain.Floor) error
	UpdateFloor(ctx context.Context, floor *domain.Floor) error
	DeleteFloor(ctx context.Context, floorID string) error
	CountRooms(ctx context.Context, floorID string) (int, error)

	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	// InsertRoom stores the room and its beds.
	InsertRoom(ctx context.Context, room *domain.Room) error
	// SaveRoom persists type/capacity and reconciles beds to room.Beds:
	// missing beds are deleted, unknown ones inserted.
	SaveRoom(ctx context.Context, room *domain.Room) error
	DeleteRoom(ctx context.Context, roomID string) error

	GetBed(ctx context.Context, bedID string) (*domain.Bed, error)
	UpdateBedOverride(ctx context.Context, bedID string, status domain.BedStatus) error

	RoomBookings(ctx context.Context, roomID string) ([]*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	BookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	InsertBooking(ctx context.Context, booking *domain.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, at time.Time) error
}

// BedTypesRepository stores the bed type reference list.
type BedTypesRepository interface {
	ListBedTypes(ctx context.Context) ([]*domain.BedType, error)
	GetBedType(ctx context.Context, name string) (*domain.BedType, error)
	UpsertBedType(ctx context.Context, bt *domain.BedType) error
}
