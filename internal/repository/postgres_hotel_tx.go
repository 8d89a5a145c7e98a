package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"owl-hotel/internal/domain"

	"github.com/lib/pq"
)

// postgresHotelTx runs inside WithHotelTx; every statement is scoped to
// the locked hotel.
type postgresHotelTx struct {
	tx    *sql.Tx
	hotel *domain.Hotel
}

func (t *postgresHotelTx) Hotel() *domain.Hotel { return t.hotel.Clone() }

func (t *postgresHotelTx) UpdateHotel(ctx context.Context, hotel *domain.Hotel) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE hotels
		 SET organization_id = $2, name = $3, status = $4, available_from = $5, available_to = $6,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE hotel_id = $1`,
		t.hotel.ID, hotel.OrganizationID, hotel.Name, hotel.Status, nullDate(hotel.AvailableFrom), nullDate(hotel.AvailableTo),
	)
	if err != nil {
		return translateErr("update hotel", err)
	}
	id := t.hotel.ID
	t.hotel = hotel.Clone()
	t.hotel.ID = id
	return nil
}

// ---- floors ----

func (t *postgresHotelTx) GetFloor(ctx context.Context, floorID string) (*domain.Floor, error) {
	var f domain.Floor
	err := t.tx.QueryRowContext(ctx,
		`SELECT floor_id::text, hotel_id, floor_no, title
		 FROM hotel_floors
		 WHERE floor_id::text = $1 AND hotel_id = $2`,
		floorID, t.hotel.ID,
	).Scan(&f.ID, &f.HotelID, &f.FloorNo, &f.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("floor %s", floorID)
	}
	if err != nil {
		return nil, translateErr("get floor", err)
	}
	return &f, nil
}

func (t *postgresHotelTx) InsertFloor(ctx context.Context, floor *domain.Floor) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO hotel_floors (floor_id, hotel_id, floor_no, title) VALUES ($1, $2, $3, $4)`,
		floor.ID, t.hotel.ID, floor.FloorNo, floor.Title,
	)
	return translateErr("insert floor", err)
}

func (t *postgresHotelTx) UpdateFloor(ctx context.Context, floor *domain.Floor) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hotel_floors SET floor_no = $3, title = $4 WHERE floor_id::text = $1 AND hotel_id = $2`,
		floor.ID, t.hotel.ID, floor.FloorNo, floor.Title,
	)
	return affectedOne("update floor", "floor", floor.ID, res, err)
}

func (t *postgresHotelTx) DeleteFloor(ctx context.Context, floorID string) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM hotel_floors WHERE floor_id::text = $1 AND hotel_id = $2`,
		floorID, t.hotel.ID,
	)
	return affectedOne("delete floor", "floor", floorID, res, err)
}

func (t *postgresHotelTx) CountRooms(ctx context.Context, floorID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hotel_rooms WHERE floor_id::text = $1`,
		floorID,
	).Scan(&n)
	if err != nil {
		return 0, translateErr("count rooms", err)
	}
	return n, nil
}

// ---- rooms / beds ----

func (t *postgresHotelTx) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return getRoom(ctx, t.tx, roomID, t.hotel.ID)
}

func (t *postgresHotelTx) InsertRoom(ctx context.Context, room *domain.Room) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO hotel_rooms (room_id, hotel_id, floor_id, room_no, room_type, capacity)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		room.ID, t.hotel.ID, room.FloorID, room.RoomNo, room.RoomType, room.Capacity,
	)
	if err != nil {
		return translateErr("insert room", err)
	}
	return t.insertBeds(ctx, room.ID, room.Beds)
}

func (t *postgresHotelTx) insertBeds(ctx context.Context, roomID string, beds []*domain.Bed) error {
	for _, b := range beds {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO hotel_beds (bed_id, room_id, bed_no, status)
			 VALUES ($1, $2, $3, NULLIF($4, ''))
			 ON CONFLICT (bed_id) DO NOTHING`,
			b.ID, roomID, b.BedNo, string(b.Override),
		)
		if err != nil {
			return translateErr("insert bed", err)
		}
	}
	return nil
}

func (t *postgresHotelTx) SaveRoom(ctx context.Context, room *domain.Room) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hotel_rooms SET room_no = $3, room_type = $4, capacity = $5 WHERE room_id::text = $1 AND hotel_id = $2`,
		room.ID, t.hotel.ID, room.RoomNo, room.RoomType, room.Capacity,
	)
	if err := affectedOne("update room", "room", room.ID, res, err); err != nil {
		return err
	}

	keep := make([]string, 0, len(room.Beds))
	for _, b := range room.Beds {
		keep = append(keep, b.ID)
	}
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM hotel_beds WHERE room_id::text = $1 AND NOT (bed_id::text = ANY($2))`,
		room.ID, pq.Array(keep),
	); err != nil {
		return translateErr("trim beds", err)
	}
	return t.insertBeds(ctx, room.ID, room.Beds)
}

func (t *postgresHotelTx) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM hotel_rooms WHERE room_id::text = $1 AND hotel_id = $2`,
		roomID, t.hotel.ID,
	)
	return affectedOne("delete room", "room", roomID, res, err)
}

func (t *postgresHotelTx) GetBed(ctx context.Context, bedID string) (*domain.Bed, error) {
	var b domain.Bed
	var status string
	err := t.tx.QueryRowContext(ctx,
		`SELECT b.bed_id::text, b.room_id::text, b.bed_no, COALESCE(b.status, '')
		 FROM hotel_beds b
		 JOIN hotel_rooms r ON r.room_id = b.room_id
		 WHERE b.bed_id::text = $1 AND r.hotel_id = $2`,
		bedID, t.hotel.ID,
	).Scan(&b.ID, &b.RoomID, &b.BedNo, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("bed %s", bedID)
	}
	if err != nil {
		return nil, translateErr("get bed", err)
	}
	b.Override = domain.BedStatus(status)
	return &b, nil
}

func (t *postgresHotelTx) UpdateBedOverride(ctx context.Context, bedID string, status domain.BedStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hotel_beds SET status = NULLIF($2, '') WHERE bed_id::text = $1`,
		bedID, string(status),
	)
	return affectedOne("update bed", "bed", bedID, res, err)
}

// ---- bookings ----

func (t *postgresHotelTx) RoomBookings(ctx context.Context, roomID string) ([]*domain.Booking, error) {
	return roomBookings(ctx, t.tx, roomID)
}

func (t *postgresHotelTx) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return getBooking(ctx, t.tx, "hotel_id = $1 AND booking_id::text = $2", t.hotel.ID, bookingID)
}

func (t *postgresHotelTx) BookingByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	return getBooking(ctx, t.tx, "hotel_id = $1 AND idempotency_key = $2", t.hotel.ID, key)
}

func (t *postgresHotelTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO hotel_bookings (booking_id, hotel_id, room_id, bed_id, bed_no, guest_name, guest_count,
		                             checkin, checkout, status, idempotency_key, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, 0), $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13)`,
		b.ID, t.hotel.ID, b.RoomID, b.BedID, b.BedNo, b.GuestName, b.GuestCount,
		b.Checkin, b.Checkout, string(b.Status), b.IdempotencyKey, b.CreatedAt, b.UpdatedAt,
	)
	if err == nil {
		return nil
	}
	err = translateErr("insert booking", err)
	if errors.Is(err, domain.ErrBookingConflict) {
		return &domain.BookingConflictError{RoomID: b.RoomID, BedID: b.BedID, Checkin: b.Checkin, Checkout: b.Checkout}
	}
	return err
}

func (t *postgresHotelTx) UpdateBookingStatus(ctx context.Context, bookingID string, status domain.BookingStatus, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE hotel_bookings SET status = $3, updated_at = $4 WHERE hotel_id = $1 AND booking_id::text = $2`,
		t.hotel.ID, bookingID, string(status), at,
	)
	return affectedOne("update booking", "booking", bookingID, res, err)
}

func affectedOne(op, kind, id string, res sql.Result, err error) error {
	if err != nil {
		return translateErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translateErr(op, err)
	}
	if n == 0 {
		return domain.NotFoundf("%s %s", kind, id)
	}
	return nil
}
