package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"owl-hotel/internal/domain"

	"github.com/google/uuid"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type PostgresInventoryRepository struct {
	db *sql.DB
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

const hotelColumns = `hotel_id, organization_id, name, status, available_from, available_to`

const bookingColumns = `booking_id::text, hotel_id, room_id::text, COALESCE(bed_id::text, ''), COALESCE(bed_no, 0),
	guest_name, guest_count, checkin, checkout, status, COALESCE(idempotency_key, ''), created_at, updated_at`

const roomSelect = `
	SELECT r.room_id::text, r.hotel_id, r.floor_id::text, f.floor_no, r.room_no, r.room_type, r.capacity,
	       b.bed_id::text, b.bed_no, COALESCE(b.status, '')
	FROM hotel_rooms r
	JOIN hotel_floors f ON f.floor_id = r.floor_id
	LEFT JOIN hotel_beds b ON b.room_id = r.room_id`

// ============================================
// Hotel
// ============================================

func (r *PostgresInventoryRepository) UpsertHotel(ctx context.Context, hotel *domain.Hotel) (*domain.Hotel, error) {
	if hotel == nil || hotel.Name == "" {
		return nil, domain.Validationf("hotel name is required")
	}
	h := hotel.Clone()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.Status == "" {
		h.Status = domain.HotelStatusActive
	}

	row := r.db.QueryRowContext(ctx,
		`INSERT INTO hotels (`+hotelColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (hotel_id)
		 DO UPDATE SET organization_id = EXCLUDED.organization_id,
		               name = EXCLUDED.name,
		               status = EXCLUDED.status,
		               available_from = EXCLUDED.available_from,
		               available_to = EXCLUDED.available_to,
		               updated_at = CURRENT_TIMESTAMP
		 RETURNING `+hotelColumns,
		h.ID, h.OrganizationID, h.Name, h.Status, nullDate(h.AvailableFrom), nullDate(h.AvailableTo),
	)
	out, err := scanHotel(row)
	if err != nil {
		return nil, translateErr("upsert hotel", err)
	}
	return out, nil
}

func (r *PostgresInventoryRepository) GetHotel(ctx context.Context, hotelID string) (*domain.Hotel, error) {
	return getHotel(ctx, r.db, hotelID, false)
}

func getHotel(ctx context.Context, q queryer, hotelID string, forUpdate bool) (*domain.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels WHERE hotel_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	h, err := scanHotel(q.QueryRowContext(ctx, query, hotelID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("hotel %s", hotelID)
	}
	if err != nil {
		return nil, translateErr("get hotel", err)
	}
	return h, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHotel(row rowScanner) (*domain.Hotel, error) {
	var h domain.Hotel
	var from, to sql.NullTime
	if err := row.Scan(&h.ID, &h.OrganizationID, &h.Name, &h.Status, &from, &to); err != nil {
		return nil, err
	}
	if from.Valid {
		d := domain.Day(from.Time)
		h.AvailableFrom = &d
	}
	if to.Valid {
		d := domain.Day(to.Time)
		h.AvailableTo = &d
	}
	return &h, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: domain.Day(*t), Valid: true}
}

// ============================================
// Floors / Rooms
// ============================================

func (r *PostgresInventoryRepository) ListFloors(ctx context.Context, hotelID string) ([]*FloorWithRooms, error) {
	if _, err := r.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	return listFloors(ctx, r.db, hotelID)
}

func listFloors(ctx context.Context, q queryer, hotelID string) ([]*FloorWithRooms, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT floor_id::text, hotel_id, floor_no, title
		 FROM hotel_floors
		 WHERE hotel_id = $1
		 ORDER BY floor_no`,
		hotelID,
	)
	if err != nil {
		return nil, translateErr("list floors", err)
	}
	defer rows.Close()

	var floors []*FloorWithRooms
	byID := map[string]*FloorWithRooms{}
	for rows.Next() {
		var f domain.Floor
		if err := rows.Scan(&f.ID, &f.HotelID, &f.FloorNo, &f.Title); err != nil {
			return nil, translateErr("scan floor", err)
		}
		fw := &FloorWithRooms{Floor: &f, Rooms: []*domain.Room{}}
		floors = append(floors, fw)
		byID[f.ID] = fw
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list floors", err)
	}

	rooms, err := queryRooms(ctx, q, "r.hotel_id = $1", hotelID)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if fw, ok := byID[room.FloorID]; ok {
			fw.Rooms = append(fw.Rooms, room)
		}
	}
	if floors == nil {
		floors = []*FloorWithRooms{}
	}
	return floors, nil
}

func (r *PostgresInventoryRepository) ListRooms(ctx context.Context, hotelID string) ([]*domain.Room, error) {
	if _, err := r.GetHotel(ctx, hotelID); err != nil {
		return nil, err
	}
	return queryRooms(ctx, r.db, "r.hotel_id = $1", hotelID)
}

func (r *PostgresInventoryRepository) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return getRoom(ctx, r.db, roomID, "")
}

func getRoom(ctx context.Context, q queryer, roomID, hotelID string) (*domain.Room, error) {
	where := "r.room_id::text = $1"
	args := []any{roomID}
	if hotelID != "" {
		where += " AND r.hotel_id = $2"
		args = append(args, hotelID)
	}
	rooms, err := queryRooms(ctx, q, where, args...)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, domain.NotFoundf("room %s", roomID)
	}
	return rooms[0], nil
}

// queryRooms loads rooms with their beds, ordered by floor number,
// room number, bed number.
func queryRooms(ctx context.Context, q queryer, where string, args ...any) ([]*domain.Room, error) {
	rows, err := q.QueryContext(ctx, roomSelect+` WHERE `+where+` ORDER BY f.floor_no, r.room_no, b.bed_no`, args...)
	if err != nil {
		return nil, translateErr("list rooms", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	floorNo := map[string]int{}
	byID := map[string]*domain.Room{}
	for rows.Next() {
		var (
			room    domain.Room
			fno     int
			bedID   sql.NullString
			bedNo   sql.NullInt64
			bedStat string
		)
		if err := rows.Scan(&room.ID, &room.HotelID, &room.FloorID, &fno, &room.RoomNo, &room.RoomType, &room.Capacity,
			&bedID, &bedNo, &bedStat); err != nil {
			return nil, translateErr("scan room", err)
		}
		cur, ok := byID[room.ID]
		if !ok {
			room.Beds = []*domain.Bed{}
			cur = &room
			byID[room.ID] = cur
			floorNo[room.ID] = fno
			rooms = append(rooms, cur)
		}
		if bedID.Valid {
			cur.Beds = append(cur.Beds, &domain.Bed{
				ID:       bedID.String,
				RoomID:   cur.ID,
				BedNo:    int(bedNo.Int64),
				Override: domain.BedStatus(bedStat),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list rooms", err)
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		fi, fj := floorNo[rooms[i].ID], floorNo[rooms[j].ID]
		if fi != fj {
			return fi < fj
		}
		return lessRoomNo(rooms[i].RoomNo, rooms[j].RoomNo)
	})
	if rooms == nil {
		rooms = []*domain.Room{}
	}
	return rooms, nil
}

// ============================================
// Bookings
// ============================================

func (r *PostgresInventoryRepository) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return getBooking(ctx, r.db, "booking_id::text = $1", bookingID)
}

func getBooking(ctx context.Context, q queryer, where string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM hotel_bookings WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("booking %v", args[len(args)-1])
	}
	if err != nil {
		return nil, translateErr("get booking", err)
	}
	return b, nil
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	if err := row.Scan(&b.ID, &b.HotelID, &b.RoomID, &b.BedID, &b.BedNo,
		&b.GuestName, &b.GuestCount, &b.Checkin, &b.Checkout, &status, &b.IdempotencyKey,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.Checkin = domain.Day(b.Checkin)
	b.Checkout = domain.Day(b.Checkout)
	return &b, nil
}

func queryBookings(ctx context.Context, q queryer, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateErr("list bookings", err)
	}
	defer rows.Close()

	out := []*domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, translateErr("scan booking", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr("list bookings", err)
	}
	return out, nil
}

func (r *PostgresInventoryRepository) ListBookings(ctx context.Context, filter BookingFilter, page, size int) ([]*domain.Booking, int, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.HotelID != "" {
		add("hotel_id = $%d", filter.HotelID)
	}
	if filter.RoomID != "" {
		add("room_id::text = $%d", filter.RoomID)
	}
	if filter.BedID != "" {
		add("bed_id::text = $%d", filter.BedID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.CheckoutBefore.IsZero() {
		add("checkout <= $%d", domain.Day(filter.CheckoutBefore))
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hotel_bookings WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, translateErr("count bookings", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM hotel_bookings WHERE ` + where + ` ORDER BY checkin, booking_id`
	if size > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}
	items, err := queryBookings(ctx, r.db, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresInventoryRepository) RoomBookings(ctx context.Context, roomID string) ([]*domain.Booking, error) {
	return roomBookings(ctx, r.db, roomID)
}

func roomBookings(ctx context.Context, q queryer, roomID string) ([]*domain.Booking, error) {
	return queryBookings(ctx, q,
		`SELECT `+bookingColumns+`
		 FROM hotel_bookings
		 WHERE room_id::text = $1 AND status <> 'CANCELLED'
		 ORDER BY checkin, booking_id`,
		roomID,
	)
}

// ============================================
// Snapshot / lookups
// ============================================

// Snapshot reads the hierarchy and intersecting bookings inside one
// REPEATABLE READ transaction so they come from the same point in time.
func (r *PostgresInventoryRepository) Snapshot(ctx context.Context, hotelID string, stay domain.Stay) (*HotelSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, translateErr("begin snapshot", err)
	}
	defer tx.Rollback()

	hotel, err := getHotel(ctx, tx, hotelID, false)
	if err != nil {
		return nil, err
	}
	floors, err := listFloors(ctx, tx, hotelID)
	if err != nil {
		return nil, err
	}
	bookings, err := queryBookings(ctx, tx,
		`SELECT `+bookingColumns+`
		 FROM hotel_bookings
		 WHERE hotel_id = $1 AND status <> 'CANCELLED' AND checkin < $3 AND checkout > $2
		 ORDER BY checkin, booking_id`,
		hotelID, stay.Checkin, stay.Checkout,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, translateErr("commit snapshot", err)
	}
	return &HotelSnapshot{Hotel: hotel, Floors: floors, Bookings: bookings}, nil
}

func (r *PostgresInventoryRepository) HotelIDOf(ctx context.Context, kind ResourceKind, id string) (string, error) {
	var query string
	switch kind {
	case KindFloor:
		query = `SELECT hotel_id FROM hotel_floors WHERE floor_id::text = $1`
	case KindRoom:
		query = `SELECT hotel_id FROM hotel_rooms WHERE room_id::text = $1`
	case KindBed:
		query = `SELECT r.hotel_id FROM hotel_beds b JOIN hotel_rooms r ON r.room_id = b.room_id WHERE b.bed_id::text = $1`
	case KindBooking:
		query = `SELECT hotel_id FROM hotel_bookings WHERE booking_id::text = $1`
	default:
		return "", domain.Validationf("unknown resource kind %q", kind)
	}
	var hotelID string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&hotelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NotFoundf("%s %s", kind, id)
	}
	if err != nil {
		return "", translateErr("resolve "+string(kind), err)
	}
	return hotelID, nil
}

// WithHotelTx locks the hotel row FOR UPDATE, which serializes writers
// of the same hotel, and commits only if fn succeeds.
func (r *PostgresInventoryRepository) WithHotelTx(ctx context.Context, hotelID string, fn func(ctx context.Context, tx HotelTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr("begin", err)
	}
	defer tx.Rollback()

	hotel, err := getHotel(ctx, tx, hotelID, true)
	if err != nil {
		return err
	}
	if err := fn(ctx, &postgresHotelTx{tx: tx, hotel: hotel}); err != nil {
		return translateErr("hotel tx", err)
	}
	if err := tx.Commit(); err != nil {
		return translateErr("commit", err)
	}
	return nil
}
