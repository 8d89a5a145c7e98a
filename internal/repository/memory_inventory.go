package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"owl-hotel/internal/domain"

	"github.com/google/uuid"
)

// MemoryInventoryRepo is the store used when no database is configured.
//   - one arena per hotel, maps keyed by stable ids
//   - committed arenas are never mutated: a writer clones, edits the
//     clone and swaps it in on success, so readers always see a
//     consistent hotel
//   - writers are serialized by a per-hotel mutex
type MemoryInventoryRepo struct {
	mu      sync.RWMutex
	arenas  map[string]*hotelArena             // hotelID -> committed arena
	writers map[string]*sync.Mutex             // hotelID -> writer lock
	owners  map[ResourceKind]map[string]string // kind -> id -> hotelID
}

type hotelArena struct {
	hotel    *domain.Hotel
	floors   map[string]*domain.Floor
	rooms    map[string]*domain.Room
	bedRoom  map[string]string // bedID -> roomID
	bookings map[string]*domain.Booking
}

func NewMemoryInventoryRepo() *MemoryInventoryRepo {
	return &MemoryInventoryRepo{
		arenas:  map[string]*hotelArena{},
		writers: map[string]*sync.Mutex{},
		owners: map[ResourceKind]map[string]string{
			KindFloor:   {},
			KindRoom:    {},
			KindBed:     {},
			KindBooking: {},
		},
	}
}

func newHotelArena(h *domain.Hotel) *hotelArena {
	return &hotelArena{
		hotel:    h,
		floors:   map[string]*domain.Floor{},
		rooms:    map[string]*domain.Room{},
		bedRoom:  map[string]string{},
		bookings: map[string]*domain.Booking{},
	}
}

func (a *hotelArena) clone() *hotelArena {
	c := newHotelArena(a.hotel.Clone())
	for id, f := range a.floors {
		fc := *f
		c.floors[id] = &fc
	}
	for id, r := range a.rooms {
		c.rooms[id] = r.Clone()
	}
	for id, roomID := range a.bedRoom {
		c.bedRoom[id] = roomID
	}
	for id, b := range a.bookings {
		c.bookings[id] = b.Clone()
	}
	return c
}

func (a *hotelArena) ids() map[ResourceKind][]string {
	out := map[ResourceKind][]string{}
	for id := range a.floors {
		out[KindFloor] = append(out[KindFloor], id)
	}
	for id := range a.rooms {
		out[KindRoom] = append(out[KindRoom], id)
	}
	for id := range a.bedRoom {
		out[KindBed] = append(out[KindBed], id)
	}
	for id := range a.bookings {
		out[KindBooking] = append(out[KindBooking], id)
	}
	return out
}

func (a *hotelArena) sortedFloors() []*FloorWithRooms {
	byFloor := map[string][]*domain.Room{}
	for _, r := range a.rooms {
		byFloor[r.FloorID] = append(byFloor[r.FloorID], r.Clone())
	}
	out := make([]*FloorWithRooms, 0, len(a.floors))
	for _, f := range a.floors {
		fc := *f
		rooms := byFloor[f.ID]
		sortRooms(rooms)
		if rooms == nil {
			rooms = []*domain.Room{}
		}
		out = append(out, &FloorWithRooms{Floor: &fc, Rooms: rooms})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FloorNo < out[j].FloorNo })
	return out
}

// ---- reads ----

func (r *MemoryInventoryRepo) arena(hotelID string) *hotelArena {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.arenas[hotelID]
}

func (r *MemoryInventoryRepo) arenaOf(kind ResourceKind, id string) (*hotelArena, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hotelID, ok := r.owners[kind][id]
	if !ok {
		return nil, false
	}
	a, ok := r.arenas[hotelID]
	return a, ok
}

func (r *MemoryInventoryRepo) GetHotel(_ context.Context, hotelID string) (*domain.Hotel, error) {
	a := r.arena(hotelID)
	if a == nil {
		return nil, domain.NotFoundf("hotel %s", hotelID)
	}
	return a.hotel.Clone(), nil
}

func (r *MemoryInventoryRepo) ListFloors(_ context.Context, hotelID string) ([]*FloorWithRooms, error) {
	a := r.arena(hotelID)
	if a == nil {
		return nil, domain.NotFoundf("hotel %s", hotelID)
	}
	return a.sortedFloors(), nil
}

func (r *MemoryInventoryRepo) ListRooms(ctx context.Context, hotelID string) ([]*domain.Room, error) {
	floors, err := r.ListFloors(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	rooms := []*domain.Room{}
	for _, f := range floors {
		rooms = append(rooms, f.Rooms...)
	}
	return rooms, nil
}

func (r *MemoryInventoryRepo) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	a, ok := r.arenaOf(KindRoom, roomID)
	if !ok {
		return nil, domain.NotFoundf("room %s", roomID)
	}
	return a.rooms[roomID].Clone(), nil
}

func (r *MemoryInventoryRepo) GetBooking(_ context.Context, bookingID string) (*domain.Booking, error) {
	a, ok := r.arenaOf(KindBooking, bookingID)
	if !ok {
		return nil, domain.NotFoundf("booking %s", bookingID)
	}
	return a.bookings[bookingID].Clone(), nil
}

func (r *MemoryInventoryRepo) ListBookings(_ context.Context, filter BookingFilter, page, size int) ([]*domain.Booking, int, error) {
	r.mu.RLock()
	var arenas []*hotelArena
	if filter.HotelID != "" {
		if a, ok := r.arenas[filter.HotelID]; ok {
			arenas = append(arenas, a)
		}
	} else {
		for _, a := range r.arenas {
			arenas = append(arenas, a)
		}
	}
	r.mu.RUnlock()

	var matched []*domain.Booking
	for _, a := range arenas {
		for _, b := range a.bookings {
			if filter.RoomID != "" && b.RoomID != filter.RoomID {
				continue
			}
			if filter.BedID != "" && b.BedID != filter.BedID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			if !filter.CheckoutBefore.IsZero() && b.Checkout.After(filter.CheckoutBefore) {
				continue
			}
			matched = append(matched, b.Clone())
		}
	}
	sortBookings(matched)

	total := len(matched)
	if size <= 0 {
		return matched, total, nil
	}
	start := (page - 1) * size
	if page < 1 || start >= total {
		return []*domain.Booking{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryInventoryRepo) RoomBookings(_ context.Context, roomID string) ([]*domain.Booking, error) {
	a, ok := r.arenaOf(KindRoom, roomID)
	if !ok {
		return nil, domain.NotFoundf("room %s", roomID)
	}
	return a.roomBookings(roomID), nil
}

func (a *hotelArena) roomBookings(roomID string) []*domain.Booking {
	out := []*domain.Booking{}
	for _, b := range a.bookings {
		if b.RoomID == roomID && b.HoldsInventory() {
			out = append(out, b.Clone())
		}
	}
	sortBookings(out)
	return out
}

func (r *MemoryInventoryRepo) Snapshot(_ context.Context, hotelID string, stay domain.Stay) (*HotelSnapshot, error) {
	a := r.arena(hotelID)
	if a == nil {
		return nil, domain.NotFoundf("hotel %s", hotelID)
	}
	snap := &HotelSnapshot{
		Hotel:    a.hotel.Clone(),
		Floors:   a.sortedFloors(),
		Bookings: []*domain.Booking{},
	}
	for _, b := range a.bookings {
		if b.HoldsInventory() && b.Stay().Overlaps(stay) {
			snap.Bookings = append(snap.Bookings, b.Clone())
		}
	}
	sortBookings(snap.Bookings)
	return snap, nil
}

func (r *MemoryInventoryRepo) HotelIDOf(_ context.Context, kind ResourceKind, id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hotelID, ok := r.owners[kind][id]
	if !ok {
		return "", domain.NotFoundf("%s %s", kind, id)
	}
	return hotelID, nil
}

// ---- writes ----

func (r *MemoryInventoryRepo) writer(hotelID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.writers[hotelID]
	if !ok {
		w = &sync.Mutex{}
		r.writers[hotelID] = w
	}
	return w
}

func (r *MemoryInventoryRepo) commit(hotelID string, base, work *hotelArena) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if base != nil {
		for kind, ids := range base.ids() {
			for _, id := range ids {
				delete(r.owners[kind], id)
			}
		}
	}
	for kind, ids := range work.ids() {
		for _, id := range ids {
			r.owners[kind][id] = hotelID
		}
	}
	r.arenas[hotelID] = work
}

func (r *MemoryInventoryRepo) UpsertHotel(ctx context.Context, hotel *domain.Hotel) (*domain.Hotel, error) {
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

	w := r.writer(h.ID)
	w.Lock()
	defer w.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := r.arena(h.ID)
	var work *hotelArena
	if base == nil {
		work = newHotelArena(h)
	} else {
		work = base.clone()
		work.hotel = h
	}
	r.commit(h.ID, base, work)
	return h.Clone(), nil
}

func (r *MemoryInventoryRepo) WithHotelTx(ctx context.Context, hotelID string, fn func(ctx context.Context, tx HotelTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := r.writer(hotelID)
	w.Lock()
	defer w.Unlock()

	base := r.arena(hotelID)
	if base == nil {
		return domain.NotFoundf("hotel %s", hotelID)
	}
	work := base.clone()
	if err := fn(ctx, &memoryHotelTx{arena: work}); err != nil {
		return err
	}
	// a cancelled caller gets nothing committed
	if err := ctx.Err(); err != nil {
		return err
	}
	r.commit(hotelID, base, work)
	return nil
}

// memoryHotelTx edits a private clone; it enforces the same uniqueness
// and referential rules as the Postgres schema.
type memoryHotelTx struct {
	arena *hotelArena
}

func (t *memoryHotelTx) Hotel() *domain.Hotel { return t.arena.hotel.Clone() }

func (t *memoryHotelTx) UpdateHotel(_ context.Context, hotel *domain.Hotel) error {
	h := hotel.Clone()
	h.ID = t.arena.hotel.ID
	t.arena.hotel = h
	return nil
}

func (t *memoryHotelTx) GetFloor(_ context.Context, floorID string) (*domain.Floor, error) {
	f, ok := t.arena.floors[floorID]
	if !ok {
		return nil, domain.NotFoundf("floor %s", floorID)
	}
	fc := *f
	return &fc, nil
}

func (t *memoryHotelTx) InsertFloor(_ context.Context, floor *domain.Floor) error {
	for _, f := range t.arena.floors {
		if f.FloorNo == floor.FloorNo {
			return domain.ErrDuplicateFloor
		}
	}
	fc := *floor
	fc.HotelID = t.arena.hotel.ID
	t.arena.floors[fc.ID] = &fc
	return nil
}

func (t *memoryHotelTx) UpdateFloor(_ context.Context, floor *domain.Floor) error {
	if _, ok := t.arena.floors[floor.ID]; !ok {
		return domain.NotFoundf("floor %s", floor.ID)
	}
	for _, f := range t.arena.floors {
		if f.ID != floor.ID && f.FloorNo == floor.FloorNo {
			return domain.ErrDuplicateFloor
		}
	}
	fc := *floor
	fc.HotelID = t.arena.hotel.ID
	t.arena.floors[fc.ID] = &fc
	return nil
}

func (t *memoryHotelTx) DeleteFloor(ctx context.Context, floorID string) error {
	if _, ok := t.arena.floors[floorID]; !ok {
		return domain.NotFoundf("floor %s", floorID)
	}
	if n, _ := t.CountRooms(ctx, floorID); n > 0 {
		return domain.ErrFloorNotEmpty
	}
	delete(t.arena.floors, floorID)
	return nil
}

func (t *memoryHotelTx) CountRooms(_ context.Context, floorID string) (int, error) {
	n := 0
	for _, r := range t.arena.rooms {
		if r.FloorID == floorID {
			n++
		}
	}
	return n, nil
}

func (t *memoryHotelTx) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	r, ok := t.arena.rooms[roomID]
	if !ok {
		return nil, domain.NotFoundf("room %s", roomID)
	}
	return r.Clone(), nil
}

func (t *memoryHotelTx) InsertRoom(_ context.Context, room *domain.Room) error {
	if _, ok := t.arena.floors[room.FloorID]; !ok {
		return domain.NotFoundf("floor %s", room.FloorID)
	}
	for _, r := range t.arena.rooms {
		if r.FloorID == room.FloorID && r.RoomNo == room.RoomNo {
			return domain.ErrDuplicateRoom
		}
	}
	rc := room.Clone()
	rc.HotelID = t.arena.hotel.ID
	t.arena.rooms[rc.ID] = rc
	for _, b := range rc.Beds {
		t.arena.bedRoom[b.ID] = rc.ID
	}
	return nil
}

func (t *memoryHotelTx) SaveRoom(_ context.Context, room *domain.Room) error {
	old, ok := t.arena.rooms[room.ID]
	if !ok {
		return domain.NotFoundf("room %s", room.ID)
	}
	for _, b := range old.Beds {
		delete(t.arena.bedRoom, b.ID)
	}
	rc := room.Clone()
	rc.HotelID = t.arena.hotel.ID
	rc.FloorID = old.FloorID
	t.arena.rooms[rc.ID] = rc
	for _, b := range rc.Beds {
		b.RoomID = rc.ID
		t.arena.bedRoom[b.ID] = rc.ID
	}
	return nil
}

func (t *memoryHotelTx) DeleteRoom(_ context.Context, roomID string) error {
	r, ok := t.arena.rooms[roomID]
	if !ok {
		return domain.NotFoundf("room %s", roomID)
	}
	for _, b := range r.Beds {
		delete(t.arena.bedRoom, b.ID)
	}
	delete(t.arena.rooms, roomID)
	return nil
}

func (t *memoryHotelTx) GetBed(_ context.Context, bedID string) (*domain.Bed, error) {
	roomID, ok := t.arena.bedRoom[bedID]
	if !ok {
		return nil, domain.NotFoundf("bed %s", bedID)
	}
	b := t.arena.rooms[roomID].Bed(bedID)
	bc := *b
	return &bc, nil
}

func (t *memoryHotelTx) UpdateBedOverride(_ context.Context, bedID string, status domain.BedStatus) error {
	roomID, ok := t.arena.bedRoom[bedID]
	if !ok {
		return domain.NotFoundf("bed %s", bedID)
	}
	t.arena.rooms[roomID].Bed(bedID).Override = status
	return nil
}

func (t *memoryHotelTx) RoomBookings(_ context.Context, roomID string) ([]*domain.Booking, error) {
	return t.arena.roomBookings(roomID), nil
}

func (t *memoryHotelTx) GetBooking(_ context.Context, bookingID string) (*domain.Booking, error) {
	b, ok := t.arena.bookings[bookingID]
	if !ok {
		return nil, domain.NotFoundf("booking %s", bookingID)
	}
	return b.Clone(), nil
}

func (t *memoryHotelTx) BookingByIdempotencyKey(_ context.Context, key string) (*domain.Booking, error) {
	if key != "" {
		for _, b := range t.arena.bookings {
			if b.IdempotencyKey == key {
				return b.Clone(), nil
			}
		}
	}
	return nil, domain.NotFoundf("booking with idempotency key %q", key)
}

func (t *memoryHotelTx) InsertBooking(_ context.Context, booking *domain.Booking) error {
	if _, ok := t.arena.rooms[booking.RoomID]; !ok {
		return domain.NotFoundf("room %s", booking.RoomID)
	}
	if booking.IdempotencyKey != "" {
		for _, b := range t.arena.bookings {
			if b.IdempotencyKey == booking.IdempotencyKey {
				return fmt.Errorf("%w: %q", domain.ErrDuplicateKey, booking.IdempotencyKey)
			}
		}
	}
	// same guarantee as the exclusion constraint on hotel_bookings
	if booking.BedID != "" && booking.HoldsInventory() {
		for _, b := range t.arena.bookings {
			if b.BedID == booking.BedID && b.HoldsInventory() && b.Stay().Overlaps(booking.Stay()) {
				return &domain.BookingConflictError{
					RoomID: booking.RoomID, BedID: booking.BedID,
					Checkin: booking.Checkin, Checkout: booking.Checkout,
					Conflicting: b.Clone(),
				}
			}
		}
	}
	bc := booking.Clone()
	bc.HotelID = t.arena.hotel.ID
	t.arena.bookings[bc.ID] = bc
	return nil
}

func (t *memoryHotelTx) UpdateBookingStatus(_ context.Context, bookingID string, status domain.BookingStatus, at time.Time) error {
	b, ok := t.arena.bookings[bookingID]
	if !ok {
		return domain.NotFoundf("booking %s", bookingID)
	}
	b.Status = status
	b.UpdatedAt = at
	return nil
}

// ---- ordering ----

func sortRooms(rooms []*domain.Room) {
	sort.Slice(rooms, func(i, j int) bool { return lessRoomNo(rooms[i].RoomNo, rooms[j].RoomNo) })
}

// lessRoomNo orders numeric room numbers numerically ("2" < "10") and
// everything else lexically.
func lessRoomNo(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func sortBookings(bookings []*domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].Checkin.Equal(bookings[j].Checkin) {
			return bookings[i].Checkin.Before(bookings[j].Checkin)
		}
		return bookings[i].ID < bookings[j].ID
	})
}
