package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"owl-hotel/internal/domain"
	"owl-hotel/internal/events"
	"owl-hotel/internal/repository"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

type inventoryFeature struct {
	repo         *repository.MemoryInventoryRepo
	inventory    InventoryService
	bookings     BookingService
	availability AvailabilityService

	hotelID  string
	floors   map[int]string
	rooms    map[string]*domain.Room
	original map[string][]string
	err      error
	raceErrs []error
}

func (f *inventoryFeature) reset() {
	logger := zap.NewNop()
	kv := newFakeKV()
	resolver := NewCapacityResolver(repository.NewMemoryBedTypesRepo(), kv, "sharing", 2, logger)
	_ = resolver.SeedDefaults(context.Background())
	cache := NewAvailabilityCache(kv, time.Minute, logger)

	f.repo = repository.NewMemoryInventoryRepo()
	f.inventory = NewInventoryService(f.repo, resolver, cache, events.Nop{}, logger)
	f.bookings = NewBookingService(f.repo, cache, events.Nop{}, logger)
	f.availability = NewAvailabilityService(f.repo, cache, 1, logger)
	f.hotelID = ""
	f.floors = map[int]string{}
	f.rooms = map[string]*domain.Room{}
	f.original = map[string][]string{}
	f.err = nil
	f.raceErrs = nil
}

var errorsByName = map[string]error{
	"booking conflict": domain.ErrBookingConflict,
	"capacity locked":  domain.ErrCapacityLocked,
	"floor not empty":  domain.ErrFloorNotEmpty,
	"resource in use":  domain.ErrResourceInUse,
	"invalid range":    domain.ErrInvalidRange,
	"out of window":    domain.ErrOutOfWindow,
}

func (f *inventoryFeature) hotelWithFloor(hotelID string, floorNo int) error {
	ctx := context.Background()
	if _, err := f.inventory.RegisterHotel(ctx, RegisterHotelRequest{HotelID: hotelID, Name: "Hotel " + hotelID}); err != nil {
		return err
	}
	f.hotelID = hotelID
	return f.floorWithoutRooms(floorNo)
}

func (f *inventoryFeature) floorWithoutRooms(floorNo int) error {
	resp, err := f.inventory.CreateFloor(context.Background(), CreateFloorRequest{HotelID: f.hotelID, FloorNo: floorNo})
	if err != nil {
		return err
	}
	f.floors[floorNo] = resp.Floor.ID
	return nil
}

func (f *inventoryFeature) createRoom(roomNo, roomType string, capacity *int, floorNo int) error {
	resp, err := f.inventory.CreateRoom(context.Background(), CreateRoomRequest{
		FloorID: f.floors[floorNo], RoomNo: roomNo, RoomType: roomType, Capacity: capacity,
	})
	if err != nil {
		return err
	}
	f.rooms[roomNo] = resp.Room
	f.original[roomNo] = bedIDs(resp.Room.Beds)
	return nil
}

func (f *inventoryFeature) aRoomOnFloor(roomType, roomNo string, floorNo int) error {
	return f.createRoom(roomNo, roomType, nil, floorNo)
}

func (f *inventoryFeature) aSharingRoomWithBeds(roomNo string, beds, floorNo int) error {
	return f.createRoom(roomNo, "sharing", &beds, floorNo)
}

func (f *inventoryFeature) room(roomNo string) (*domain.Room, error) {
	r, ok := f.rooms[roomNo]
	if !ok {
		return nil, fmt.Errorf("unknown room %s", roomNo)
	}
	return f.repo.GetRoom(context.Background(), r.ID)
}

func (f *inventoryFeature) book(bed int, roomNo, checkin, checkout string) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	in, err := domain.ParseDate(checkin)
	if err != nil {
		return err
	}
	out, err := domain.ParseDate(checkout)
	if err != nil {
		return err
	}
	_, err = f.bookings.CreateBooking(context.Background(), CreateBookingRequest{
		RoomID: room.ID, BedID: room.Beds[bed-1].ID, GuestName: "guest", Checkin: in, Checkout: out,
	})
	return err
}

func (f *inventoryFeature) bedIsBooked(bed int, roomNo, checkin, checkout string) error {
	return f.book(bed, roomNo, checkin, checkout)
}

func (f *inventoryFeature) iTryToBook(bed int, roomNo, checkin, checkout string) error {
	f.err = f.book(bed, roomNo, checkin, checkout)
	return nil
}

func (f *inventoryFeature) guestsTryToBookStays(bed int, roomNo string, table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		err := f.book(bed, roomNo, row.Cells[0].Value, row.Cells[1].Value)
		if err != nil && !errors.Is(err, domain.ErrBookingConflict) {
			return err
		}
	}
	return nil
}

func (f *inventoryFeature) activeBookings(roomNo string) ([]*domain.Booking, error) {
	room, err := f.room(roomNo)
	if err != nil {
		return nil, err
	}
	bookings, err := f.repo.RoomBookings(context.Background(), room.ID)
	if err != nil {
		return nil, err
	}
	active := bookings[:0]
	for _, b := range bookings {
		if b.Active() {
			active = append(active, b)
		}
	}
	return active, nil
}

func (f *inventoryFeature) bookingsOnBedDoNotOverlap(bed int, roomNo string) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	bookings, err := f.activeBookings(roomNo)
	if err != nil {
		return err
	}
	var onBed []*domain.Booking
	for _, b := range bookings {
		if b.Covers(room.Beds[bed-1].ID) {
			onBed = append(onBed, b)
		}
	}
	sort.Slice(onBed, func(i, j int) bool { return onBed[i].Checkin.Before(onBed[j].Checkin) })
	for i := 1; i < len(onBed); i++ {
		if onBed[i-1].Checkout.After(onBed[i].Checkin) {
			return fmt.Errorf("booking %s overlaps %s", onBed[i-1].ID, onBed[i].ID)
		}
	}
	return nil
}

func (f *inventoryFeature) roomHasActiveBookings(roomNo string, n int) error {
	bookings, err := f.activeBookings(roomNo)
	if err != nil {
		return err
	}
	if len(bookings) != n {
		return fmt.Errorf("expected %d active bookings, got %d", n, len(bookings))
	}
	return nil
}

func (f *inventoryFeature) iChangeRoomType(roomNo, roomType string) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	_, err = f.inventory.ChangeRoomType(context.Background(), ChangeRoomTypeRequest{RoomID: room.ID, RoomType: roomType})
	return err
}

func (f *inventoryFeature) iSetCapacity(roomNo string, n int) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	_, f.err = f.inventory.SetRoomCapacity(context.Background(), SetRoomCapacityRequest{RoomID: room.ID, Capacity: n})
	return nil
}

func (f *inventoryFeature) theRequestFailsWith(name string) error {
	target, ok := errorsByName[name]
	if !ok {
		return fmt.Errorf("unknown error name %q", name)
	}
	if !errors.Is(f.err, target) {
		return fmt.Errorf("expected %s, got %v", name, f.err)
	}
	return nil
}

func (f *inventoryFeature) roomHasBeds(roomNo string, n int) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	if len(room.Beds) != n || room.Capacity != n {
		return fmt.Errorf("expected %d beds, got %d (capacity %d)", n, len(room.Beds), room.Capacity)
	}
	return nil
}

func (f *inventoryFeature) roomHasBedNumbers(roomNo, want string) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	got := make([]string, 0, len(room.Beds))
	for _, n := range bedNos(room.Beds) {
		got = append(got, strconv.Itoa(n))
	}
	if strings.Join(got, ",") != want {
		return fmt.Errorf("expected bed numbers %s, got %s", want, strings.Join(got, ","))
	}
	return nil
}

func (f *inventoryFeature) roomKeepsOriginalBeds(roomNo string, from, to int) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	ids := bedIDs(room.Beds)
	orig := f.original[roomNo]
	if len(ids) < to || len(orig) < to {
		return fmt.Errorf("room %s has %d beds, originally %d", roomNo, len(ids), len(orig))
	}
	for i := from - 1; i < to; i++ {
		if ids[i] != orig[i] {
			return fmt.Errorf("bed %d changed id from %s to %s", i+1, orig[i], ids[i])
		}
	}
	return nil
}

func (f *inventoryFeature) checkingReports(bed int, roomNo, checkin, checkout, outcome string) error {
	room, err := f.room(roomNo)
	if err != nil {
		return err
	}
	in, _ := domain.ParseDate(checkin)
	out, _ := domain.ParseDate(checkout)
	res, err := f.bookings.CheckBooking(context.Background(), CheckBookingRequest{
		RoomID: room.ID, BedID: room.Beds[bed-1].ID, Checkin: in, Checkout: out,
	})
	if err != nil {
		return err
	}
	if want := outcome == "a conflict"; res.Conflict != want {
		return fmt.Errorf("expected %s, got conflict=%v", outcome, res.Conflict)
	}
	return nil
}

func (f *inventoryFeature) availabilityShows(from, to string, available, occupied, beds int) error {
	in, _ := domain.ParseDate(from)
	out, _ := domain.ParseDate(to)
	report, err := f.availability.GetAvailability(context.Background(), GetAvailabilityRequest{HotelID: f.hotelID, DateFrom: in, DateTo: out})
	if err != nil {
		return err
	}
	if report.AvailableRooms != available || report.OccupiedRooms != occupied || report.AvailableBeds != beds {
		return fmt.Errorf("got %d available rooms, %d occupied rooms, %d available beds",
			report.AvailableRooms, report.OccupiedRooms, report.AvailableBeds)
	}
	return nil
}

func (f *inventoryFeature) roomStatusIs(roomNo, status, from, to string) error {
	in, _ := domain.ParseDate(from)
	out, _ := domain.ParseDate(to)
	report, err := f.availability.GetAvailability(context.Background(), GetAvailabilityRequest{HotelID: f.hotelID, DateFrom: in, DateTo: out})
	if err != nil {
		return err
	}
	for _, fl := range report.Floors {
		for _, r := range fl.Rooms {
			if r.RoomNo == roomNo {
				if r.Status != status {
					return fmt.Errorf("room %s is %s, want %s", roomNo, r.Status, status)
				}
				return nil
			}
		}
	}
	return fmt.Errorf("room %s not in report", roomNo)
}

func (f *inventoryFeature) iDeleteFloor(floorNo int) error {
	f.err = f.inventory.DeleteFloor(context.Background(), DeleteFloorRequest{FloorID: f.floors[floorNo]})
	return nil
}

func (f *inventoryFeature) floorExists(floorNo int, want bool) error {
	resp, err := f.inventory.ListFloors(context.Background(), ListFloorsRequest{HotelID: f.hotelID})
	if err != nil {
		return err
	}
	found := false
	for _, fl := range resp.Items {
		if fl.FloorNo == floorNo {
			found = true
		}
	}
	if found != want {
		return fmt.Errorf("floor %d exists=%v, want %v", floorNo, found, want)
	}
	return nil
}

func (f *inventoryFeature) guestsBookAtTheSameTime(n, bed int, roomNo, checkin, checkout string) error {
	var wg sync.WaitGroup
	f.raceErrs = make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.raceErrs[i] = f.book(bed, roomNo, checkin, checkout)
		}(i)
	}
	wg.Wait()
	return nil
}

func (f *inventoryFeature) exactlyOneSucceeds(n int) error {
	ok := 0
	for _, err := range f.raceErrs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrBookingConflict):
			return fmt.Errorf("unexpected error: %w", err)
		}
	}
	if ok != n {
		return fmt.Errorf("%d bookings succeeded, want %d", ok, n)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	f := &inventoryFeature{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^hotel "([^"]*)" with floor (\d+)$`, f.hotelWithFloor)
	ctx.Step(`^floor (\d+) without rooms$`, f.floorWithoutRooms)
	ctx.Step(`^a "([^"]*)" room "([^"]*)" on floor (\d+)$`, f.aRoomOnFloor)
	ctx.Step(`^a sharing room "([^"]*)" with (\d+) beds on floor (\d+)$`, f.aSharingRoomWithBeds)
	ctx.Step(`^bed (\d+) of room "([^"]*)" is booked from "([^"]*)" to "([^"]*)"$`, f.bedIsBooked)

	// When
	ctx.Step(`^I try to book bed (\d+) of room "([^"]*)" from "([^"]*)" to "([^"]*)"$`, f.iTryToBook)
	ctx.Step(`^guests try to book bed (\d+) of room "([^"]*)" for these stays:$`, f.guestsTryToBookStays)
	ctx.Step(`^I change room "([^"]*)" to type "([^"]*)"$`, f.iChangeRoomType)
	ctx.Step(`^I set the capacity of room "([^"]*)" to (\d+)$`, f.iSetCapacity)
	ctx.Step(`^I delete floor (\d+)$`, f.iDeleteFloor)
	ctx.Step(`^(\d+) guests book bed (\d+) of room "([^"]*)" from "([^"]*)" to "([^"]*)" at the same time$`, f.guestsBookAtTheSameTime)

	// Then
	ctx.Step(`^the request fails with "([^"]*)"$`, f.theRequestFailsWith)
	ctx.Step(`^bookings on bed (\d+) of room "([^"]*)" do not overlap$`, f.bookingsOnBedDoNotOverlap)
	ctx.Step(`^room "([^"]*)" has (\d+) active bookings?$`, f.roomHasActiveBookings)
	ctx.Step(`^room "([^"]*)" has (\d+) beds$`, f.roomHasBeds)
	ctx.Step(`^room "([^"]*)" has bed numbers "([^"]*)"$`, f.roomHasBedNumbers)
	ctx.Step(`^room "([^"]*)" keeps its original beds (\d+) to (\d+)$`, f.roomKeepsOriginalBeds)
	ctx.Step(`^checking bed (\d+) of room "([^"]*)" from "([^"]*)" to "([^"]*)" reports (a conflict|no conflict)$`, f.checkingReports)
	ctx.Step(`^availability from "([^"]*)" to "([^"]*)" shows (\d+) available rooms, (\d+) occupied rooms and (\d+) available beds$`, f.availabilityShows)
	ctx.Step(`^room "([^"]*)" is "([^"]*)" from "([^"]*)" to "([^"]*)"$`, f.roomStatusIs)
	ctx.Step(`^floor (\d+) exists$`, func(n int) error { return f.floorExists(n, true) })
	ctx.Step(`^floor (\d+) does not exist$`, func(n int) error { return f.floorExists(n, false) })
	ctx.Step(`^exactly (\d+) booking succeeds and the rest conflict$`, f.exactlyOneSucceeds)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
