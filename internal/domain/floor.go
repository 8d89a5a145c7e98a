package domain

import "fmt"

// Floor groups rooms; FloorNo is unique within a hotel.
type Floor struct {
	ID      string `db:"floor_id" json:"id"`
	HotelID string `db:"hotel_id" json:"hotel"`
	FloorNo int    `db:"floor_no" json:"floor_no"`
	Title   string `db:"title" json:"floor_title"`
}

// DefaultFloorTitle is used when a floor is created without a title.
func DefaultFloorTitle(floorNo int) string {
	return fmt.Sprintf("Floor %d", floorNo)
}
