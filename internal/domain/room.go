package domain

// Room holds its beds in bed-number order. For every room
// len(Beds) == Capacity.
type Room struct {
	ID       string `db:"room_id" json:"id"`
	HotelID  string `db:"hotel_id" json:"hotel"`
	FloorID  string `db:"floor_id" json:"floor"`
	RoomNo   string `db:"room_no" json:"room_no"`
	RoomType string `db:"room_type" json:"room_type"`
	Capacity int    `db:"capacity" json:"total_beds"`
	Beds     []*Bed `json:"details"`
}

// Bed finds a bed by id.
func (r *Room) Bed(bedID string) *Bed {
	for _, b := range r.Beds {
		if b.ID == bedID {
			return b
		}
	}
	return nil
}

// Clone copies the room and its beds.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.Beds = make([]*Bed, len(r.Beds))
	for i, b := range r.Beds {
		bc := *b
		c.Beds[i] = &bc
	}
	return &c
}
