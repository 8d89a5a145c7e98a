package domain

import "strings"

// BedType maps a room type name to the number of beds it implies.
type BedType struct {
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// NormalizeTypeName is the canonical key for room and bed type names.
func NormalizeTypeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DefaultBedTypes is the reference set seeded into an empty store.
// The sharing entry only provides a starting capacity; operators resize
// sharing rooms afterwards.
func DefaultBedTypes(sharingType string) []*BedType {
	return []*BedType{
		{Name: NormalizeTypeName(sharingType), Capacity: 2},
		{Name: "single", Capacity: 1},
		{Name: "double", Capacity: 2},
		{Name: "triple", Capacity: 3},
		{Name: "quad", Capacity: 4},
		{Name: "quint", Capacity: 5},
	}
}
