package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomOccupied    RoomStatus = "Occupied"
	RoomFull        RoomStatus = "Full"
	RoomMaintenance RoomStatus = "Maintenance"
	RoomReserved    RoomStatus = "Reserved"
)

// Valid reports whether s is a known room status
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomFull, RoomMaintenance, RoomReserved:
		return true
	}
	return false
}

type RoomCategory string

const (
	RoomSingle  RoomCategory = "Single"
	RoomDouble  RoomCategory = "Double"
	RoomTriple  RoomCategory = "Triple"
	RoomFourBed RoomCategory = "Four-Bed"
)

func (c RoomCategory) Valid() bool {
	switch c {
	case RoomSingle, RoomDouble, RoomTriple, RoomFourBed:
		return true
	}
	return false
}

const (
	MinRoomCapacity = 1
	MaxRoomCapacity = 4
)

// Room represents a bedroom inside a hostel block.
// CurrentOccupancy is owned by the allocation service; Status is derived from it.
type Room struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	BlockID          uint                        `gorm:"not null;uniqueIndex:idx_block_room_number" json:"block_id"`
	RoomNumber       string                      `gorm:"size:20;not null;uniqueIndex:idx_block_room_number" json:"room_number"`
	Floor            int                         `gorm:"not null" json:"floor"`
	Capacity         int                         `gorm:"not null" json:"capacity"`
	Category         RoomCategory                `gorm:"size:10;not null" json:"type"`
	CurrentOccupancy int                         `gorm:"not null;default:0" json:"current_occupancy"`
	Status           RoomStatus                  `gorm:"size:15;not null;index" json:"status"`
	Facilities       datatypes.JSONSlice[string] `json:"facilities"`
	Remarks          string                      `gorm:"size:500" json:"remarks,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`

	// Relationships
	Block *HostelBlock `gorm:"foreignKey:BlockID" json:"block,omitempty"`
}

// TableName specifies the table name for Room model
func (Room) TableName() string {
	return "hostel_rooms"
}

// BeforeSave keeps Status consistent with occupancy on every full-row write
func (r *Room) BeforeSave(tx *gorm.DB) error {
	r.Status = DeriveRoomStatus(r.Status, r.CurrentOccupancy, r.Capacity)
	return nil
}

// AvailableBeds is the number of beds not held by an active allocation
func (r *Room) AvailableBeds() int {
	if free := r.Capacity - r.CurrentOccupancy; free > 0 {
		return free
	}
	return 0
}

// DeriveRoomStatus computes a room's status from its occupancy.
// An empty room keeps an operator-set Maintenance or Reserved status.
func DeriveRoomStatus(current RoomStatus, occupancy, capacity int) RoomStatus {
	switch {
	case occupancy <= 0:
		if current == RoomMaintenance || current == RoomReserved {
			return current
		}
		return RoomAvailable
	case occupancy < capacity:
		return RoomOccupied
	default:
		return RoomFull
	}
}

// RoomWithAllocations is a room together with the allocations currently holding its beds
type RoomWithAllocations struct {
	Room
	Allocations []RoomAllocation `json:"allocations"`
}
