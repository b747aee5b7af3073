package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlockCategory tells which students a block houses
type BlockCategory string

const (
	BlockBoys  BlockCategory = "Boys"
	BlockGirls BlockCategory = "Girls"
	BlockCoed  BlockCategory = "Co-ed"
)

// Valid reports whether c is one of the known block categories
func (c BlockCategory) Valid() bool {
	switch c {
	case BlockBoys, BlockGirls, BlockCoed:
		return true
	}
	return false
}

// WardenUnassigned is the display name stored while a block has no warden
const WardenUnassigned = "Not Assigned"

// HostelBlock represents a hostel wing with a floors × rooms-per-floor capacity template.
// WardenName and WardenContact are a snapshot of the warden user taken when the warden
// reference was last written; they are not kept in sync with later user edits.
type HostelBlock struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Code          string                      `gorm:"size:20;not null;uniqueIndex" json:"code"`
	Category      BlockCategory               `gorm:"size:10;not null" json:"type"`
	Floors        int                         `gorm:"not null" json:"floors"`
	RoomsPerFloor int                         `gorm:"not null" json:"rooms_per_floor"`
	TotalRooms    int                         `gorm:"not null;default:0" json:"total_rooms"`
	WardenID      *uint                       `gorm:"index" json:"warden_id"`
	WardenName    string                      `gorm:"size:100;not null" json:"warden_name"`
	WardenContact string                      `gorm:"size:30" json:"warden_contact"`
	Facilities    datatypes.JSONSlice[string] `json:"facilities"`
	IsActive      bool                        `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for HostelBlock model
func (HostelBlock) TableName() string {
	return "hostel_blocks"
}

// BeforeSave recomputes the derived room total on every write
func (b *HostelBlock) BeforeSave(tx *gorm.DB) error {
	b.TotalRooms = TotalRooms(b.Floors, b.RoomsPerFloor)
	if b.WardenName == "" {
		b.WardenName = WardenUnassigned
	}
	return nil
}

// TotalRooms is the room count implied by a block's capacity template
func TotalRooms(floors, roomsPerFloor int) int {
	if floors <= 0 || roomsPerFloor <= 0 {
		return 0
	}
	return floors * roomsPerFloor
}
