package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AllocationStatus string

const (
	AllocationActive      AllocationStatus = "Active"
	AllocationVacated     AllocationStatus = "Vacated"
	AllocationTransferred AllocationStatus = "Transferred"
)

func (s AllocationStatus) Valid() bool {
	switch s {
	case AllocationActive, AllocationVacated, AllocationTransferred:
		return true
	}
	return false
}

// Terminal reports whether s ends an allocation's hold on its bed
func (s AllocationStatus) Terminal() bool {
	return s == AllocationVacated || s == AllocationTransferred
}

// RoomAllocation binds one student to one bed for one academic term.
//
// ActiveStudentKey and ActiveBedKey are only set while the allocation is Active. Their unique
// indexes are the storage-level guarantee of one active allocation per student and per bed.
type RoomAllocation struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	StudentID      uint             `gorm:"not null;index" json:"student_id"`
	StudentCode    string           `gorm:"size:50;not null" json:"student_code"`
	StudentName    string           `gorm:"size:100;not null" json:"student_name"`
	StudentContact string           `gorm:"size:30" json:"student_contact"`
	BlockID        uint             `gorm:"not null;index" json:"block_id"`
	RoomID         uint             `gorm:"not null;index" json:"room_id"`
	BedNumber      *int             `json:"bed_number,omitempty"`
	AllocationDate time.Time        `gorm:"not null" json:"allocation_date"`
	VacateDate     *time.Time       `json:"vacate_date,omitempty"`
	AcademicYear   string           `gorm:"size:20;not null" json:"academic_year"`
	Semester       string           `gorm:"size:20;not null" json:"semester"`
	Status         AllocationStatus `gorm:"size:15;not null;index" json:"status"`
	FeesPaid       bool             `gorm:"not null" json:"fees_paid"`
	FeesAmount     float64          `gorm:"not null" json:"fees_amount"`
	Remarks        string           `gorm:"size:500" json:"remarks,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	ActiveStudentKey *uint   `gorm:"uniqueIndex" json:"-"`
	ActiveBedKey     *string `gorm:"size:40;uniqueIndex" json:"-"`

	// Relationships
	Student *User        `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Block   *HostelBlock `gorm:"foreignKey:BlockID" json:"block,omitempty"`
	Room    *Room        `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"room,omitempty"`
}

// TableName specifies the table name for RoomAllocation model
func (RoomAllocation) TableName() string {
	return "room_allocations"
}

// BeforeSave refreshes the uniqueness keys from the current status
func (a *RoomAllocation) BeforeSave(tx *gorm.DB) error {
	a.SyncActiveKeys()
	return nil
}

// SyncActiveKeys sets the uniqueness keys for an Active allocation and clears them otherwise
func (a *RoomAllocation) SyncActiveKeys() {
	a.ActiveStudentKey = nil
	a.ActiveBedKey = nil
	if a.Status != AllocationActive {
		return
	}
	studentID := a.StudentID
	a.ActiveStudentKey = &studentID
	if a.BedNumber != nil {
		key := BedKey(a.RoomID, *a.BedNumber)
		a.ActiveBedKey = &key
	}
}

// BedKey identifies one bed of one room
func BedKey(roomID uint, bed int) string {
	return fmt.Sprintf("%d:%d", roomID, bed)
}
