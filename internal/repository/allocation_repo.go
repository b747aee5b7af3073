package repository

import (
	"errors"

	"campus-hostel-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepo(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *AllocationRepository) WithTx(tx *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: tx}
}

// AllocationFilter narrows ListAllocations; nil fields match everything
type AllocationFilter struct {
	BlockID   *uint
	StudentID *uint
	Status    *models.AllocationStatus
}

// ListAllocations retrieves allocations newest first with block and room preloaded
func (r *AllocationRepository) ListAllocations(filter AllocationFilter) ([]models.RoomAllocation, error) {
	var allocations []models.RoomAllocation
	q := r.db.Preload("Block").Preload("Room")
	if filter.BlockID != nil {
		q = q.Where("block_id = ?", *filter.BlockID)
	}
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	err := q.Order("created_at DESC, id DESC").Find(&allocations).Error
	return allocations, err
}

// GetAllocationByID retrieves an allocation by ID
func (r *AllocationRepository) GetAllocationByID(id uint) (*models.RoomAllocation, error) {
	var allocation models.RoomAllocation
	err := r.db.First(&allocation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

// LockAllocationByID retrieves an allocation and holds its row lock until the transaction ends
func (r *AllocationRepository) LockAllocationByID(id uint) (*models.RoomAllocation, error) {
	var allocation models.RoomAllocation
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&allocation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

// GetAllocationWithDetails retrieves an allocation with student, block and room preloaded
func (r *AllocationRepository) GetAllocationWithDetails(id uint) (*models.RoomAllocation, error) {
	var allocation models.RoomAllocation
	err := r.db.Preload("Student").Preload("Block").Preload("Room").First(&allocation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAllocationNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

// HasActiveForStudent reports whether the student holds an Active allocation
func (r *AllocationRepository) HasActiveForStudent(studentID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.RoomAllocation{}).
		Where("student_id = ? AND status = ?", studentID, models.AllocationActive).
		Count(&count).Error
	return count > 0, err
}

// BedTaken reports whether an Active allocation holds the given bed
func (r *AllocationRepository) BedTaken(roomID uint, bed int) (bool, error) {
	var count int64
	err := r.db.Model(&models.RoomAllocation{}).
		Where("room_id = ? AND bed_number = ? AND status = ?", roomID, bed, models.AllocationActive).
		Count(&count).Error
	return count > 0, err
}

// ListActiveByRoom retrieves the allocations currently holding beds in a room
func (r *AllocationRepository) ListActiveByRoom(roomID uint) ([]models.RoomAllocation, error) {
	var allocations []models.RoomAllocation
	err := r.db.Where("room_id = ? AND status = ?", roomID, models.AllocationActive).
		Order("bed_number ASC, id ASC").
		Find(&allocations).Error
	return allocations, err
}

// CreateAllocation inserts a new allocation
func (r *AllocationRepository) CreateAllocation(allocation *models.RoomAllocation) error {
	return r.db.Omit(clause.Associations).Create(allocation).Error
}

// UpdateAllocation writes every column of an existing allocation
func (r *AllocationRepository) UpdateAllocation(allocation *models.RoomAllocation) error {
	return r.db.Omit(clause.Associations).Save(allocation).Error
}

// editableColumns are the columns an edit may touch; status and the active keys are not among them
var editableColumns = []string{"fees_paid", "fees_amount", "remarks", "vacate_date", "updated_at"}

// UpdateEditableFields writes fees, remarks and vacate date of an existing allocation
func (r *AllocationRepository) UpdateEditableFields(allocation *models.RoomAllocation) error {
	return r.db.Model(allocation).Select(editableColumns).Updates(allocation).Error
}

// DeleteAllocation removes an allocation permanently
func (r *AllocationRepository) DeleteAllocation(id uint) error {
	res := r.db.Delete(&models.RoomAllocation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

// CountActive returns the number of Active allocations
func (r *AllocationRepository) CountActive() (int64, error) {
	var count int64
	err := r.db.Model(&models.RoomAllocation{}).
		Where("status = ?", models.AllocationActive).
		Count(&count).Error
	return count, err
}

// BlockAllocationCount is the number of Active allocations in one block
type BlockAllocationCount struct {
	BlockID   uint   `json:"block_id"`
	BlockName string `json:"block_name"`
	Count     int64  `json:"count"`
}

// CountActiveByBlock groups Active allocations by block, ordered by block name
func (r *AllocationRepository) CountActiveByBlock() ([]BlockAllocationCount, error) {
	var rows []BlockAllocationCount
	err := r.db.Model(&models.RoomAllocation{}).
		Select("room_allocations.block_id AS block_id, hostel_blocks.name AS block_name, COUNT(*) AS count").
		Joins("INNER JOIN hostel_blocks ON hostel_blocks.id = room_allocations.block_id").
		Where("room_allocations.status = ?", models.AllocationActive).
		Group("room_allocations.block_id, hostel_blocks.name").
		Order("hostel_blocks.name ASC").
		Scan(&rows).Error
	return rows, err
}
