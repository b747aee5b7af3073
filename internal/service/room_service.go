package service

import (
	"errors"
	"fmt"
	"strings"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"

	"gorm.io/gorm"
)

const maxRemarksLength = 500

type RoomService struct {
	db             *gorm.DB
	roomRepo       *repository.RoomRepository
	blockRepo      *repository.BlockRepository
	allocationRepo *repository.AllocationRepository
	auditRepo      *repository.AuditRepository
	reports        *ReportCache
}

func NewRoomService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	blockRepo *repository.BlockRepository,
	allocationRepo *repository.AllocationRepository,
	auditRepo *repository.AuditRepository,
	reports *ReportCache,
) *RoomService {
	return &RoomService{
		db:             db,
		roomRepo:       roomRepo,
		blockRepo:      blockRepo,
		allocationRepo: allocationRepo,
		auditRepo:      auditRepo,
		reports:        reports,
	}
}

// CreateRoomInput is the payload for a new room
type CreateRoomInput struct {
	BlockID    uint                `json:"block_id" binding:"required"`
	RoomNumber string              `json:"room_number" binding:"required"`
	Floor      int                 `json:"floor"`
	Capacity   int                 `json:"capacity"`
	Category   models.RoomCategory `json:"type"`
	Facilities []string            `json:"facilities"`
	Remarks    string              `json:"remarks"`
}

// UpdateRoomInput carries a partial room edit. Occupancy is not editable.
type UpdateRoomInput struct {
	Capacity   *int                 `json:"capacity"`
	Category   *models.RoomCategory `json:"type"`
	Status     *models.RoomStatus   `json:"status"`
	Facilities *[]string            `json:"facilities"`
	Remarks    *string              `json:"remarks"`
}

// ListRooms retrieves rooms, optionally narrowed to a block and a status
func (s *RoomService) ListRooms(filter repository.RoomFilter) ([]models.Room, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("unknown room status %q", *filter.Status)
	}
	return s.roomRepo.ListRooms(filter)
}

// GetRoom retrieves a room with its block and the allocations currently holding its beds
func (s *RoomService) GetRoom(id uint) (*models.RoomWithAllocations, error) {
	room, err := s.roomRepo.GetRoomWithBlock(id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, notFound("room %d not found", id)
		}
		return nil, err
	}
	allocations, err := s.allocationRepo.ListActiveByRoom(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load room allocations: %w", err)
	}
	return &models.RoomWithAllocations{Room: *room, Allocations: allocations}, nil
}

// CreateRoom adds an empty room to an existing block
func (s *RoomService) CreateRoom(input CreateRoomInput, actorID uint) (*models.Room, error) {
	room := &models.Room{
		BlockID:    input.BlockID,
		RoomNumber: strings.TrimSpace(input.RoomNumber),
		Floor:      input.Floor,
		Capacity:   input.Capacity,
		Category:   input.Category,
		Facilities: cleanFacilities(input.Facilities),
		Remarks:    strings.TrimSpace(input.Remarks),
		Status:     models.RoomAvailable,
	}
	if room.RoomNumber == "" {
		return nil, invalid("room number is required")
	}
	if room.Floor < 1 {
		return nil, invalid("floor must be at least 1")
	}
	if err := validateRoom(room); err != nil {
		return nil, err
	}

	block, err := s.blockRepo.GetBlockByID(room.BlockID)
	if err != nil {
		if errors.Is(err, repository.ErrBlockNotFound) {
			return nil, notFound("hostel block %d not found", room.BlockID)
		}
		return nil, err
	}
	taken, err := s.roomRepo.RoomNumberTaken(room.BlockID, room.RoomNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("room %s already exists in block %s", room.RoomNumber, block.Code)
	}

	if err := s.roomRepo.CreateRoom(room); err != nil {
		if isDuplicate(err) {
			return nil, conflict("room %s already exists in block %s", room.RoomNumber, block.Code)
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Created room: %s (block: %s, capacity: %d)", room.RoomNumber, block.Code, room.Capacity)
	recordAudit(s.auditRepo, &actorID, "room_create", "room", room.ID, details)

	return room, nil
}

// UpdateRoom applies a partial edit under the room's row lock and re-derives the status
func (s *RoomService) UpdateRoom(id uint, input UpdateRoomInput, actorID uint) (*models.Room, error) {
	var room *models.Room
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		room, err = s.LockRoom(tx, id)
		if err != nil {
			return err
		}

		if input.Capacity != nil {
			room.Capacity = *input.Capacity
		}
		if input.Category != nil {
			room.Category = *input.Category
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return invalid("unknown room status %q", *input.Status)
			}
			room.Status = *input.Status
		}
		if input.Facilities != nil {
			room.Facilities = cleanFacilities(*input.Facilities)
		}
		if input.Remarks != nil {
			room.Remarks = strings.TrimSpace(*input.Remarks)
		}
		if err := validateRoom(room); err != nil {
			return err
		}
		if room.Capacity < room.CurrentOccupancy {
			return invalid("capacity %d is below current occupancy %d", room.Capacity, room.CurrentOccupancy)
		}

		room.Status = models.DeriveRoomStatus(room.Status, room.CurrentOccupancy, room.Capacity)
		return s.roomRepo.WithTx(tx).UpdateRoom(room)
	})
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Updated room: %s (capacity: %d, status: %s)", room.RoomNumber, room.Capacity, room.Status)
	recordAudit(s.auditRepo, &actorID, "room_update", "room", room.ID, details)

	return room, nil
}

// DeleteRoom removes an empty room
func (s *RoomService) DeleteRoom(id uint, actorID uint) error {
	var number string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		room, err := s.LockRoom(tx, id)
		if err != nil {
			return err
		}
		if room.CurrentOccupancy > 0 {
			return conflict("room %s still has %d occupants", room.RoomNumber, room.CurrentOccupancy)
		}
		number = room.RoomNumber
		return s.roomRepo.WithTx(tx).DeleteRoom(id)
	})
	if err != nil {
		if KindOf(err) != "" {
			return err
		}
		return fmt.Errorf("failed to delete room: %w", err)
	}
	s.reports.Invalidate()

	recordAudit(s.auditRepo, &actorID, "room_delete", "room", id, fmt.Sprintf("Deleted room: %s", number))
	return nil
}

// LockRoom reads a room under its row lock inside tx
func (s *RoomService) LockRoom(tx *gorm.DB, id uint) (*models.Room, error) {
	room, err := s.roomRepo.WithTx(tx).LockRoomByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, notFound("room %d not found", id)
		}
		return nil, err
	}
	return room, nil
}

// AdjustOccupancy changes a room's occupancy by delta inside tx. A result outside
// [0, capacity] fails with CapacityExceeded and leaves the room untouched.
func (s *RoomService) AdjustOccupancy(tx *gorm.DB, id uint, delta int) (*models.Room, error) {
	room, err := s.roomRepo.WithTx(tx).AdjustOccupancy(id, delta)
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return nil, notFound("room %d not found", id)
	case errors.Is(err, repository.ErrOccupancyOutOfRange):
		return nil, newError(KindCapacityExceeded, "occupancy change %+d leaves room %d outside its capacity", delta, id)
	case err != nil:
		return nil, err
	}
	return room, nil
}

// ReleaseOccupancy frees one bed inside tx, never going below zero
func (s *RoomService) ReleaseOccupancy(tx *gorm.DB, id uint) (*models.Room, error) {
	room, err := s.roomRepo.WithTx(tx).ReleaseOccupancy(id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, notFound("room %d not found", id)
		}
		return nil, err
	}
	return room, nil
}

func validateRoom(r *models.Room) error {
	switch {
	case r.Capacity < models.MinRoomCapacity || r.Capacity > models.MaxRoomCapacity:
		return invalid("capacity must be between %d and %d", models.MinRoomCapacity, models.MaxRoomCapacity)
	case !r.Category.Valid():
		return invalid("room type must be Single, Double, Triple or Four-Bed")
	case len(r.Remarks) > maxRemarksLength:
		return invalid("remarks must be at most %d characters", maxRemarksLength)
	}
	return nil
}
