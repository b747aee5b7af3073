package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"campus-hostel-backend/internal/events"
	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"

	"gorm.io/gorm"
)

// AllocationService assigns and releases beds. Every change to an allocation's status runs in
// one transaction together with the matching room occupancy update.
type AllocationService struct {
	db             *gorm.DB
	allocationRepo *repository.AllocationRepository
	roomRepo       *repository.RoomRepository
	blockRepo      *repository.BlockRepository
	userRepo       *repository.UserRepository
	auditRepo      *repository.AuditRepository
	rooms          *RoomService
	publisher      events.Publisher
	reports        *ReportCache
}

func NewAllocationService(
	db *gorm.DB,
	allocationRepo *repository.AllocationRepository,
	roomRepo *repository.RoomRepository,
	rooms *RoomService,
	blockRepo *repository.BlockRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	publisher events.Publisher,
	reports *ReportCache,
) *AllocationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AllocationService{
		db:             db,
		allocationRepo: allocationRepo,
		roomRepo:       roomRepo,
		blockRepo:      blockRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		rooms:          rooms,
		publisher:      publisher,
		reports:        reports,
	}
}

// AssignInput is the payload for a new allocation
type AssignInput struct {
	StudentID      uint       `json:"student_id" binding:"required"`
	BlockID        uint       `json:"block_id" binding:"required"`
	RoomID         uint       `json:"room_id" binding:"required"`
	BedNumber      *int       `json:"bed_number"`
	AcademicYear   string     `json:"academic_year"`
	Semester       string     `json:"semester"`
	FeesAmount     *float64   `json:"fees_amount"`
	FeesPaid       bool       `json:"fees_paid"`
	AllocationDate *time.Time `json:"allocation_date"`
	Remarks        string     `json:"remarks"`
}

// ChangeStatusInput moves an allocation to a terminal status
type ChangeStatusInput struct {
	Status     models.AllocationStatus `json:"status"`
	VacateDate *time.Time              `json:"vacate_date"`
	Remarks    *string                 `json:"remarks"`
	FeesPaid   *bool                   `json:"fees_paid"`
	FeesAmount *float64                `json:"fees_amount"`
}

// UpdateAllocationInput edits fields that do not affect occupancy
type UpdateAllocationInput struct {
	FeesPaid   *bool      `json:"fees_paid"`
	FeesAmount *float64   `json:"fees_amount"`
	Remarks    *string    `json:"remarks"`
	VacateDate *time.Time `json:"vacate_date"`
}

// OccupancyReport summarizes hostel capacity and usage
type OccupancyReport struct {
	TotalBlocks        int64                             `json:"total_blocks"`
	TotalRooms         int64                             `json:"total_rooms"`
	TotalAllocations   int64                             `json:"total_allocations"`
	TotalCapacity      int64                             `json:"total_capacity"`
	AvailableBeds      int64                             `json:"available_beds"`
	OccupancyRate      float64                           `json:"occupancy_rate"`
	RoomsByStatus      map[models.RoomStatus]int64       `json:"rooms_by_status"`
	AllocationsByBlock []repository.BlockAllocationCount `json:"allocations_by_block"`
	GeneratedAt        time.Time                         `json:"generated_at"`
}

// ListAllocations retrieves allocations newest first
func (s *AllocationService) ListAllocations(filter repository.AllocationFilter) ([]models.RoomAllocation, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("unknown allocation status %q", *filter.Status)
	}
	return s.allocationRepo.ListAllocations(filter)
}

// ListStudentAllocations returns a student's allocation history, newest first
func (s *AllocationService) ListStudentAllocations(studentID uint) ([]models.RoomAllocation, error) {
	if _, err := s.userRepo.FindUserByID(studentID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("student %d not found", studentID)
		}
		return nil, err
	}
	return s.allocationRepo.ListAllocations(repository.AllocationFilter{StudentID: &studentID})
}

// GetAllocation retrieves one allocation with student, block and room
func (s *AllocationService) GetAllocation(id uint) (*models.RoomAllocation, error) {
	allocation, err := s.allocationRepo.GetAllocationWithDetails(id)
	if err != nil {
		if errors.Is(err, repository.ErrAllocationNotFound) {
			return nil, notFound("allocation %d not found", id)
		}
		return nil, err
	}
	return allocation, nil
}

// Assign gives a student a bed. Failures are reported in this order: invalid input,
// unknown student, AlreadyAllocated, unknown room, RoomFull, BedOccupied.
func (s *AllocationService) Assign(ctx context.Context, input AssignInput, actorID uint) (*models.RoomAllocation, error) {
	if err := validateAssign(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	allocation := &models.RoomAllocation{
		StudentID:      input.StudentID,
		BlockID:        input.BlockID,
		RoomID:         input.RoomID,
		BedNumber:      input.BedNumber,
		AllocationDate: now,
		AcademicYear:   strings.TrimSpace(input.AcademicYear),
		Semester:       strings.TrimSpace(input.Semester),
		Status:         models.AllocationActive,
		FeesPaid:       input.FeesPaid,
		Remarks:        strings.TrimSpace(input.Remarks),
	}
	if input.AllocationDate != nil {
		allocation.AllocationDate = input.AllocationDate.UTC()
	}
	if input.FeesAmount != nil {
		allocation.FeesAmount = *input.FeesAmount
	}

	var room *models.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocations := s.allocationRepo.WithTx(tx)

		// the room lock is taken before any other read so every check below sees
		// what earlier holders of the lock committed; a missing room is reported
		// only after the student checks
		locked, lockErr := s.rooms.LockRoom(tx, input.RoomID)
		if lockErr != nil && !errors.Is(lockErr, ErrNotFound) {
			return lockErr
		}

		student, err := s.userRepo.WithTx(tx).FindUserByID(input.StudentID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return notFound("student %d not found", input.StudentID)
			}
			return err
		}
		snapshotStudent(allocation, student)

		active, err := allocations.HasActiveForStudent(input.StudentID)
		if err != nil {
			return err
		}
		if active {
			return newError(KindAlreadyAllocated, "student %s already has an active allocation", allocation.StudentCode)
		}

		if lockErr != nil {
			return lockErr
		}
		if locked.BlockID != input.BlockID {
			return invalid("room %s does not belong to block %d", locked.RoomNumber, input.BlockID)
		}
		if input.BedNumber != nil && *input.BedNumber > locked.Capacity {
			return invalid("bed %d exceeds room capacity %d", *input.BedNumber, locked.Capacity)
		}
		if locked.CurrentOccupancy >= locked.Capacity {
			return newError(KindRoomFull, "room %s is full", locked.RoomNumber)
		}
		if input.BedNumber != nil {
			taken, err := allocations.BedTaken(input.RoomID, *input.BedNumber)
			if err != nil {
				return err
			}
			if taken {
				return newError(KindBedOccupied, "bed %d in room %s is occupied", *input.BedNumber, locked.RoomNumber)
			}
		}

		room, err = s.rooms.AdjustOccupancy(tx, input.RoomID, 1)
		if err != nil {
			if errors.Is(err, ErrCapacityExceeded) {
				return newError(KindRoomFull, "room %s is full", locked.RoomNumber)
			}
			return err
		}

		return allocations.CreateAllocation(allocation)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, s.duplicateAllocationError(allocation)
		}
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to assign room: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Assigned student %s to room %s (bed: %s, %s %s)",
		allocation.StudentCode, room.RoomNumber, bedLabel(allocation.BedNumber), allocation.AcademicYear, allocation.Semester)
	recordAudit(s.auditRepo, &actorID, "allocation_create", "room_allocation", allocation.ID, details)
	s.publish(ctx, events.AllocationAssigned, allocation, room.CurrentOccupancy, actorID)

	allocation.Room = room
	return allocation, nil
}

// ChangeStatus ends an allocation. Leaving Active releases the bed exactly once; a later
// change between terminal statuses updates the record without touching occupancy.
func (s *AllocationService) ChangeStatus(ctx context.Context, id uint, input ChangeStatusInput, actorID uint) (*models.RoomAllocation, error) {
	if !input.Status.Terminal() {
		return nil, invalid("status must be Vacated or Transferred")
	}
	if input.Remarks != nil && len(*input.Remarks) > maxRemarksLength {
		return nil, invalid("remarks must be at most %d characters", maxRemarksLength)
	}
	if input.FeesAmount != nil && *input.FeesAmount < 0 {
		return nil, invalid("fees amount must not be negative")
	}

	var (
		allocation *models.RoomAllocation
		room       *models.Room
		released   bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocations := s.allocationRepo.WithTx(tx)
		var err error
		allocation, err = s.lockAllocation(tx, id)
		if err != nil {
			return err
		}

		if allocation.Status == models.AllocationActive {
			room, err = s.rooms.ReleaseOccupancy(tx, allocation.RoomID)
			if err != nil {
				return err
			}
			released = true
			if input.VacateDate == nil {
				now := time.Now().UTC()
				allocation.VacateDate = &now
			}
		}
		if input.VacateDate != nil {
			vacated := input.VacateDate.UTC()
			allocation.VacateDate = &vacated
		}
		if input.Remarks != nil {
			allocation.Remarks = strings.TrimSpace(*input.Remarks)
		}
		if input.FeesPaid != nil {
			allocation.FeesPaid = *input.FeesPaid
		}
		if input.FeesAmount != nil {
			allocation.FeesAmount = *input.FeesAmount
		}
		allocation.Status = input.Status

		return allocations.UpdateAllocation(allocation)
	})
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to change allocation status: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Allocation %d of student %s set to %s", allocation.ID, allocation.StudentCode, allocation.Status)
	recordAudit(s.auditRepo, &actorID, "allocation_status", "room_allocation", allocation.ID, details)
	if released {
		s.publish(ctx, events.AllocationReleased, allocation, room.CurrentOccupancy, actorID)
	}

	return allocation, nil
}

// UpdateFields edits fees, remarks and vacate date. Status and occupancy are left alone.
func (s *AllocationService) UpdateFields(id uint, input UpdateAllocationInput, actorID uint) (*models.RoomAllocation, error) {
	if input.FeesAmount != nil && *input.FeesAmount < 0 {
		return nil, invalid("fees amount must not be negative")
	}
	if input.Remarks != nil && len(*input.Remarks) > maxRemarksLength {
		return nil, invalid("remarks must be at most %d characters", maxRemarksLength)
	}

	var allocation *models.RoomAllocation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		allocations := s.allocationRepo.WithTx(tx)
		var err error
		allocation, err = allocations.LockAllocationByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrAllocationNotFound) {
				return notFound("allocation %d not found", id)
			}
			return err
		}

		if input.FeesPaid != nil {
			allocation.FeesPaid = *input.FeesPaid
		}
		if input.FeesAmount != nil {
			allocation.FeesAmount = *input.FeesAmount
		}
		if input.Remarks != nil {
			allocation.Remarks = strings.TrimSpace(*input.Remarks)
		}
		if input.VacateDate != nil {
			vacated := input.VacateDate.UTC()
			allocation.VacateDate = &vacated
		}
		return allocations.UpdateEditableFields(allocation)
	})
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update allocation: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Updated allocation %d of student %s", allocation.ID, allocation.StudentCode)
	recordAudit(s.auditRepo, &actorID, "allocation_update", "room_allocation", allocation.ID, details)

	return allocation, nil
}

// Remove deletes an allocation. Removing an Active allocation releases its bed.
func (s *AllocationService) Remove(ctx context.Context, id uint, actorID uint) error {
	var (
		allocation *models.RoomAllocation
		room       *models.Room
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		allocation, err = s.lockAllocation(tx, id)
		if err != nil {
			return err
		}
		if allocation.Status == models.AllocationActive {
			if room, err = s.rooms.ReleaseOccupancy(tx, allocation.RoomID); err != nil {
				return err
			}
		}
		return s.allocationRepo.WithTx(tx).DeleteAllocation(id)
	})
	if err != nil {
		if KindOf(err) != "" {
			return err
		}
		return fmt.Errorf("failed to remove allocation: %w", err)
	}
	s.reports.Invalidate()

	details := fmt.Sprintf("Removed allocation %d of student %s (was %s)", allocation.ID, allocation.StudentCode, allocation.Status)
	recordAudit(s.auditRepo, &actorID, "allocation_delete", "room_allocation", allocation.ID, details)
	occupancy := -1
	if room != nil {
		occupancy = room.CurrentOccupancy
	}
	s.publish(ctx, events.AllocationRemoved, allocation, occupancy, actorID)

	return nil
}

// OccupancyReport aggregates blocks, rooms and active allocations
func (s *AllocationService) OccupancyReport() (*OccupancyReport, error) {
	if report, ok := s.reports.Get(); ok {
		return report, nil
	}

	blocks, err := s.blockRepo.CountBlocks()
	if err != nil {
		return nil, fmt.Errorf("failed to count blocks: %w", err)
	}
	rooms, capacity, err := s.roomRepo.CapacityTotals()
	if err != nil {
		return nil, fmt.Errorf("failed to total room capacity: %w", err)
	}
	active, err := s.allocationRepo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("failed to count allocations: %w", err)
	}
	statusRows, err := s.roomRepo.CountRoomsByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to group rooms by status: %w", err)
	}
	byBlock, err := s.allocationRepo.CountActiveByBlock()
	if err != nil {
		return nil, fmt.Errorf("failed to group allocations by block: %w", err)
	}

	report := &OccupancyReport{
		TotalBlocks:      blocks,
		TotalRooms:       rooms,
		TotalAllocations: active,
		TotalCapacity:    capacity,
		AvailableBeds:    capacity - active,
		OccupancyRate:    occupancyRate(active, capacity),
		RoomsByStatus: map[models.RoomStatus]int64{
			models.RoomAvailable:   0,
			models.RoomOccupied:    0,
			models.RoomFull:        0,
			models.RoomMaintenance: 0,
			models.RoomReserved:    0,
		},
		AllocationsByBlock: byBlock,
		GeneratedAt:        time.Now().UTC(),
	}
	if report.AvailableBeds < 0 {
		report.AvailableBeds = 0
	}
	if report.AllocationsByBlock == nil {
		report.AllocationsByBlock = []repository.BlockAllocationCount{}
	}
	for _, row := range statusRows {
		report.RoomsByStatus[row.Status] = row.Count
	}

	s.reports.Set(report)
	return report, nil
}

// lockAllocation locks the allocation's room and then the allocation itself, the same
// order Assign takes them in. The status read under the allocation lock is current, so a
// bed is released at most once however many callers race on one allocation.
func (s *AllocationService) lockAllocation(tx *gorm.DB, id uint) (*models.RoomAllocation, error) {
	allocations := s.allocationRepo.WithTx(tx)
	current, err := allocations.GetAllocationByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrAllocationNotFound) {
			return nil, notFound("allocation %d not found", id)
		}
		return nil, err
	}
	if _, err := s.rooms.LockRoom(tx, current.RoomID); err != nil {
		return nil, err
	}
	locked, err := allocations.LockAllocationByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrAllocationNotFound) {
			return nil, notFound("allocation %d not found", id)
		}
		return nil, err
	}
	return locked, nil
}

// duplicateAllocationError names the unique key an insert collided with. It runs after the
// failed transaction so it reads what the competing writer committed.
func (s *AllocationService) duplicateAllocationError(a *models.RoomAllocation) error {
	allocations := s.allocationRepo
	if active, err := allocations.HasActiveForStudent(a.StudentID); err == nil && active {
		return newError(KindAlreadyAllocated, "student %s already has an active allocation", a.StudentCode)
	}
	if a.BedNumber != nil {
		if taken, err := allocations.BedTaken(a.RoomID, *a.BedNumber); err == nil && taken {
			return newError(KindBedOccupied, "bed %d is occupied", *a.BedNumber)
		}
	}
	return newError(KindAlreadyAllocated, "student %s already has an active allocation", a.StudentCode)
}

func (s *AllocationService) publish(ctx context.Context, eventType string, a *models.RoomAllocation, occupancy int, actorID uint) {
	event := events.AllocationEvent{
		Type:         eventType,
		AllocationID: a.ID,
		StudentID:    a.StudentID,
		BlockID:      a.BlockID,
		RoomID:       a.RoomID,
		BedNumber:    a.BedNumber,
		Status:       string(a.Status),
		Occupancy:    occupancy,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("Warning: failed to publish %s for allocation %d: %v", eventType, a.ID, err)
	}
}

func validateAssign(input AssignInput) error {
	switch {
	case input.StudentID == 0:
		return invalid("student is required")
	case input.BlockID == 0:
		return invalid("block is required")
	case input.RoomID == 0:
		return invalid("room is required")
	case strings.TrimSpace(input.AcademicYear) == "":
		return invalid("academic year is required")
	case strings.TrimSpace(input.Semester) == "":
		return invalid("semester is required")
	case input.BedNumber != nil && (*input.BedNumber < 1 || *input.BedNumber > models.MaxRoomCapacity):
		return invalid("bed number must be between 1 and %d", models.MaxRoomCapacity)
	case input.FeesAmount != nil && *input.FeesAmount < 0:
		return invalid("fees amount must not be negative")
	case len(input.Remarks) > maxRemarksLength:
		return invalid("remarks must be at most %d characters", maxRemarksLength)
	}
	return nil
}

// snapshotStudent copies the student's display fields onto the allocation
func snapshotStudent(a *models.RoomAllocation, student *models.User) {
	a.StudentCode = student.UserCode
	if a.StudentCode == "" {
		a.StudentCode = strconv.FormatUint(uint64(student.ID), 10)
	}
	a.StudentName = student.Name
	if a.StudentName == "" {
		a.StudentName = student.Username
	}
	a.StudentContact = student.Phone
}

func occupancyRate(active, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	return math.Round(float64(active)/float64(capacity)*100) / 100
}

func bedLabel(bed *int) string {
	if bed == nil {
		return "unassigned"
	}
	return strconv.Itoa(*bed)
}
