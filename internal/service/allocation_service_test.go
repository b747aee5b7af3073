package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"campus-hostel-backend/internal/events"
	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAssign_FillsRoomThenRejects(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)

	first, err := f.assign(f.student(t, "1"), room, intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, models.AllocationActive, first.Status)
	assert.Equal(t, "STU1", first.StudentCode)
	assert.Equal(t, "User student1", first.StudentName)
	assert.Equal(t, models.RoomOccupied, f.reload(t, room.ID).Status)

	_, err = f.assign(f.student(t, "2"), room, intPtr(2))
	require.NoError(t, err)
	stored := f.reload(t, room.ID)
	assert.Equal(t, 2, stored.CurrentOccupancy)
	assert.Equal(t, models.RoomFull, stored.Status)

	_, err = f.assign(f.student(t, "3"), room, nil)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, f.reload(t, room.ID).CurrentOccupancy)
}

func TestChangeStatus_VacateReleasesBed(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	first, err := f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)
	_, err = f.assign(f.student(t, "2"), room, nil)
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	vacated, err := f.allocations.ChangeStatus(ctx(), first.ID, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AllocationVacated, vacated.Status)
	require.NotNil(t, vacated.VacateDate)
	assert.True(t, vacated.VacateDate.After(before))

	stored := f.reload(t, room.ID)
	assert.Equal(t, 1, stored.CurrentOccupancy)
	assert.Equal(t, models.RoomOccupied, stored.Status)
}

func TestChangeStatus_ReleasesOnlyOnce(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	a, err := f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)
	_, err = f.assign(f.student(t, "2"), room, nil)
	require.NoError(t, err)

	vacateDate := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	_, err = f.allocations.ChangeStatus(ctx(), a.ID, ChangeStatusInput{Status: models.AllocationVacated, VacateDate: &vacateDate}, f.admin.ID)
	require.NoError(t, err)
	_, err = f.allocations.ChangeStatus(ctx(), a.ID, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	require.NoError(t, err)
	moved, err := f.allocations.ChangeStatus(ctx(), a.ID, ChangeStatusInput{Status: models.AllocationTransferred, Remarks: strPtr("moved to block B")}, f.admin.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AllocationTransferred, moved.Status)
	assert.Equal(t, "moved to block B", moved.Remarks)
	require.NotNil(t, moved.VacateDate)
	assert.True(t, vacateDate.Equal(*moved.VacateDate))
	assert.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)
	assert.Equal(t, []string{events.AllocationAssigned, events.AllocationAssigned, events.AllocationReleased}, f.publisher.types())
}

func TestChangeStatus_Validation(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	a, err := f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)

	_, err = f.allocations.ChangeStatus(ctx(), a.ID, ChangeStatusInput{Status: models.AllocationActive}, f.admin.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.allocations.ChangeStatus(ctx(), 9999, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)
}

func TestAssign_AfterVacateStudentCanMoveAgain(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	other := f.room(t, block.ID, "102", 2)
	student := f.student(t, "1")

	a, err := f.assign(student, room, intPtr(1))
	require.NoError(t, err)
	_, err = f.allocations.ChangeStatus(ctx(), a.ID, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	require.NoError(t, err)

	stored := f.reload(t, room.ID)
	assert.Equal(t, 0, stored.CurrentOccupancy)
	assert.Equal(t, models.RoomAvailable, stored.Status)

	_, err = f.assign(student, other, intPtr(1))
	require.NoError(t, err)
	// the vacated bed is free again
	_, err = f.assign(f.student(t, "2"), room, intPtr(1))
	require.NoError(t, err)

	history, err := f.allocations.ListStudentAllocations(student.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAssign_AlreadyAllocated(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	other := f.room(t, block.ID, "102", 2)
	student := f.student(t, "1")

	_, err := f.assign(student, room, nil)
	require.NoError(t, err)

	_, err = f.assign(student, other, nil)
	assert.ErrorIs(t, err, ErrAlreadyAllocated)
	assert.Equal(t, 0, f.reload(t, other.ID).CurrentOccupancy)
}

func TestAssign_BedOccupied(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 3)

	_, err := f.assign(f.student(t, "1"), room, intPtr(1))
	require.NoError(t, err)

	_, err = f.assign(f.student(t, "2"), room, intPtr(1))
	assert.ErrorIs(t, err, ErrBedOccupied)
	assert.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)

	_, err = f.assign(f.student(t, "2"), room, intPtr(2))
	assert.NoError(t, err)
}

func TestAssign_FailureOrder(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	full := f.room(t, block.ID, "101", 1)
	holder := f.student(t, "1")
	_, err := f.assign(holder, full, intPtr(1))
	require.NoError(t, err)

	t.Run("already allocated before room full", func(t *testing.T) {
		_, err := f.assign(holder, full, intPtr(1))
		assert.ErrorIs(t, err, ErrAlreadyAllocated)
	})
	t.Run("already allocated before unknown room", func(t *testing.T) {
		_, err := f.allocations.Assign(ctx(), AssignInput{
			StudentID: holder.ID, BlockID: block.ID, RoomID: 9999, AcademicYear: "2024-25", Semester: "Odd",
		}, f.admin.ID)
		assert.ErrorIs(t, err, ErrAlreadyAllocated)
	})
	t.Run("room full before bed occupied", func(t *testing.T) {
		_, err := f.assign(f.student(t, "2"), full, intPtr(1))
		assert.ErrorIs(t, err, ErrRoomFull)
	})
	t.Run("unknown room", func(t *testing.T) {
		_, err := f.allocations.Assign(ctx(), AssignInput{
			StudentID: f.student(t, "3").ID, BlockID: block.ID, RoomID: 9999, AcademicYear: "2024-25", Semester: "Odd",
		}, f.admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("unknown student", func(t *testing.T) {
		_, err := f.allocations.Assign(ctx(), AssignInput{
			StudentID: 9999, BlockID: block.ID, RoomID: full.ID, AcademicYear: "2024-25", Semester: "Odd",
		}, f.admin.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAssign_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.block(t, "BLK-A")
	b := f.block(t, "BLK-B")
	room := f.room(t, a.ID, "101", 2)
	student := f.student(t, "1")

	cases := map[string]AssignInput{
		"missing year":      {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, Semester: "Odd"},
		"missing semester":  {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25"},
		"bed zero":          {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd", BedNumber: intPtr(0)},
		"bed above four":    {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd", BedNumber: intPtr(5)},
		"bed above room":    {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd", BedNumber: intPtr(3)},
		"block mismatch":    {StudentID: student.ID, BlockID: b.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd"},
		"negative fees":     {StudentID: student.ID, BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd", FeesAmount: func() *float64 { v := -1.0; return &v }()},
		"missing student":   {BlockID: a.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd"},
		"missing room":      {StudentID: student.ID, BlockID: a.ID, AcademicYear: "2024-25", Semester: "Odd"},
		"missing the block": {StudentID: student.ID, RoomID: room.ID, AcademicYear: "2024-25", Semester: "Odd"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.allocations.Assign(ctx(), input, f.admin.ID)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, f.reload(t, room.ID).CurrentOccupancy)
}

func TestAssign_ConcurrentLastBed(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 1)
	students := []*models.User{f.student(t, "1"), f.student(t, "2")}

	var wg sync.WaitGroup
	errs := make([]error, len(students))
	for i, s := range students {
		wg.Add(1)
		go func(i int, s *models.User) {
			defer wg.Done()
			_, errs[i] = f.assign(s, room, nil)
		}(i, s)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRoomFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, full)

	stored := f.reload(t, room.ID)
	assert.Equal(t, 1, stored.CurrentOccupancy)
	assert.Equal(t, models.RoomFull, stored.Status)
}

func TestAssign_ConcurrentNeverOverfills(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 4)

	var students []*models.User
	for i := 1; i <= 10; i++ {
		students = append(students, f.student(t, fmt.Sprint(i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, s := range students {
		wg.Add(1)
		go func(s *models.User) {
			defer wg.Done()
			if _, err := f.assign(s, room, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	assert.Equal(t, 4, f.reload(t, room.ID).CurrentOccupancy)

	active, err := f.allocRepo.CountActive()
	require.NoError(t, err)
	assert.EqualValues(t, 4, active)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	active, err := f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)
	ended, err := f.assign(f.student(t, "2"), room, nil)
	require.NoError(t, err)
	_, err = f.allocations.ChangeStatus(ctx(), ended.ID, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)

	// removing a vacated allocation leaves occupancy alone
	require.NoError(t, f.allocations.Remove(ctx(), ended.ID, f.admin.ID))
	assert.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)

	require.NoError(t, f.allocations.Remove(ctx(), active.ID, f.admin.ID))
	stored := f.reload(t, room.ID)
	assert.Equal(t, 0, stored.CurrentOccupancy)
	assert.Equal(t, models.RoomAvailable, stored.Status)

	_, err = f.allocations.GetAllocation(active.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.allocations.Remove(ctx(), active.ID, f.admin.ID), ErrNotFound)
}

func TestUpdateFields_LeavesOccupancy(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	a, err := f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)

	paid := true
	amount := 15000.0
	updated, err := f.allocations.UpdateFields(a.ID, UpdateAllocationInput{FeesPaid: &paid, FeesAmount: &amount}, f.admin.ID)
	require.NoError(t, err)
	assert.True(t, updated.FeesPaid)
	assert.Equal(t, 15000.0, updated.FeesAmount)
	assert.Equal(t, models.AllocationActive, updated.Status)
	assert.Equal(t, 1, f.reload(t, room.ID).CurrentOccupancy)

	negative := -5.0
	_, err = f.allocations.UpdateFields(a.ID, UpdateAllocationInput{FeesAmount: &negative}, f.admin.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetAllocation_LoadsDetails(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)
	a, err := f.assign(f.student(t, "1"), room, intPtr(2))
	require.NoError(t, err)

	got, err := f.allocations.GetAllocation(a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Room)
	require.NotNil(t, got.Block)
	require.NotNil(t, got.BedNumber)
	assert.Equal(t, "101", got.Room.RoomNumber)
	assert.Equal(t, "BLK-A", got.Block.Code)
	assert.Equal(t, 2, *got.BedNumber)
}

func TestListAllocations_Filters(t *testing.T) {
	f := newFixture(t)
	a := f.block(t, "BLK-A")
	b := f.block(t, "BLK-B")
	roomA := f.room(t, a.ID, "101", 2)
	roomB := f.room(t, b.ID, "101", 2)
	first, err := f.assign(f.student(t, "1"), roomA, nil)
	require.NoError(t, err)
	_, err = f.assign(f.student(t, "2"), roomB, nil)
	require.NoError(t, err)
	_, err = f.allocations.ChangeStatus(ctx(), first.ID, ChangeStatusInput{Status: models.AllocationVacated}, f.admin.ID)
	require.NoError(t, err)

	all, err := f.allocations.ListAllocations(repository.AllocationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inA, err := f.allocations.ListAllocations(repository.AllocationFilter{BlockID: &a.ID})
	require.NoError(t, err)
	require.Len(t, inA, 1)
	assert.Equal(t, first.ID, inA[0].ID)

	active := models.AllocationActive
	current, err := f.allocations.ListAllocations(repository.AllocationFilter{Status: &active})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, roomB.ID, current[0].RoomID)

	bogus := models.AllocationStatus("Pending")
	_, err = f.allocations.ListAllocations(repository.AllocationFilter{Status: &bogus})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.allocations.ListStudentAllocations(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOccupancyReport(t *testing.T) {
	f := newFixture(t)
	a := f.block(t, "BLK-A")
	b := f.block(t, "BLK-B")
	double := f.room(t, a.ID, "101", 2)
	f.room(t, a.ID, "102", 3)
	f.room(t, b.ID, "101", 1)

	for _, n := range []string{"1", "2"} {
		_, err := f.assign(f.student(t, n), double, nil)
		require.NoError(t, err)
	}

	report, err := f.allocations.OccupancyReport()
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.TotalBlocks)
	assert.EqualValues(t, 3, report.TotalRooms)
	assert.EqualValues(t, 2, report.TotalAllocations)
	assert.EqualValues(t, 6, report.TotalCapacity)
	assert.EqualValues(t, 4, report.AvailableBeds)
	assert.Equal(t, 0.33, report.OccupancyRate)
	assert.EqualValues(t, 1, report.RoomsByStatus[models.RoomFull])
	assert.EqualValues(t, 2, report.RoomsByStatus[models.RoomAvailable])
	assert.EqualValues(t, 0, report.RoomsByStatus[models.RoomMaintenance])
	require.Len(t, report.AllocationsByBlock, 1)
	assert.Equal(t, "Block BLK-A", report.AllocationsByBlock[0].BlockName)
	assert.EqualValues(t, 2, report.AllocationsByBlock[0].Count)
}

func TestOccupancyReport_Empty(t *testing.T) {
	f := newFixture(t)

	report, err := f.allocations.OccupancyReport()
	require.NoError(t, err)
	assert.Zero(t, report.TotalCapacity)
	assert.Zero(t, report.OccupancyRate)
	assert.NotNil(t, report.AllocationsByBlock)
	assert.Len(t, report.RoomsByStatus, 5)
}

func TestOccupancyReport_CacheFlushedOnAssign(t *testing.T) {
	f := newFixture(t)
	reports := NewReportCache(time.Minute)
	f.allocations.reports = reports
	f.rooms.reports = reports
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)

	report, err := f.allocations.OccupancyReport()
	require.NoError(t, err)
	assert.EqualValues(t, 0, report.TotalAllocations)

	cached, ok := reports.Get()
	require.True(t, ok)
	assert.EqualValues(t, 2, cached.TotalCapacity)

	_, err = f.assign(f.student(t, "1"), room, nil)
	require.NoError(t, err)
	_, ok = reports.Get()
	assert.False(t, ok)

	report, err = f.allocations.OccupancyReport()
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.TotalAllocations)
	assert.Equal(t, 0.5, report.OccupancyRate)
}

func TestAssign_WritesAuditAndEvent(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 2)

	a, err := f.assign(f.student(t, "1"), room, intPtr(1))
	require.NoError(t, err)

	logs, err := f.auditRepo.ListByEntity("room_allocation", a.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "allocation_create", logs[0].Action)
	assert.Contains(t, logs[0].Details, "STU1")

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, events.AllocationAssigned, event.Type)
	assert.Equal(t, a.ID, event.AllocationID)
	assert.Equal(t, room.ID, event.RoomID)
	assert.Equal(t, 1, event.Occupancy)
}

func TestActiveKeys_RejectSecondActiveRow(t *testing.T) {
	f := newFixture(t)
	block := f.block(t, "BLK-A")
	room := f.room(t, block.ID, "101", 3)
	student := f.student(t, "1")

	row := func(bed int) *models.RoomAllocation {
		return &models.RoomAllocation{
			StudentID:      student.ID,
			StudentCode:    "STU1",
			BlockID:        block.ID,
			RoomID:         room.ID,
			BedNumber:      intPtr(bed),
			AllocationDate: time.Now().UTC(),
			AcademicYear:   "2024-25",
			Semester:       "Odd",
			Status:         models.AllocationActive,
		}
	}
	require.NoError(t, f.allocRepo.CreateAllocation(row(1)))

	err := f.allocRepo.CreateAllocation(row(2))
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	ended := row(1)
	ended.Status = models.AllocationVacated
	assert.NoError(t, f.allocRepo.CreateAllocation(ended))
}
