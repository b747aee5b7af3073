package seed

import (
	"context"
	"testing"

	"campus-hostel-backend/internal/database"
	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestSeeder(t *testing.T) (*Seeder, *service.AllocationService) {
	t.Helper()
	utils.BcryptCost = bcrypt.MinCost
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	blockRepo := repository.NewBlockRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)
	reports := service.NewReportCache(0)
	rooms := service.NewRoomService(db, roomRepo, blockRepo, allocationRepo, auditRepo, reports)
	allocations := service.NewAllocationService(db, allocationRepo, roomRepo, rooms, blockRepo, userRepo, auditRepo, nil, reports)

	seeder := NewSeeder(
		db,
		userRepo,
		service.NewAuthService(userRepo, auditRepo),
		service.NewBlockService(db, blockRepo, roomRepo, userRepo, auditRepo, reports),
		rooms,
		allocations,
	)
	return seeder, allocations
}

var smallCampus = []BlockTemplate{
	{Name: "Block A - Boys", Code: "BLK-A", Category: models.BlockBoys, Floors: 2, RoomsPerFloor: 3},
	{Name: "Block C - Girls", Code: "BLK-C", Category: models.BlockGirls, Floors: 1, RoomsPerFloor: 2},
}

func TestSeed(t *testing.T) {
	seeder, allocations := newTestSeeder(t)

	summary, err := seeder.Seed(context.Background(), Options{Blocks: smallCampus, SampleStudents: 3, FeesAmount: 15000})
	require.NoError(t, err)
	assert.Equal(t, &Summary{Blocks: 2, Rooms: 8, Students: 3, Allocations: 3}, summary)

	report, err := allocations.OccupancyReport()
	require.NoError(t, err)
	assert.EqualValues(t, 8, report.TotalRooms)
	assert.EqualValues(t, 3, report.TotalAllocations)
	// rooms 0-2 of a block are doubles, 3-6 triples, the rest four-bed
	assert.EqualValues(t, 2*3+3*3+2*2, report.TotalCapacity)
	assert.EqualValues(t, 3, report.RoomsByStatus[models.RoomOccupied])
}

func TestSeed_IsRepeatable(t *testing.T) {
	seeder, allocations := newTestSeeder(t)

	_, err := seeder.Seed(context.Background(), Options{Blocks: smallCampus, SampleStudents: 2})
	require.NoError(t, err)
	summary, err := seeder.Seed(context.Background(), Options{Blocks: smallCampus, SampleStudents: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Allocations)

	report, err := allocations.OccupancyReport()
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.TotalBlocks)
	assert.EqualValues(t, 2, report.TotalAllocations)

	require.NoError(t, seeder.Clear())
	report, err = allocations.OccupancyReport()
	require.NoError(t, err)
	assert.Zero(t, report.TotalBlocks)
	assert.Zero(t, report.TotalRooms)
}

func TestRoomNumberAndLayout(t *testing.T) {
	assert.Equal(t, "207", RoomNumber(2, 7))
	assert.Equal(t, "112", RoomNumber(1, 12))

	capacity, category := RoomLayout(0)
	assert.Equal(t, 2, capacity)
	assert.Equal(t, models.RoomDouble, category)
	capacity, category = RoomLayout(4)
	assert.Equal(t, 3, capacity)
	assert.Equal(t, models.RoomTriple, category)
	capacity, category = RoomLayout(19)
	assert.Equal(t, 4, capacity)
	assert.Equal(t, models.RoomFourBed, category)
}
