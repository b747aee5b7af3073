package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveRoomStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   RoomStatus
		occupancy int
		capacity  int
		want      RoomStatus
	}{
		{"empty", RoomAvailable, 0, 2, RoomAvailable},
		{"empty after full", RoomFull, 0, 2, RoomAvailable},
		{"empty under maintenance", RoomMaintenance, 0, 2, RoomMaintenance},
		{"empty reserved", RoomReserved, 0, 3, RoomReserved},
		{"partly filled", RoomAvailable, 1, 2, RoomOccupied},
		{"maintenance lost once occupied", RoomMaintenance, 1, 3, RoomOccupied},
		{"full", RoomOccupied, 2, 2, RoomFull},
		{"single bed", RoomAvailable, 1, 1, RoomFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveRoomStatus(tt.current, tt.occupancy, tt.capacity))
		})
	}
}

func TestRoomAvailableBeds(t *testing.T) {
	assert.Equal(t, 2, (&Room{Capacity: 3, CurrentOccupancy: 1}).AvailableBeds())
	assert.Equal(t, 0, (&Room{Capacity: 2, CurrentOccupancy: 2}).AvailableBeds())
}

func TestBlockTotalRooms(t *testing.T) {
	b := &HostelBlock{Floors: 4, RoomsPerFloor: 25}
	require.NoError(t, b.BeforeSave(nil))
	assert.Equal(t, 100, b.TotalRooms)
	assert.Equal(t, WardenUnassigned, b.WardenName)
	assert.Equal(t, 0, TotalRooms(0, 10))
}

func TestSyncActiveKeys(t *testing.T) {
	bed := 2
	a := &RoomAllocation{StudentID: 9, RoomID: 4, BedNumber: &bed, Status: AllocationActive}
	a.SyncActiveKeys()
	require.NotNil(t, a.ActiveStudentKey)
	require.NotNil(t, a.ActiveBedKey)
	assert.Equal(t, uint(9), *a.ActiveStudentKey)
	assert.Equal(t, "4:2", *a.ActiveBedKey)

	a.BedNumber = nil
	a.SyncActiveKeys()
	assert.NotNil(t, a.ActiveStudentKey)
	assert.Nil(t, a.ActiveBedKey)

	a.Status = AllocationVacated
	a.SyncActiveKeys()
	assert.Nil(t, a.ActiveStudentKey)
	assert.Nil(t, a.ActiveBedKey)
}

func TestStatusesAndRoles(t *testing.T) {
	assert.True(t, AllocationTransferred.Terminal())
	assert.False(t, AllocationActive.Terminal())
	assert.False(t, AllocationStatus("Pending").Valid())
	assert.True(t, RoomFourBed.Valid())
	assert.False(t, RoomCategory("Quad").Valid())
	assert.True(t, BlockCoed.Valid())
	assert.True(t, ValidRole(RoleHOD))
	assert.False(t, ValidRole("dean"))
}
