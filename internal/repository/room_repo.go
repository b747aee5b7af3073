package repository

import (
	"errors"

	"campus-hostel-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// RoomFilter narrows ListRooms; nil fields match everything
type RoomFilter struct {
	BlockID *uint
	Status  *models.RoomStatus
}

// ListRooms retrieves rooms ordered by block, floor and room number
func (r *RoomRepository) ListRooms(filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room
	q := r.db.Preload("Block")
	if filter.BlockID != nil {
		q = q.Where("block_id = ?", *filter.BlockID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	err := q.Order("block_id ASC, floor ASC, room_number ASC").Find(&rooms).Error
	return rooms, err
}

// GetRoomByID retrieves a room by ID
func (r *RoomRepository) GetRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// GetRoomWithBlock retrieves a room with its block preloaded
func (r *RoomRepository) GetRoomWithBlock(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Preload("Block").First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// LockRoomByID reads a room holding a row lock until the surrounding transaction ends.
// SQLite has no row locks; there the transaction's write lock serializes writers instead.
func (r *RoomRepository) LockRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// RoomNumberTaken reports whether the block already has a room with this number
func (r *RoomRepository) RoomNumberTaken(blockID uint, number string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&models.Room{}).Where("block_id = ? AND room_number = ?", blockID, number)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRoomsByBlock returns how many rooms reference a block
func (r *RoomRepository) CountRoomsByBlock(blockID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Room{}).Where("block_id = ?", blockID).Count(&count).Error
	return count, err
}

// CreateRoom creates a new room
func (r *RoomRepository) CreateRoom(room *models.Room) error {
	return r.db.Omit(clause.Associations).Create(room).Error
}

// UpdateRoom writes an existing room. Occupancy is only changed through AdjustOccupancy and ReleaseOccupancy.
func (r *RoomRepository) UpdateRoom(room *models.Room) error {
	return r.db.Omit(clause.Associations, "current_occupancy").Save(room).Error
}

// DeleteRoom removes a room permanently
func (r *RoomRepository) DeleteRoom(id uint) error {
	res := r.db.Delete(&models.Room{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// AdjustOccupancy adds delta to a room's occupancy with a single conditional UPDATE.
// The row is only touched when the result stays within [0, capacity]; otherwise
// ErrOccupancyOutOfRange is returned and nothing changes. The status is re-derived afterwards.
func (r *RoomRepository) AdjustOccupancy(id uint, delta int) (*models.Room, error) {
	res := r.db.Model(&models.Room{}).
		Where("id = ? AND current_occupancy + ? >= 0 AND current_occupancy + ? <= capacity", id, delta, delta).
		UpdateColumns(map[string]interface{}{
			"current_occupancy": gorm.Expr("current_occupancy + ?", delta),
			"updated_at":        r.db.NowFunc(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.mustExist(id); err != nil {
			return nil, err
		}
		return nil, ErrOccupancyOutOfRange
	}
	return r.refreshStatus(id)
}

// ReleaseOccupancy decrements a room's occupancy by one, never going below zero
func (r *RoomRepository) ReleaseOccupancy(id uint) (*models.Room, error) {
	res := r.db.Model(&models.Room{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"current_occupancy": gorm.Expr("CASE WHEN current_occupancy > 0 THEN current_occupancy - 1 ELSE 0 END"),
			"updated_at":        r.db.NowFunc(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrRoomNotFound
	}
	return r.refreshStatus(id)
}

func (r *RoomRepository) mustExist(id uint) error {
	var count int64
	if err := r.db.Model(&models.Room{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// refreshStatus reloads the room and stores the status derived from its new occupancy
func (r *RoomRepository) refreshStatus(id uint) (*models.Room, error) {
	room, err := r.GetRoomByID(id)
	if err != nil {
		return nil, err
	}
	status := models.DeriveRoomStatus(room.Status, room.CurrentOccupancy, room.Capacity)
	if status == room.Status {
		return room, nil
	}
	err = r.db.Model(&models.Room{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
	if err != nil {
		return nil, err
	}
	room.Status = status
	return room, nil
}

// RoomStatusCount is one row of the rooms-by-status breakdown
type RoomStatusCount struct {
	Status models.RoomStatus
	Count  int64
}

// CountRoomsByStatus groups all rooms by status
func (r *RoomRepository) CountRoomsByStatus() ([]RoomStatusCount, error) {
	var rows []RoomStatusCount
	err := r.db.Model(&models.Room{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// CapacityTotals returns the number of rooms and the sum of their capacities
func (r *RoomRepository) CapacityTotals() (rooms int64, capacity int64, err error) {
	var row struct {
		Rooms    int64
		Capacity int64
	}
	err = r.db.Model(&models.Room{}).
		Select("COUNT(*) AS rooms, COALESCE(SUM(capacity), 0) AS capacity").
		Scan(&row).Error
	return row.Rooms, row.Capacity, err
}
