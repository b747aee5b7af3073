package repository

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("refresh token not found or revoked")
	ErrBlockNotFound      = errors.New("hostel block not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrOccupancyOutOfRange is returned when an occupancy change would leave [0, capacity]
	ErrOccupancyOutOfRange = errors.New("room occupancy out of range")
)
