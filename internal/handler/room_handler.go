package handler

import (
	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
	}
}

// GetAllRooms lists rooms, optionally filtered by ?block= and ?status=
func (h *RoomHandler) GetAllRooms(c *gin.Context) {
	blockID, ok := optionalUintQuery(c, "block")
	if !ok {
		badRequest(c, "Invalid block ID")
		return
	}
	filter := repository.RoomFilter{BlockID: blockID}
	if s := c.Query("status"); s != "" {
		status := models.RoomStatus(s)
		filter.Status = &status
	}

	rooms, err := h.roomService.ListRooms(filter)
	if err != nil {
		respondError(c, err, "Failed to fetch rooms")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// GetRoom retrieves a room with its active allocations
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid room ID")
		return
	}

	room, err := h.roomService.GetRoom(id)
	if err != nil {
		respondError(c, err, "Failed to fetch room")
		return
	}

	utils.SuccessResponse(c, room)
}

// CreateRoom creates a new room (admin only)
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req service.CreateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create room")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Room created successfully",
		"room":    room,
	})
}

// UpdateRoom updates an existing room (admin only)
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid room ID")
		return
	}

	var req service.UpdateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	room, err := h.roomService.UpdateRoom(id, req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to update room")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Room updated successfully",
		"room":    room,
	})
}

// DeleteRoom removes an empty room (admin only)
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid room ID")
		return
	}

	if err := h.roomService.DeleteRoom(id, actorID(c)); err != nil {
		respondError(c, err, "Failed to delete room")
		return
	}

	utils.MessageResponse(c, "Room deleted successfully")
}
