package handler

import (
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	blockService *service.BlockService
}

func NewBlockHandler(blockService *service.BlockService) *BlockHandler {
	return &BlockHandler{
		blockService: blockService,
	}
}

// GetAllBlocks lists every hostel block
func (h *BlockHandler) GetAllBlocks(c *gin.Context) {
	blocks, err := h.blockService.ListBlocks()
	if err != nil {
		respondError(c, err, "Failed to fetch hostel blocks")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"blocks": blocks,
		"count":  len(blocks),
	})
}

// GetBlock retrieves one hostel block
func (h *BlockHandler) GetBlock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid block ID")
		return
	}

	block, err := h.blockService.GetBlock(id)
	if err != nil {
		respondError(c, err, "Failed to fetch hostel block")
		return
	}

	utils.SuccessResponse(c, block)
}

// CreateBlock creates a new hostel block (admin only)
func (h *BlockHandler) CreateBlock(c *gin.Context) {
	var req service.CreateBlockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	block, err := h.blockService.CreateBlock(req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to create hostel block")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Hostel block created successfully",
		"block":   block,
	})
}

// UpdateBlock applies a partial edit to a hostel block (admin only)
func (h *BlockHandler) UpdateBlock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid block ID")
		return
	}

	var req service.UpdateBlockInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	block, err := h.blockService.UpdateBlock(id, req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to update hostel block")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Hostel block updated successfully",
		"block":   block,
	})
}

// DeleteBlock removes a hostel block without rooms (admin only)
func (h *BlockHandler) DeleteBlock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid block ID")
		return
	}

	if err := h.blockService.DeleteBlock(id, actorID(c)); err != nil {
		respondError(c, err, "Failed to delete hostel block")
		return
	}

	utils.MessageResponse(c, "Hostel block deleted successfully")
}
