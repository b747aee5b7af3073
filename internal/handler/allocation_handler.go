package handler

import (
	"time"

	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AllocationHandler struct {
	allocationService *service.AllocationService
}

func NewAllocationHandler(allocationService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// UpdateAllocationRequest is the PUT body. A present status moves the allocation to a
// terminal state; without it only the plain fields are edited.
type UpdateAllocationRequest struct {
	Status     *models.AllocationStatus `json:"status"`
	VacateDate *time.Time               `json:"vacate_date"`
	Remarks    *string                  `json:"remarks"`
	FeesPaid   *bool                    `json:"fees_paid"`
	FeesAmount *float64                 `json:"fees_amount"`
}

// GetAllAllocations lists allocations, filtered by ?block=, ?status= and ?student=
func (h *AllocationHandler) GetAllAllocations(c *gin.Context) {
	blockID, ok := optionalUintQuery(c, "block")
	if !ok {
		badRequest(c, "Invalid block ID")
		return
	}
	studentID, ok := optionalUintQuery(c, "student")
	if !ok {
		badRequest(c, "Invalid student ID")
		return
	}
	filter := repository.AllocationFilter{BlockID: blockID, StudentID: studentID}
	if s := c.Query("status"); s != "" {
		status := models.AllocationStatus(s)
		filter.Status = &status
	}

	allocations, err := h.allocationService.ListAllocations(filter)
	if err != nil {
		respondError(c, err, "Failed to fetch allocations")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"allocations": allocations,
		"count":       len(allocations),
	})
}

// GetAllocation retrieves one allocation
func (h *AllocationHandler) GetAllocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid allocation ID")
		return
	}

	allocation, err := h.allocationService.GetAllocation(id)
	if err != nil {
		respondError(c, err, "Failed to fetch allocation")
		return
	}

	utils.SuccessResponse(c, allocation)
}

// GetStudentAllocations returns one student's allocation history
func (h *AllocationHandler) GetStudentAllocations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid student ID")
		return
	}

	allocations, err := h.allocationService.ListStudentAllocations(id)
	if err != nil {
		respondError(c, err, "Failed to fetch student allocations")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"allocations": allocations,
		"count":       len(allocations),
	})
}

// CreateAllocation assigns a bed to a student (warden or admin)
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	var req service.AssignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	allocation, err := h.allocationService.Assign(c.Request.Context(), req, actorID(c))
	if err != nil {
		respondError(c, err, "Failed to assign room")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":    "Room allocated successfully",
		"allocation": allocation,
	})
}

// UpdateAllocation changes status or edits fields of an allocation (warden or admin)
func (h *AllocationHandler) UpdateAllocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid allocation ID")
		return
	}

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var (
		allocation *models.RoomAllocation
		err        error
	)
	if req.Status != nil {
		allocation, err = h.allocationService.ChangeStatus(c.Request.Context(), id, service.ChangeStatusInput{
			Status:     *req.Status,
			VacateDate: req.VacateDate,
			Remarks:    req.Remarks,
			FeesPaid:   req.FeesPaid,
			FeesAmount: req.FeesAmount,
		}, actorID(c))
	} else {
		allocation, err = h.allocationService.UpdateFields(id, service.UpdateAllocationInput{
			FeesPaid:   req.FeesPaid,
			FeesAmount: req.FeesAmount,
			Remarks:    req.Remarks,
			VacateDate: req.VacateDate,
		}, actorID(c))
	}
	if err != nil {
		respondError(c, err, "Failed to update allocation")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":    "Allocation updated successfully",
		"allocation": allocation,
	})
}

// DeleteAllocation removes an allocation, releasing its bed when still active (warden or admin)
func (h *AllocationHandler) DeleteAllocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		badRequest(c, "Invalid allocation ID")
		return
	}

	if err := h.allocationService.Remove(c.Request.Context(), id, actorID(c)); err != nil {
		respondError(c, err, "Failed to delete allocation")
		return
	}

	utils.MessageResponse(c, "Allocation deleted successfully")
}

// GetStats returns the hostel occupancy report
func (h *AllocationHandler) GetStats(c *gin.Context) {
	report, err := h.allocationService.OccupancyReport()
	if err != nil {
		respondError(c, err, "Failed to build occupancy report")
		return
	}

	utils.SuccessResponse(c, report)
}
