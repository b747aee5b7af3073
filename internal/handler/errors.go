package handler

import (
	"log"
	"net/http"
	"strconv"

	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error kind onto an HTTP status
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict, service.KindAlreadyAllocated, service.KindRoomFull,
		service.KindCapacityExceeded, service.KindBedOccupied:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a domain error with its kind, or a generic 500 for anything else
func respondError(c *gin.Context, err error, fallback string) {
	kind := service.KindOf(err)
	if kind == "" {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.ErrorResponse(c, http.StatusInternalServerError, fallback)
		return
	}
	utils.CodedErrorResponse(c, statusFor(kind), string(kind), err.Error())
}

func badRequest(c *gin.Context, message string) {
	utils.CodedErrorResponse(c, http.StatusBadRequest, string(service.KindValidation), message)
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// optionalUintQuery reads a numeric query parameter; absent means nil
func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, false
	}
	id := uint(v)
	return &id, true
}

func actorID(c *gin.Context) uint {
	return c.GetUint("userID")
}
