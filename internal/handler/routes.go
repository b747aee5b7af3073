package handler

import (
	"campus-hostel-backend/internal/middleware"
	"campus-hostel-backend/internal/models"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API exposes
type Handlers struct {
	Auth        *AuthHandler
	Blocks      *BlockHandler
	Rooms       *RoomHandler
	Allocations *AllocationHandler
}

// RegisterRoutes mounts the public health check and the /api/v1 tree.
// Extra middleware (rate limiting) is applied to the API group only.
func RegisterRoutes(r *gin.Engine, h Handlers, apiMiddleware ...gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "campus-hostel-backend",
		})
	})

	api := r.Group("/api/v1")
	api.Use(apiMiddleware...)

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	hostel := api.Group("/hostel")
	hostel.Use(middleware.AuthMiddleware())
	{
		hostel.GET("/blocks", h.Blocks.GetAllBlocks)
		hostel.GET("/blocks/:id", h.Blocks.GetBlock)
		hostel.POST("/blocks", middleware.RequireAdmin(), h.Blocks.CreateBlock)
		hostel.PUT("/blocks/:id", middleware.RequireAdmin(), h.Blocks.UpdateBlock)
		hostel.DELETE("/blocks/:id", middleware.RequireAdmin(), h.Blocks.DeleteBlock)

		hostel.GET("/rooms", h.Rooms.GetAllRooms)
		hostel.GET("/rooms/:id", h.Rooms.GetRoom)
		hostel.POST("/rooms", middleware.RequireAdmin(), h.Rooms.CreateRoom)
		hostel.PUT("/rooms/:id", middleware.RequireAdmin(), h.Rooms.UpdateRoom)
		hostel.DELETE("/rooms/:id", middleware.RequireAdmin(), h.Rooms.DeleteRoom)

		staff := middleware.RequireRoles(middleware.HostelStaff...)
		hostel.GET("/allocations", h.Allocations.GetAllAllocations)
		hostel.GET("/allocations/:id", h.Allocations.GetAllocation)
		hostel.POST("/allocations", staff, h.Allocations.CreateAllocation)
		hostel.PUT("/allocations/:id", staff, h.Allocations.UpdateAllocation)
		hostel.DELETE("/allocations/:id", staff, h.Allocations.DeleteAllocation)

		hostel.GET("/students/:id/allocations",
			middleware.RequireSelfOrRoles("id", models.RoleWarden, models.RoleAdmin, models.RolePrincipal, models.RoleHOD),
			h.Allocations.GetStudentAllocations)

		hostel.GET("/stats", h.Allocations.GetStats)
	}
}
