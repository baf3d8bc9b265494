package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutoring-api/internal/middleware"
	"github.com/noah-isme/tutoring-api/internal/models"
	"github.com/noah-isme/tutoring-api/internal/service"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Auth         *AuthHandler
	Availability *AvailabilityHandler
	Capability   *CapabilityHandler
	Match        *MatchHandler
	Pairing      *PairingHandler
	Broadcast    *BroadcastHandler
}

// Register attaches all routes under the given group. Everything except
// registration, login and password reset requires a token; tutor and
// admin routes additionally gate on role.
func Register(api *gin.RouterGroup, h Handlers, auth *service.AuthService) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/reset", h.Auth.RequestReset)
		authGroup.POST("/reset/confirm", h.Auth.ConfirmReset)
		authGroup.POST("/promote", middleware.JWT(auth), h.Auth.Promote)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	protected := api.Group("", middleware.JWT(auth))
	{
		protected.GET("/schedule", h.Availability.GetSchedule)
		protected.PUT("/schedule", h.Availability.PutSchedule)
		protected.GET("/schedule/effective", h.Availability.GetEffective)

		protected.POST("/match", h.Match.Match)
		protected.GET("/match/proposals", h.Match.Proposals)
		protected.POST("/match/select", h.Match.Select)
	}

	tutors := api.Group("", middleware.JWT(auth), middleware.MinRole(models.RoleTutor))
	{
		tutors.GET("/subjects", h.Capability.Get)
		tutors.PUT("/subjects", h.Capability.Put)
	}

	admin := api.Group("", middleware.JWT(auth), middleware.MinRole(models.RoleAdmin))
	{
		admin.GET("/pairings", h.Pairing.List)
		admin.DELETE("/pairings/:id", h.Pairing.Deactivate)
		admin.GET("/pairings/export/csv", h.Pairing.ExportCSV)
		admin.GET("/pairings/export/pdf", h.Pairing.ExportPDF)
		admin.POST("/broadcast", h.Broadcast.Send)
	}
}
