package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ssug-dev/ssug-api/internal/middleware"
	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Periods     *PeriodHandler
	Activities  *ActivityHandler
	Collectives *CollectiveHandler
	Contacts    *ContactHandler
	Users       *UserHandler
	Admins      *AdminHandler
	Reports     *ReportHandler
	QRCodes     *QRCodeHandler
}

// RegisterRoutes mounts the API under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/admin/login", h.Auth.LoginAdmin)
	api.POST("/auth/login", h.Auth.LoginUser)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	staffRead := middleware.RequireAdmin()
	staffWrite := middleware.RequireAdmin(models.RoleSuperadmin, models.RoleAdmin)
	reviewer := middleware.RequireAdmin(models.RoleSuperadmin, models.RoleAdmin, models.RoleValidador)
	superOnly := middleware.RequireAdmin(models.RoleSuperadmin)

	periods := protected.Group("/periods")
	{
		periods.GET("", staffRead, h.Periods.List)
		periods.POST("", staffWrite, h.Periods.Create)
		periods.GET("/:id", staffRead, h.Periods.Get)
		periods.PUT("/:id/dates", staffWrite, h.Periods.UpdateDates)
		periods.PUT("/:id/status", staffWrite, h.Periods.UpdateStatus)
		periods.DELETE("/:id", staffWrite, h.Periods.Delete)
		periods.GET("/:id/download", staffRead, h.Periods.Download)

		periods.GET("/:id/activities", staffRead, h.Activities.ByPeriod)
		periods.GET("/:id/areas", staffRead, h.Activities.AreaCounts)
		periods.GET("/:id/final-report", staffRead, h.Activities.FinalReport)
		periods.GET("/:id/collectives", staffRead, h.Collectives.ByPeriod)
		periods.GET("/:id/collectives/areas", staffRead, h.Collectives.AreaCounts)
		periods.GET("/:id/contacts", staffRead, h.Contacts.ByPeriod)
	}

	activities := protected.Group("/activities")
	{
		activities.POST("", h.Activities.Create)
		activities.GET("/:id", staffRead, h.Activities.Get)
		activities.PUT("/:id", reviewer, h.Activities.Update)
		activities.PUT("/:id/evidence", h.Activities.UploadEvidence)
		activities.PUT("/:id/status", reviewer, h.Activities.UpdateStatus)
		activities.DELETE("/:id", staffWrite, h.Activities.Delete)
	}

	collectives := protected.Group("/collectives")
	{
		collectives.POST("", h.Collectives.Create)
		collectives.PUT("/:id/status", reviewer, h.Collectives.UpdateStatus)
		collectives.DELETE("/:id", staffWrite, h.Collectives.Delete)
	}

	users := protected.Group("/users")
	{
		users.GET("", staffRead, h.Users.List)
		users.POST("", staffWrite, h.Users.Create)
		users.GET("/:id", middleware.RequireSelfOrAdmin(), h.Users.Get)
		users.PUT("/:id", middleware.RequireSelfOrAdmin(), h.Users.Update)
		users.DELETE("/:id", staffWrite, h.Users.Delete)
		users.GET("/:id/activities", middleware.RequireSelfOrAdmin(), h.Activities.ByUser)
	}

	admins := protected.Group("/admins")
	{
		admins.GET("", staffRead, h.Admins.List)
		admins.GET("/:id", staffRead, h.Admins.Get)
		admins.POST("", superOnly, h.Admins.Create)
		admins.PUT("/:id", superOnly, h.Admins.Update)
		admins.DELETE("/:id", superOnly, h.Admins.Delete)
	}

	contacts := protected.Group("/contacts")
	{
		contacts.POST("", reviewer, h.Contacts.Create)
		contacts.PUT("/:id", reviewer, h.Contacts.Update)
		contacts.DELETE("/:id", staffWrite, h.Contacts.Delete)
	}

	reports := protected.Group("/reports")
	{
		reports.GET("/period/:periodId", staffRead, h.Reports.DownloadPeriod)
		reports.GET("/career/:periodId", staffRead, h.Reports.DownloadCareer)
		reports.GET("/final/:periodId", staffRead, h.Reports.DownloadFinalXLSX)
	}

	codes := protected.Group("/qr-codes")
	{
		codes.GET("", h.QRCodes.List)
		codes.POST("", superOnly, h.QRCodes.Create)
		codes.PUT("/:id", superOnly, h.QRCodes.Update)
		codes.DELETE("/:id", superOnly, h.QRCodes.Delete)
	}
}
