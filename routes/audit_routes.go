package routes

import (
	"github.com/gin-gonic/gin"

	"docuvault/controllers"
	"docuvault/middleware"
	"docuvault/services"
)

func RegisterAuditRoutes(rg *gin.RouterGroup, jwtSecret string, auditService *services.AuditService) {
	auditController := controllers.NewAuditController(auditService)

	audits := rg.Group("/audits")
	audits.Use(middleware.AuthMiddleware(jwtSecret))
	{
		audits.GET("/events", auditController.QueryEvents)
	}
}
