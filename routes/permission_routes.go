package routes

import (
	"github.com/gin-gonic/gin"

	"docuvault/controllers"
	"docuvault/middleware"
	"docuvault/services"
)

func RegisterPermissionRoutes(rg *gin.RouterGroup, jwtSecret string, permissionService *services.PermissionService) {
	permissionController := controllers.NewPermissionController(permissionService)

	permissions := rg.Group("/permissions")
	permissions.Use(middleware.AuthMiddleware(jwtSecret))
	{
		permissions.GET("/directories/:id/permissions", permissionController.GetPermissions)
		permissions.PUT("/directories/:id/permissions", permissionController.SetPermissions)
		permissions.DELETE("/directories/:id/permissions", permissionController.DeletePermissions)
		permissions.POST("/directories/:id/permissions/check", permissionController.CheckPermission)
		permissions.POST("/directories/:id/permissions/template", permissionController.ApplyTemplate)
	}
}
