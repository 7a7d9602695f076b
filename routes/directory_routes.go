package routes

import (
	"github.com/gin-gonic/gin"

	"docuvault/controllers"
	"docuvault/middleware"
	"docuvault/services"
)

func RegisterDirectoryRoutes(rg *gin.RouterGroup, jwtSecret string, directoryService *services.DirectoryService) {
	directoryController := controllers.NewDirectoryController(directoryService)

	directories := rg.Group("/directories")
	directories.Use(middleware.AuthMiddleware(jwtSecret))
	{
		directories.POST("", directoryController.CreateDirectory)
		directories.GET("", directoryController.ListDirectories)
		directories.GET("/tree", directoryController.GetTree)
		directories.PATCH("/order", directoryController.ReorderDirectories)
		directories.GET("/:id", directoryController.GetDirectory)
		directories.GET("/:id/path", directoryController.GetPathChain)
		directories.GET("/:id/stats", directoryController.GetStats)
		directories.PUT("/:id", directoryController.UpdateDirectory)
		directories.PATCH("/:id/move", directoryController.MoveDirectory)
		directories.DELETE("/:id", directoryController.DeleteDirectory)
	}
}
