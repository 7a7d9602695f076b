package routes

import (
	"github.com/gin-gonic/gin"

	"docuvault/controllers"
	"docuvault/middleware"
	"docuvault/services"
)

func RegisterFileRoutes(rg *gin.RouterGroup, jwtSecret string, fileService *services.FileService) {
	fileController := controllers.NewFileController(fileService)

	files := rg.Group("/files")
	files.Use(middleware.AuthMiddleware(jwtSecret))
	{
		files.POST("", fileController.UploadFile)
		files.GET("", fileController.ListFiles)
		files.GET("/:id", fileController.GetFile)
		files.GET("/:id/download", fileController.DownloadFile)
		files.DELETE("/:id", fileController.DeleteFile)
	}
}
