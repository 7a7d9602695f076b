package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/middleware"
	"docuvault/services"
	"docuvault/utils"
)

type FileController struct {
	fileService *services.FileService
}

func NewFileController(fileService *services.FileService) *FileController {
	return &FileController{fileService: fileService}
}

// UploadFile handles POST /files (multipart: file, directory_id,
// description).
func (fc *FileController) UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Multipart field 'file' is required")
		return
	}

	dirID, err := primitive.ObjectIDFromHex(c.PostForm("directory_id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid directory id format")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Could not read uploaded file")
		return
	}
	defer src.Close()

	file, err := fc.fileService.Upload(c.Request.Context(), middleware.Actor(c), services.UploadRequest{
		Reader:      src,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		DirectoryID: dirID,
		Description: c.PostForm("description"),
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "File uploaded", file)
}

// ListFiles handles GET /files?directory_id=&pattern=&mime=&ext=.
func (fc *FileController) ListFiles(c *gin.Context) {
	var dirID *primitive.ObjectID
	if raw := c.Query("directory_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid directory id format")
			return
		}
		dirID = &id
	}

	files, err := fc.fileService.List(c.Request.Context(), services.FileQuery{
		DirectoryID: dirID,
		Pattern:     c.Query("pattern"),
		Mime:        c.Query("mime"),
		Extension:   c.Query("ext"),
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Files retrieved", files)
}

// GetFile handles GET /files/:id.
func (fc *FileController) GetFile(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	file, err := fc.fileService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "File retrieved", file)
}

// DownloadFile handles GET /files/:id/download?inline=. It streams the
// content from disk under the file's original name.
func (fc *FileController) DownloadFile(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	file, content, err := fc.fileService.Open(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	defer content.Close()

	disposition := "attachment"
	if c.Query("inline") == "true" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.OriginalName))
	c.Header("Content-Type", file.Mime)
	c.Header("Content-Length", fmt.Sprintf("%d", file.Size))
	c.Status(http.StatusOK)
	io.Copy(c.Writer, content)
}

// DeleteFile handles DELETE /files/:id.
func (fc *FileController) DeleteFile(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := fc.fileService.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "File deleted", nil)
}
