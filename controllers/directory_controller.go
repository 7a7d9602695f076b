package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docuvault/middleware"
	"docuvault/services"
	"docuvault/utils"
)

type DirectoryController struct {
	directoryService *services.DirectoryService
}

func NewDirectoryController(directoryService *services.DirectoryService) *DirectoryController {
	return &DirectoryController{directoryService: directoryService}
}

// parseObjectID reads a path parameter as an ObjectID, responding 400 itself
// when the format is wrong.
func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid id format")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseOptionalObjectID reads an optional hex id from a request field.
func parseOptionalObjectID(raw *string) (*primitive.ObjectID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateDirectory handles POST /directories.
func (dc *DirectoryController) CreateDirectory(c *gin.Context) {
	var req struct {
		Name        string                 `json:"name" binding:"required"`
		ParentID    *string                `json:"parent_id,omitempty"`
		Description string                 `json:"description,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	parentID, err := parseOptionalObjectID(req.ParentID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid parent directory id format")
		return
	}

	dir, err := dc.directoryService.Create(c.Request.Context(), middleware.Actor(c), services.CreateDirectoryRequest{
		Name:        req.Name,
		ParentID:    parentID,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "Directory created", dir)
}

// ListDirectories handles GET /directories?parent_id=.
func (dc *DirectoryController) ListDirectories(c *gin.Context) {
	var parentID *primitive.ObjectID
	if raw := c.Query("parent_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid parent directory id format")
			return
		}
		parentID = &id
	}

	dirs, err := dc.directoryService.ListChildren(c.Request.Context(), parentID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directories retrieved", dirs)
}

// GetTree handles GET /directories/tree.
func (dc *DirectoryController) GetTree(c *gin.Context) {
	tree, err := dc.directoryService.Tree(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory tree retrieved", tree)
}

// GetDirectory handles GET /directories/:id.
func (dc *DirectoryController) GetDirectory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	dir, err := dc.directoryService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory retrieved", dir)
}

// GetPathChain handles GET /directories/:id/path.
func (dc *DirectoryController) GetPathChain(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	chain, err := dc.directoryService.PathChain(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Path chain retrieved", chain)
}

// GetStats handles GET /directories/:id/stats.
func (dc *DirectoryController) GetStats(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	stats, err := dc.directoryService.Stats(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory stats retrieved", stats)
}

// UpdateDirectory handles PUT /directories/:id.
func (dc *DirectoryController) UpdateDirectory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string                `json:"name,omitempty"`
		Description *string                `json:"description,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	dir, err := dc.directoryService.Update(c.Request.Context(), middleware.Actor(c), id, services.UpdateDirectoryRequest{
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory updated", dir)
}

// MoveDirectory handles PATCH /directories/:id/move.
func (dc *DirectoryController) MoveDirectory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		NewParentID *string `json:"new_parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	newParentID, err := parseOptionalObjectID(req.NewParentID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid new parent id format")
		return
	}

	dir, err := dc.directoryService.Move(c.Request.Context(), middleware.Actor(c), id, newParentID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory moved", dir)
}

// ReorderDirectories handles PATCH /directories/order.
func (dc *DirectoryController) ReorderDirectories(c *gin.Context) {
	var req struct {
		DirectoryIDs []string `json:"directory_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(req.DirectoryIDs))
	for _, raw := range req.DirectoryIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid directory id format")
			return
		}
		ids = append(ids, id)
	}

	if err := dc.directoryService.Reorder(c.Request.Context(), middleware.Actor(c), ids); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directories reordered", nil)
}

// DeleteDirectory handles DELETE /directories/:id?force=.
func (dc *DirectoryController) DeleteDirectory(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	if err := dc.directoryService.Delete(c.Request.Context(), middleware.Actor(c), id, force); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Directory deleted", nil)
}
