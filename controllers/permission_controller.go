package controllers

import (
	"github.com/gin-gonic/gin"

	"docuvault/middleware"
	"docuvault/models"
	"docuvault/services"
	"docuvault/utils"
)

type PermissionController struct {
	permissionService *services.PermissionService
}

func NewPermissionController(permissionService *services.PermissionService) *PermissionController {
	return &PermissionController{permissionService: permissionService}
}

// GetPermissions handles GET /directories/:id/permissions?effective=. With
// effective=true it returns the merged inherited rule set instead of the
// directory's own.
func (pc *PermissionController) GetPermissions(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if c.Query("effective") == "true" {
		rules, err := pc.permissionService.Effective(c.Request.Context(), id, nil)
		if err != nil {
			utils.AppErrorResponse(c, err)
			return
		}
		utils.SuccessResponse(c, "Effective permissions retrieved", gin.H{
			"directory_id": id.Hex(),
			"rules":        rules,
		})
		return
	}

	cfg, err := pc.permissionService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Permissions retrieved", cfg)
}

// SetPermissions handles PUT /directories/:id/permissions, replacing the
// whole rule set.
func (pc *PermissionController) SetPermissions(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rules []models.PermissionRule `json:"rules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	cfg, err := pc.permissionService.Set(c.Request.Context(), middleware.Actor(c), id, req.Rules)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Permissions updated", cfg)
}

// DeletePermissions handles DELETE /directories/:id/permissions. Inherited
// rules keep applying afterwards.
func (pc *PermissionController) DeletePermissions(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := pc.permissionService.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Permissions deleted", nil)
}

// CheckPermission handles POST /directories/:id/permissions/check,
// evaluating one action for the calling subject.
func (pc *PermissionController) CheckPermission(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	decision, err := pc.permissionService.Evaluate(c.Request.Context(), id, subject, req.Action)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Permission evaluated", decision)
}

// ApplyTemplate handles POST /directories/:id/permissions/template.
func (pc *PermissionController) ApplyTemplate(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Template string `json:"template" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data")
		return
	}

	if err := pc.permissionService.ApplyTemplate(c.Request.Context(), middleware.Actor(c), id, req.Template); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Template applied", nil)
}
