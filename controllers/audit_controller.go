package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"docuvault/models"
	"docuvault/services"
	"docuvault/utils"
)

type AuditController struct {
	auditService *services.AuditService
}

func NewAuditController(auditService *services.AuditService) *AuditController {
	return &AuditController{auditService: auditService}
}

// QueryEvents handles GET /audits/events with the filter query parameters.
func (ac *AuditController) QueryEvents(c *gin.Context) {
	filter := models.AuditFilter{
		Actor:        c.Query("actor"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid offset")
			return
		}
		filter.Offset = offset
	}

	events, err := ac.auditService.Query(c.Request.Context(), filter)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, "Audit events retrieved", events)
}
