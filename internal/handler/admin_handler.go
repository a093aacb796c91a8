package handler

import (
	"context"
	"errors"
	"net/http"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/model"
	"investment_tracker/internal/scheduler"
	"investment_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// MonthlyTrigger runs the monthly updates on demand
type MonthlyTrigger interface {
	TriggerNow(ctx context.Context) (model.BatchResult, error)
	Status() scheduler.Status
}

// AdminHandler exposes the monthly summary job
type AdminHandler struct {
	summaries service.SummaryService
	trigger   MonthlyTrigger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(summaries service.SummaryService, trigger MonthlyTrigger) *AdminHandler {
	return &AdminHandler{summaries: summaries, trigger: trigger}
}

// GetSummary previews the monthly update of one user without sending it
func (h *AdminHandler) GetSummary(c *gin.Context) {
	summary, err := h.summaries.BuildUserSummary(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "build monthly summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *AdminHandler) RunMonthlyUpdates(c *gin.Context) {
	// The batch outlives a dropped client connection
	result, err := h.trigger.TriggerNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if errors.Is(err, scheduler.ErrAlreadyFiring) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Manual monthly updates failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send monthly updates", "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.trigger.Status())
}

// RegisterAdminRoutes registers admin routes
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW)
	adminRoutes.Use(adminMW)
	{
		adminRoutes.GET("/summaries/:user_id", h.GetSummary)
		adminRoutes.POST("/summaries/run", h.RunMonthlyUpdates)
		adminRoutes.GET("/scheduler", h.SchedulerStatus)
	}
}
