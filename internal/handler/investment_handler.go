package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"investment_tracker/internal/model"
	"investment_tracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InvestmentHandler handles investments and reports
type InvestmentHandler struct {
	service service.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler
func NewInvestmentHandler(s service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{service: s}
}

func (h *InvestmentHandler) RecordInvestment(c *gin.Context) {
	var req model.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "record investment")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	investments, err := h.service.ListInvestments(c.Request.Context(), optionalQuery(c, "user_id"))
	if err != nil {
		respondError(c, err, "retrieve investments")
		return
	}
	c.JSON(http.StatusOK, investments)
}

func (h *InvestmentHandler) PreviewInvestment(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"warning": "amount must be a number"})
		return
	}
	rate, err := decimal.NewFromString(c.DefaultQuery("rate", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"warning": "rate must be a number"})
		return
	}
	months, err := strconv.Atoi(c.DefaultQuery("months", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"warning": "months must be an integer"})
		return
	}

	preview, err := h.service.Preview(amount, rate, months)
	if err != nil {
		respondError(c, err, "preview investment")
		return
	}
	c.JSON(http.StatusOK, preview)
}

func reportFilters(c *gin.Context) model.ReportFilters {
	return model.ReportFilters{
		UserID: optionalQuery(c, "user_id"),
		SortBy: c.Query("sort"),
		Order:  c.Query("order"),
	}
}

func (h *InvestmentHandler) GetReport(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), reportFilters(c))
	if err != nil {
		respondError(c, err, "build report")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *InvestmentHandler) ExportReportCSV(c *gin.Context) {
	csvBuffer, err := h.service.ExportReportCSV(c.Request.Context(), reportFilters(c))
	if err != nil {
		respondError(c, err, "export report to CSV")
		return
	}

	fileName := fmt.Sprintf("investments_report_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

// RegisterInvestmentRoutes registers investment and report routes
func (h *InvestmentHandler) RegisterInvestmentRoutes(rg *gin.RouterGroup, authMW, viewerMW, adminMW gin.HandlerFunc) {
	investments := rg.Group("/investments")
	investments.Use(authMW)
	{
		investments.GET("", viewerMW, h.ListInvestments)
		investments.GET("/preview", viewerMW, h.PreviewInvestment)
		investments.POST("", adminMW, h.RecordInvestment)
	}

	reports := rg.Group("/reports")
	reports.Use(authMW, viewerMW)
	{
		reports.GET("", h.GetReport)
		reports.GET("/export/csv", h.ExportReportCSV)
	}
}
