package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/service"
	"pulse-server/internal/utils"
)

// ReportHandler serves the station report data sets.
type ReportHandler struct {
	Reports *service.ReportService
	log     *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{Reports: reports, log: log}
}

// ReportQuery bounds a report by inclusive start and end days.
type ReportQuery struct {
	Start string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End   string `form:"end" binding:"omitempty,datetime=2006-01-02"`
}

// GetReport handles building one report by type.
func (h *ReportHandler) GetReport(c *gin.Context) {
	var query ReportQuery
	if !utils.BindQueryAndValidate(c, &query) {
		return
	}
	start, err := parseDate(&query.Start)
	if err != nil {
		utils.BadRequest(c, "Invalid start date: "+err.Error())
		return
	}
	end, err := parseDate(&query.End)
	if err != nil {
		utils.BadRequest(c, "Invalid end date: "+err.Error())
		return
	}

	report, err := h.Reports.Generate(c.Request.Context(), service.ReportType(c.Param("type")), start, end)
	if err != nil {
		respondError(c, h.log, err, "", "generate report")
		return
	}
	utils.Success(c, "Report generated successfully", report)
}
