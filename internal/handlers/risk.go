package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/service"
	"pulse-server/internal/utils"
)

// RiskHandler serves the prioritization views.
type RiskHandler struct {
	Prioritization *service.Prioritization
	log            *zap.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(p *service.Prioritization, log *zap.Logger) *RiskHandler {
	return &RiskHandler{Prioritization: p, log: log}
}

// GetRanked handles the full ranked list, scored live with the current weights.
func (h *RiskHandler) GetRanked(c *gin.Context) {
	list, err := h.Prioritization.Ranked(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "", "rank residents")
		return
	}
	utils.Success(c, "Ranked residents fetched successfully", list)
}

// GetDashboard handles the dashboard summary.
func (h *RiskHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.Prioritization.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "", "load dashboard")
		return
	}
	utils.Success(c, "Dashboard fetched successfully", dashboard)
}
