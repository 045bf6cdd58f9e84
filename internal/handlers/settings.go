package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/service"
	"pulse-server/internal/utils"
)

// SettingsHandler handles the organization settings surface (admin only).
type SettingsHandler struct {
	Settings   *service.SettingsService
	Recomputer *service.Recomputer
	log        *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService, rc *service.Recomputer, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{Settings: settings, Recomputer: rc, log: log}
}

// UpdateSettingsRequest represents a partial settings update.
type UpdateSettingsRequest struct {
	ID                     string  `json:"id" binding:"required"`
	BarangayName           *string `json:"barangayName" binding:"omitempty,max=150"`
	Municipality           *string `json:"municipality" binding:"omitempty,max=150"`
	HealthStationID        *string `json:"healthStationId" binding:"omitempty,max=50"`
	WeightAgeOver60        *int    `json:"weightAgeOver60" binding:"omitempty,min=0,max=50"`
	WeightPregnancy        *int    `json:"weightPregnancy" binding:"omitempty,min=0,max=50"`
	WeightChronicCondition *int    `json:"weightChronicCondition" binding:"omitempty,min=0,max=50"`
	WeightMissedVisit      *int    `json:"weightMissedVisit" binding:"omitempty,min=0,max=50"`
}

// GetSettings returns the settings record, creating it with defaults on first access.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.GetOrInit(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Settings not found", "load settings")
		return
	}
	utils.Success(c, "Settings fetched successfully", settings)
}

// UpdateSettings applies a partial settings update. Stored risk values are
// not touched; use RecomputeScores to apply new weights to every resident.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	settings, err := h.Settings.Update(c.Request.Context(), req.ID, service.UpdateSettingsInput{
		BarangayName:           req.BarangayName,
		Municipality:           req.Municipality,
		HealthStationID:        req.HealthStationID,
		WeightAgeOver60:        req.WeightAgeOver60,
		WeightPregnancy:        req.WeightPregnancy,
		WeightChronicCondition: req.WeightChronicCondition,
		WeightMissedVisit:      req.WeightMissedVisit,
	})
	if err != nil {
		respondError(c, h.log, err, "Settings not found", "update settings")
		return
	}
	utils.Success(c, "Settings updated successfully", settings)
}

// RecomputeScores rescores every resident with the current weights.
func (h *SettingsHandler) RecomputeScores(c *gin.Context) {
	result, err := h.Recomputer.Recompute(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "", "recompute risk scores")
		return
	}
	utils.Success(c, "Risk scores recomputed successfully", result)
}
