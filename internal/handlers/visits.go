package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/service"
	"pulse-server/internal/utils"
)

const (
	defaultVisitLimit = 20
	maxVisitLimit     = 100
)

// VisitHandler handles home visit logging.
type VisitHandler struct {
	Visits *service.VisitService
	log    *zap.Logger
}

// NewVisitHandler creates a new VisitHandler.
func NewVisitHandler(visits *service.VisitService, log *zap.Logger) *VisitHandler {
	return &VisitHandler{Visits: visits, log: log}
}

// CreateVisitRequest represents the request body for logging a visit.
type CreateVisitRequest struct {
	ResidentID       string   `json:"residentId" binding:"required"`
	VisitDate        string   `json:"visitDate" binding:"required,datetime=2006-01-02"`
	ProviderName     string   `json:"providerName" binding:"max=150"`
	FollowUpRequired bool     `json:"followUpRequired"`
	Notes            string   `json:"notes"`
	Symptoms         []string `json:"symptoms" binding:"omitempty,dive,max=100"`
}

// CreateVisit handles logging a home visit. The resident is rescored after
// the visit is stored.
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req CreateVisitRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	visitDate, err := parseDate(&req.VisitDate)
	if err != nil {
		utils.BadRequest(c, "Invalid visit date: "+err.Error())
		return
	}

	visit, err := h.Visits.Create(c.Request.Context(), service.CreateVisitInput{
		ResidentID:       req.ResidentID,
		VisitDate:        *visitDate,
		ProviderName:     req.ProviderName,
		FollowUpRequired: req.FollowUpRequired,
		Notes:            req.Notes,
		Symptoms:         req.Symptoms,
	})
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "log visit")
		return
	}
	utils.Created(c, "Visit logged successfully", visit)
}

// ListVisits handles fetching the most recent visits across residents.
func (h *VisitHandler) ListVisits(c *gin.Context) {
	limit := defaultVisitLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxVisitLimit)
	}

	visits, err := h.Visits.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err, "", "fetch visits")
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	utils.Success(c, "Visits fetched successfully", visits)
}
