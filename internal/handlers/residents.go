package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulse-server/internal/models"
	"pulse-server/internal/risk"
	"pulse-server/internal/service"
	"pulse-server/internal/store"
	"pulse-server/internal/utils"
)

// ResidentHandler handles resident registry requests.
type ResidentHandler struct {
	Residents      *service.ResidentService
	Visits         *service.VisitService
	Prioritization *service.Prioritization
	log            *zap.Logger
}

// NewResidentHandler creates a new ResidentHandler.
func NewResidentHandler(residents *service.ResidentService, visits *service.VisitService, p *service.Prioritization, log *zap.Logger) *ResidentHandler {
	return &ResidentHandler{Residents: residents, Visits: visits, Prioritization: p, log: log}
}

// CreateResidentRequest represents the request body for registering a resident.
// Either age or birthdate must be given.
type CreateResidentRequest struct {
	FirstName    string   `json:"firstName" binding:"required,max=100"`
	MiddleName   string   `json:"middleName" binding:"max=100"`
	LastName     string   `json:"lastName" binding:"required,max=100"`
	Birthdate    *string  `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	Age          *int     `json:"age" binding:"omitempty,min=0,max=150"`
	Sex          string   `json:"sex" binding:"omitempty,oneof=Male Female"`
	Address      string   `json:"address" binding:"max=255"`
	BarangayZone string   `json:"barangayZone" binding:"max=100"`
	IsSenior     bool     `json:"isSenior"`
	IsPWD        bool     `json:"isPwd"`
	IsPregnant   bool     `json:"isPregnant"`
	IsChild      bool     `json:"isChild"`
	Conditions   []string `json:"conditions" binding:"omitempty,dive,required,max=100"`
}

// UpdateResidentRequest represents a partial resident edit. Omitted fields
// are left unchanged; a present conditions list replaces the current one.
type UpdateResidentRequest struct {
	FirstName    *string  `json:"firstName" binding:"omitempty,min=1,max=100"`
	MiddleName   *string  `json:"middleName" binding:"omitempty,max=100"`
	LastName     *string  `json:"lastName" binding:"omitempty,min=1,max=100"`
	Birthdate    *string  `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	Age          *int     `json:"age" binding:"omitempty,min=0,max=150"`
	Sex          *string  `json:"sex" binding:"omitempty,oneof=Male Female"`
	Address      *string  `json:"address" binding:"omitempty,max=255"`
	BarangayZone *string  `json:"barangayZone" binding:"omitempty,max=100"`
	IsSenior     *bool    `json:"isSenior"`
	IsPWD        *bool    `json:"isPwd"`
	IsPregnant   *bool    `json:"isPregnant"`
	IsChild      *bool    `json:"isChild"`
	Conditions   []string `json:"conditions" binding:"omitempty,dive,required,max=100"`
}

// ListResidentsQuery holds the optional registry filters.
type ListResidentsQuery struct {
	Q        string `form:"q" binding:"max=100"`
	Level    string `form:"level" binding:"omitempty,oneof=High Medium Low"`
	Category string `form:"category" binding:"omitempty,oneof=Senior PWD Pregnant Child"`
}

// ListResidents handles fetching the registry, High risk first.
func (h *ResidentHandler) ListResidents(c *gin.Context) {
	var query ListResidentsQuery
	if !utils.BindQueryAndValidate(c, &query) {
		return
	}

	residents, err := h.Residents.List(c.Request.Context(), store.ResidentFilter{
		Query:    query.Q,
		Level:    risk.Level(query.Level),
		Category: store.Category(query.Category),
	})
	if err != nil {
		respondError(c, h.log, err, "", "fetch residents")
		return
	}
	views := make([]models.ResidentView, len(residents))
	for i := range residents {
		views[i] = residents[i].View()
	}
	utils.Success(c, "Residents fetched successfully", views)
}

// GetResident handles fetching a single resident by ID.
func (h *ResidentHandler) GetResident(c *gin.Context) {
	resident, err := h.Residents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "fetch resident")
		return
	}
	utils.Success(c, "Resident fetched successfully", resident.View())
}

// CreateResident handles registering a resident.
func (h *ResidentHandler) CreateResident(c *gin.Context) {
	var req CreateResidentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	birthdate, err := parseDate(req.Birthdate)
	if err != nil {
		utils.BadRequest(c, "Invalid birthdate: "+err.Error())
		return
	}

	resident, err := h.Residents.Create(c.Request.Context(), service.CreateResidentInput{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Birthdate:    birthdate,
		Age:          req.Age,
		Sex:          models.Sex(req.Sex),
		Address:      req.Address,
		BarangayZone: req.BarangayZone,
		IsSenior:     req.IsSenior,
		IsPWD:        req.IsPWD,
		IsPregnant:   req.IsPregnant,
		IsChild:      req.IsChild,
		Conditions:   req.Conditions,
	})
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "register resident")
		return
	}
	utils.Created(c, "Resident registered successfully", resident.View())
}

// UpdateResident handles editing a resident's profile.
func (h *ResidentHandler) UpdateResident(c *gin.Context) {
	var req UpdateResidentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	birthdate, err := parseDate(req.Birthdate)
	if err != nil {
		utils.BadRequest(c, "Invalid birthdate: "+err.Error())
		return
	}

	in := service.UpdateResidentInput{
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Birthdate:    birthdate,
		Age:          req.Age,
		Address:      req.Address,
		BarangayZone: req.BarangayZone,
		IsSenior:     req.IsSenior,
		IsPWD:        req.IsPWD,
		IsPregnant:   req.IsPregnant,
		IsChild:      req.IsChild,
		Conditions:   req.Conditions,
	}
	if req.Sex != nil {
		sex := models.Sex(*req.Sex)
		in.Sex = &sex
	}

	resident, err := h.Residents.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "update resident")
		return
	}
	utils.Success(c, "Resident updated successfully", resident.View())
}

// GetResidentRisk handles the risk drill-down for one resident.
func (h *ResidentHandler) GetResidentRisk(c *gin.Context) {
	explanation, err := h.Prioritization.Explain(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "explain risk")
		return
	}
	utils.Success(c, "Risk assessment fetched successfully", explanation)
}

// GetResidentVisits handles fetching a resident's visit history.
func (h *ResidentHandler) GetResidentVisits(c *gin.Context) {
	visits, err := h.Visits.ListForResident(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Resident not found", "fetch visits")
		return
	}
	if visits == nil {
		visits = []models.Visit{}
	}
	utils.Success(c, "Visits fetched successfully", visits)
}
