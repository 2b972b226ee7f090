package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VisitHandler struct {
	service service.VisitService
	logger  *zap.Logger
}

func NewVisitHandler(service service.VisitService, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		service: service,
		logger:  logger,
	}
}

// IngestVisitRequest объединяет оба режима ингеста в один конверт.
// Режим задаётся явно; состав остальных полей не влияет на выбор ветки.
type IngestVisitRequest struct {
	Mode        string  `json:"mode" binding:"required"`
	DeviceToken string  `json:"device_token" binding:"required"`
	LinkID      *string `json:"link_id,omitempty"`
	Referrer    string  `json:"referrer,omitempty"`

	IP      string `json:"ip,omitempty"`
	ISP     string `json:"isp,omitempty"`
	Org     string `json:"org,omitempty"`
	ASN     string `json:"asn,omitempty"`
	Mobile  string `json:"mobile,omitempty"`
	Proxy   string `json:"proxy,omitempty"`
	Hosting string `json:"hosting,omitempty"`

	City     string  `json:"city,omitempty"`
	Region   string  `json:"region,omitempty"`
	Country  string  `json:"country,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Timezone string  `json:"timezone,omitempty"`

	Browser        string `json:"browser,omitempty"`
	OS             string `json:"os,omitempty"`
	CPUArch        string `json:"cpu_arch,omitempty"`
	DeviceType     string `json:"device_type,omitempty"`
	ConnectionType string `json:"connection_type,omitempty"`

	VisitorEmail string `json:"visitor_email,omitempty"`
	VisitorPhone string `json:"visitor_phone,omitempty"`
	PlatformUser string `json:"platform_user,omitempty"`
}

// IngestVisit godoc
// @Summary Ingest a visit event
// @Description Record a new visit (mode=create) or amend the latest matching record with disclosed identity (mode=update_identity)
// @Tags visits
// @Accept json
// @Produce json
// @Param request body IngestVisitRequest true "Visit event"
// @Success 200 {object} models.VisitorLog
// @Success 201 {object} models.VisitorLog
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/visits [post]
func (h *VisitHandler) IngestVisit(c *gin.Context) {
	var req IngestVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	switch req.Mode {
	case models.VisitModeCreate:
		h.create(c, &req)
	case models.VisitModeUpdateIdentity:
		h.updateIdentity(c, &req)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_mode",
			Message: "Mode must be create or update_identity",
		})
	}
}

func (h *VisitHandler) create(c *gin.Context, req *IngestVisitRequest) {
	referrer := req.Referrer
	if referrer == "" {
		referrer = c.Request.Referer()
	}

	visit, err := h.service.IngestVisit(c.Request.Context(), &models.VisitCreateInput{
		DeviceToken: req.DeviceToken,
		LinkID:      req.LinkID,
		Referrer:    referrer,

		IP:      req.IP,
		ISP:     req.ISP,
		Org:     req.Org,
		ASN:     req.ASN,
		Mobile:  req.Mobile,
		Proxy:   req.Proxy,
		Hosting: req.Hosting,

		City:     req.City,
		Region:   req.Region,
		Country:  req.Country,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Timezone: req.Timezone,

		Browser:        req.Browser,
		OS:             req.OS,
		CPUArch:        req.CPUArch,
		DeviceType:     req.DeviceType,
		ConnectionType: req.ConnectionType,
	})
	if err != nil {
		h.logger.Error("Failed to ingest visit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "persistence_error",
			Message: "Failed to record visit",
		})
		return
	}

	c.JSON(http.StatusCreated, visit)
}

func (h *VisitHandler) updateIdentity(c *gin.Context, req *IngestVisitRequest) {
	visit, err := h.service.UpdateIdentity(c.Request.Context(), &models.IdentityUpdateInput{
		DeviceToken:  req.DeviceToken,
		LinkID:       req.LinkID,
		VisitorEmail: req.VisitorEmail,
		VisitorPhone: req.VisitorPhone,
		PlatformUser: req.PlatformUser,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingVisitorEmail):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "missing_visitor_email",
				Message: "visitor_email is required for update_identity",
			})
		case errors.Is(err, repository.ErrVisitNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "visit_not_found",
				Message: "No matching visit for this device and link",
			})
		default:
			h.logger.Error("Failed to update visitor identity", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "persistence_error",
				Message: "Failed to update visit",
			})
		}
		return
	}

	c.JSON(http.StatusOK, visit)
}
