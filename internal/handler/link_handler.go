package handler

import (
	"net/http"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		logger:  logger,
	}
}

type IssueLinkRequest struct {
	OwnerEmail string `json:"owner_email,omitempty"`
}

type IssueLinkResponse struct {
	LinkID    string    `json:"link_id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IssueLink godoc
// @Summary Issue an attribution link
// @Description Create a shareable tracking link bound to an owner contact
// @Tags links
// @Accept json
// @Produce json
// @Param request body IssueLinkRequest true "Link issue request"
// @Success 201 {object} IssueLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links [post]
func (h *LinkHandler) IssueLink(c *gin.Context) {
	var req IssueLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	issued, err := h.service.IssueLink(c.Request.Context(), &models.IssueLinkInput{
		OwnerEmail: req.OwnerEmail,
	})
	if err != nil {
		switch err {
		case service.ErrInvalidOwnerEmail:
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_owner_email",
				Message: "Owner email must contain @",
			})
		default:
			h.logger.Error("Failed to issue link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "persistence_error",
				Message: "Failed to create sharing link",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, IssueLinkResponse{
		LinkID:    issued.LinkID,
		URL:       issued.URL,
		CreatedAt: issued.CreatedAt,
	})
}
