package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/ip-profiler/internal/auth"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admins    service.AdminService
	queries   service.QueryService
	jwtSecret []byte
	logger    *zap.Logger
}

func NewAdminHandler(admins service.AdminService, queries service.QueryService, jwtSecret []byte, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admins:    admins,
		queries:   queries,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Operator login
// @Description Validate operator credentials and issue a session token
// @Tags admin
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	admin, err := h.admins.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid username or password",
			})
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log in",
		})
		return
	}

	token, err := auth.GenerateToken(admin.Username, h.jwtSecret, auth.DefaultTokenTTL)
	if err != nil {
		h.logger.Error("Failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// ListVisits godoc
// @Summary List or search visit records
// @Description Return all visit records newest first, or those matching the free-text query
// @Tags admin
// @Produce json
// @Param q query string false "Search term (substring, case-insensitive, OR across ip/city/country/visitor contacts)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/visits [get]
func (h *AdminHandler) ListVisits(c *gin.Context) {
	visits, err := h.queries.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("Failed to query visits", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "persistence_error",
			Message: "Failed to fetch visit records",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"visits": visits})
}

// CreateAdmin godoc
// @Summary Create another operator account
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CreateAdminRequest true "New operator"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/v1/admin/users [post]
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	admin, err := h.admins.CreateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingAdminFields):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "missing_fields",
				Message: "Username and password are required",
			})
		case errors.Is(err, repository.ErrAdminExists):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "username_taken",
				Message: "Admin username already exists",
			})
		default:
			h.logger.Error("Failed to create admin", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "persistence_error",
				Message: "Failed to create admin user",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": admin.Username})
}
