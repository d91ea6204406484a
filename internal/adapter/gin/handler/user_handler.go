package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-crud/internal/usecase/user"
	pkgerrors "users-crud/pkg/errors"
	"users-crud/pkg/logger"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest represents the HTTP request body for updating a user
type UpdateUserRequest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DeleteUserRequest represents the HTTP request body for deleting a user
type DeleteUserRequest struct {
	ID int64 `json:"id"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageResponse is returned by update and delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	resp, err := h.uc.ListUsers(ctx)
	if err != nil {
		log.Error("ListUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = UserResponse{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
		}
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var req CreateUserRequest
	if !h.bind(c, &req) {
		return
	}

	resp, err := h.uc.CreateUser(ctx, user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		log.Error("CreateUser failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:    resp.ID,
		Name:  resp.Name,
		Email: resp.Email,
	})
}

// UpdateUser handles PUT /api/users
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var req UpdateUserRequest
	if !h.bind(c, &req) {
		return
	}

	if _, err := h.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
	}); err != nil {
		log.Error("UpdateUser failed", zap.Int64("id", req.ID), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Updated successfully"})
}

// DeleteUser handles DELETE /api/users
func (h *UserHandler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	var req DeleteUserRequest
	if !h.bind(c, &req) {
		return
	}

	if _, err := h.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: req.ID}); err != nil {
		log.Error("DeleteUser failed", zap.Int64("id", req.ID), zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// bind decodes the JSON body into dst and writes a 400 when it is malformed.
// Field presence is checked by the usecase.
func (h *UserHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be valid JSON",
		})
		return false
	}
	return true
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	if e, ok := pkgerrors.AsHTTP(err); ok && e.HTTPStatus() < http.StatusInternalServerError {
		c.JSON(e.HTTPStatus(), ErrorResponse{
			Error:   e.Code(),
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
