package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/middleware"
	"table-reservation-api/models"
	"table-reservation-api/repository"
	"table-reservation-api/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" binding:"omitempty,max=20"`
}

type MakeAdminRequest struct {
	Email  string `json:"email" binding:"omitempty,email"`
	Secret string `json:"secret"`
}

// Profile returns the authenticated user
func (h *UserHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), services.ProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// DeleteAccount removes the caller together with their bookings and reviews
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	if err := h.users.DeleteAccount(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// ListUsers returns accounts for the admin dashboard
func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := repository.UserFilter{Role: models.UserRole(c.Query("role"))}
	if filter.Role != "" && !filter.Role.Valid() {
		respondError(c, apperrors.Validation("role %q is not valid", filter.Role))
		return
	}
	if raw := c.Query("approved"); raw != "" {
		approved, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apperrors.Validation("approved must be true or false"))
			return
		}
		filter.Approved = &approved
	}
	users, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *UserHandler) Approve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := h.users.Approve(c.Request.Context(), middleware.CurrentUser(c), id, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User approved", "user": user})
}

// ListAudit shows who approved or promoted whom
func (h *UserHandler) ListAudit(c *gin.Context) {
	events, err := h.users.AuditTrail(c.Request.Context(), c.Query("action"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// MakeAdmin promotes by email (admins) or bootstraps the first admin with the secret
func (h *UserHandler) MakeAdmin(c *gin.Context) {
	var req MakeAdminRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.MakeAdmin(c.Request.Context(), middleware.CurrentUser(c), services.MakeAdminInput{
		Email:  req.Email,
		Secret: req.Secret,
	}, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": user.Email + " is now an admin", "user": user})
}
