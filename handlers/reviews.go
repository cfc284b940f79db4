package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-reservation-api/apperrors"
	"table-reservation-api/middleware"
	"table-reservation-api/models"
	"table-reservation-api/repository"
	"table-reservation-api/services"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type CreateReviewRequest struct {
	BookingID *uint                 `json:"bookingId"`
	Rating    int                   `json:"rating" binding:"required,min=1,max=5"`
	Title     string                `json:"title" binding:"max=120"`
	Comment   string                `json:"comment" binding:"required,max=2000"`
	Category  models.ReviewCategory `json:"category" binding:"omitempty,review_category"`
}

type ModerateReviewRequest struct {
	Status     *models.ReviewStatus `json:"status" binding:"omitempty,review_status"`
	AdminReply *string              `json:"adminReply" binding:"omitempty,max=2000"`
}

// List returns approved reviews; admins also see unmoderated ones
func (h *ReviewHandler) List(c *gin.Context) {
	filter := repository.ReviewFilter{
		Status:   models.ReviewStatus(c.Query("status")),
		Category: models.ReviewCategory(c.Query("category")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondError(c, apperrors.Validation("status %q is not valid", filter.Status))
		return
	}
	if filter.Category != "" && !filter.Category.Valid() {
		respondError(c, apperrors.Validation("category %q is not valid", filter.Category))
		return
	}
	page, err := h.reviews.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(page.Reviews),
		"reviews": page.Reviews,
		"summary": page.Summary,
	})
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), middleware.CurrentUser(c), services.ReviewInput{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Category:  req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Thanks! Your review will appear once approved.",
		"review":  review,
	})
}

// Moderate approves or rejects a review and optionally replies (admin only)
func (h *ReviewHandler) Moderate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req ModerateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	review, err := h.reviews.Moderate(c.Request.Context(), id, services.ModerationInput{
		Status:     req.Status,
		AdminReply: req.AdminReply,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review updated", "review": review})
}

func (h *ReviewHandler) Helpful(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	review, err := h.reviews.MarkHelpful(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"helpfulCount": review.HelpfulCount})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
