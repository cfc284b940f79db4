package services

import (
	"context"
	"strings"
	"time"

	"table-reservation-api/apperrors"
	"table-reservation-api/models"
	"table-reservation-api/repository"
)

const msgReviewNotFound = "review not found"

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	FindReviewByID(ctx context.Context, id uint) (*models.Review, error)
	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]models.Review, error)
	SummarizeRatings(ctx context.Context, filter repository.ReviewFilter) (repository.RatingSummary, error)
	UpdateReview(ctx context.Context, id uint, fields map[string]any) error
	IncrementHelpful(ctx context.Context, id uint) error
	DeleteReview(ctx context.Context, id uint) error
	FindBookingByID(ctx context.Context, id uint) (*models.Booking, error)
}

type ReviewService struct {
	store ReviewStore
	now   func() time.Time
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

type ReviewPage struct {
	Reviews []models.Review          `json:"reviews"`
	Summary repository.RatingSummary `json:"summary"`
}

// List shows approved reviews to the public; admins may filter by any status.
func (s *ReviewService) List(ctx context.Context, caller *models.User, filter repository.ReviewFilter) (*ReviewPage, error) {
	if caller == nil || !caller.IsAdmin() {
		filter.Status = models.ReviewApproved
	}
	reviews, err := s.store.ListReviews(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list reviews", err)
	}
	summary, err := s.store.SummarizeRatings(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to summarize ratings", err)
	}
	return &ReviewPage{Reviews: reviews, Summary: summary}, nil
}

type ReviewInput struct {
	BookingID *uint
	Rating    int
	Title     string
	Comment   string
	Category  models.ReviewCategory
}

// Create stores a review awaiting moderation.
func (s *ReviewService) Create(ctx context.Context, caller *models.User, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, apperrors.Validation("comment is required")
	}
	if in.Category == "" {
		in.Category = models.CategoryOverall
	}
	if !in.Category.Valid() {
		return nil, apperrors.Validation("category %q is not valid", in.Category)
	}
	if in.BookingID != nil {
		booking, err := s.store.FindBookingByID(ctx, *in.BookingID)
		if err != nil {
			return nil, storeError(err, msgBookingNotFound, "", "load booking")
		}
		if booking.UserID != caller.ID {
			return nil, apperrors.Forbidden("you can only review your own bookings")
		}
	}

	review := &models.Review{
		UserID:    caller.ID,
		BookingID: in.BookingID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
		Category:  in.Category,
		Status:    models.ReviewPending,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, apperrors.Internal("failed to create review", err)
	}
	p := caller.Public()
	review.Author = &p
	return review, nil
}

type ModerationInput struct {
	Status     *models.ReviewStatus
	AdminReply *string
}

func (s *ReviewService) Moderate(ctx context.Context, id uint, in ModerationInput) (*models.Review, error) {
	fields := map[string]any{}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.Validation("status %q is not valid", *in.Status)
		}
		fields["status"] = *in.Status
	}
	if in.AdminReply != nil {
		fields["admin_reply"] = strings.TrimSpace(*in.AdminReply)
		fields["replied_at"] = s.now()
	}
	if len(fields) == 0 {
		return nil, apperrors.Validation("nothing to update")
	}
	if err := s.store.UpdateReview(ctx, id, fields); err != nil {
		return nil, storeError(err, msgReviewNotFound, "", "update review")
	}
	review, err := s.store.FindReviewByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgReviewNotFound, "", "load review")
	}
	return review, nil
}

func (s *ReviewService) MarkHelpful(ctx context.Context, id uint) (*models.Review, error) {
	if err := s.store.IncrementHelpful(ctx, id); err != nil {
		return nil, storeError(err, msgReviewNotFound, "", "mark review helpful")
	}
	review, err := s.store.FindReviewByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgReviewNotFound, "", "load review")
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id uint) error {
	return storeError(s.store.DeleteReview(ctx, id), msgReviewNotFound, "", "delete review")
}
