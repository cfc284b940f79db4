package repository

import (
	"context"

	"gorm.io/gorm"

	"table-reservation-api/models"
)

type ReviewFilter struct {
	Status   models.ReviewStatus
	Category models.ReviewCategory
	UserID   uint
}

// RatingSummary aggregates ratings over a filtered review set.
type RatingSummary struct {
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	return translate(s.conn(ctx).Omit("User").Create(review).Error)
}

func (s *Store) FindReviewByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.conn(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, translate(err)
	}
	review.Expand()
	return &review, nil
}

func (s *Store) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	var reviews []models.Review
	query := s.reviewQuery(ctx, filter).Preload("User").Order("created_at desc, id desc")
	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].Expand()
	}
	return reviews, nil
}

func (s *Store) SummarizeRatings(ctx context.Context, filter ReviewFilter) (RatingSummary, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := s.reviewQuery(ctx, filter).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Scan(&row).Error
	if err != nil {
		return RatingSummary{}, err
	}
	summary := RatingSummary{Count: row.Count}
	if row.Average != nil {
		summary.Average = *row.Average
	}
	return summary, nil
}

func (s *Store) reviewQuery(ctx context.Context, filter ReviewFilter) *gorm.DB {
	query := s.conn(ctx).Model(&models.Review{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return query
}

func (s *Store) UpdateReview(ctx context.Context, id uint, fields map[string]any) error {
	res := s.conn(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) IncrementHelpful(ctx context.Context, id uint) error {
	res := s.conn(ctx).Model(&models.Review{}).Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
