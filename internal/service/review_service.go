package service

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

// ReviewService handles product reviews.
type ReviewService struct {
	store  repository.Store
	logger *logging.Logger
}

func NewReviewService(store repository.Store) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: logging.New("review-service"),
	}
}

// CreateReview stores a review for an existing product by an existing user.
func (s *ReviewService) CreateReview(ctx context.Context, r *models.Review) (*models.Review, error) {
	if err := validateRating(r.Rating); err != nil {
		return nil, err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Products().GetByID(ctx, r.ProductID); err != nil {
			return err
		}
		if _, err := tx.Users().GetByID(ctx, r.UserID); err != nil {
			return err
		}
		return tx.Reviews().Create(ctx, r)
	})
	if err != nil {
		return nil, apperrors.Internal("create review", err)
	}

	s.logger.Info("Review created", logging.Fields{
		"review_id":  r.ID,
		"product_id": r.ProductID,
		"rating":     r.Rating,
	})
	return r, nil
}

func (s *ReviewService) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	r, err := s.store.Reviews().GetByID(ctx, id)
	return r, apperrors.Internal("get review", err)
}

func (s *ReviewService) ListReviews(ctx context.Context) ([]*models.Review, error) {
	reviews, err := s.store.Reviews().List(ctx)
	return reviews, apperrors.Internal("list reviews", err)
}

func (s *ReviewService) ReviewsByProduct(ctx context.Context, productID int64) ([]*models.Review, error) {
	reviews, err := s.store.Reviews().ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperrors.Internal("list product reviews", err)
	}
	if len(reviews) == 0 {
		return nil, apperrors.NotFound("reviews for product", productID)
	}
	return reviews, nil
}

func (s *ReviewService) ReviewsByUser(ctx context.Context, userID int64) ([]*models.Review, error) {
	reviews, err := s.store.Reviews().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("list user reviews", err)
	}
	if len(reviews) == 0 {
		return nil, apperrors.NotFound("reviews for user", userID)
	}
	return reviews, nil
}

// UpdateReview changes the rating and content of a review and returns it.
func (s *ReviewService) UpdateReview(ctx context.Context, id int64, r *models.Review) (*models.Review, error) {
	if err := validateRating(r.Rating); err != nil {
		return nil, err
	}

	var updated *models.Review
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Reviews().GetByID(ctx, id)
		if err != nil {
			return err
		}
		current.Rating = r.Rating
		current.Content = r.Content
		if err := tx.Reviews().Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, apperrors.Internal("update review", err)
	}
	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, id int64) error {
	return apperrors.Internal("delete review", s.store.Reviews().Delete(ctx, id))
}
