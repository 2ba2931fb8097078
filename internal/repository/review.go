package repository

import (
	"context"
	"strings"
	"time"

	"github.com/chezmoi-app/chezmoi/internal/model"
	"github.com/jmoiron/sqlx"
)

var reviewColumns = strings.Join([]string{
	"id", "customer_id", "chef_id", "booking_id", "rating", "comment", "created_at",
}, ", ")

type ReviewRepository interface {
	// Create inserts the review and recomputes the chef's rating and review count
	// in the same transaction.
	Create(ctx context.Context, review *model.Review) (*model.Review, error)
	ByChef(ctx context.Context, chefID int64) ([]model.Review, error)
}

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	now := time.Now().UTC()
	insert := `INSERT INTO reviews (customer_id, chef_id, booking_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reviewColumns

	recompute := `UPDATE chefs SET
			rating = COALESCE((SELECT CAST(AVG(rating) AS DOUBLE PRECISION) FROM reviews WHERE chef_id = $1), 0),
			review_count = (SELECT COUNT(*) FROM reviews WHERE chef_id = $2),
			updated_at = $3
		WHERE id = $4`

	created := &model.Review{}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, created, insert,
			review.CustomerID, review.ChefID, review.BookingID, review.Rating, review.Comment, now)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, recompute, review.ChefID, review.ChefID, now, review.ChefID)
		return err
	})
	if err != nil {
		return nil, storeError("create review", err)
	}

	return created, nil
}

func (r *reviewRepository) ByChef(ctx context.Context, chefID int64) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT `+reviewColumns+` FROM reviews WHERE chef_id = $1 ORDER BY created_at DESC, id DESC`, chefID)
	if err != nil {
		return nil, storeError("reviews by chef", err)
	}

	return reviews, nil
}
