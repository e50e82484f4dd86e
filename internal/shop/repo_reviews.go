package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Venus2Mice/e-commerce-website/internal/postgres"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("you have rated this product before")
)

// Review is one user's rating of a clothes item. A user reviews an item at most once.
type Review struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"userId"`
	ClothesID int64        `json:"clothesId"`
	Star      int          `json:"star"`
	Comment   string       `json:"comment"`
	Image     string       `json:"image,omitempty"`
	Author    ReviewAuthor `json:"User"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type ReviewAuthor struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type ReviewInput struct {
	UserID    int64  `json:"userId" validate:"gte=0"`
	ClothesID int64  `json:"clothesId" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required"`
	Star      int    `json:"star" validate:"required,min=1,max=5"`
	Image     string `json:"image"`
}

// ReviewUpdate replaces star and content; a nil or empty Image keeps the stored one.
type ReviewUpdate struct {
	ID      int64   `json:"id" validate:"required,gt=0"`
	Content string  `json:"content" validate:"required"`
	Star    int     `json:"star" validate:"required,min=1,max=5"`
	Image   *string `json:"image"`
}

// ReviewFilter selects the reviews of one clothes item. Star 0 matches every rating;
// Limit 0 returns all rows.
type ReviewFilter struct {
	ClothesID int64
	Star      int
	Limit     int
	Offset    int
}

type ReviewRepo struct{ DB *pgxpool.Pool }

const reviewSelect = `
	SELECT r.id, r.user_id, r.clothes_id, r.star, r.comment, r.image, u.first_name, u.last_name, r.created_at, r.updated_at
	FROM reviews r JOIN users u ON u.id = r.user_id`

func scanReview(row pgx.Row) (Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.ClothesID, &rv.Star, &rv.Comment, &rv.Image,
		&rv.Author.FirstName, &rv.Author.LastName, &rv.CreatedAt, &rv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrReviewNotFound
	}
	return rv, err
}

func (r *ReviewRepo) Create(ctx context.Context, in ReviewInput) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews (user_id, clothes_id, star, comment, image)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		in.UserID, in.ClothesID, in.Star, in.Content, in.Image,
	).Scan(&id)
	switch {
	case postgres.IsUniqueViolation(err):
		return 0, ErrAlreadyReviewed
	case postgres.IsForeignKeyViolation(err):
		return 0, fmt.Errorf("%w: %d", ErrClothesNotFound, in.ClothesID)
	case err != nil:
		return 0, fmt.Errorf("insert review: %w", err)
	}
	return id, nil
}

func (r *ReviewRepo) Get(ctx context.Context, id int64) (Review, error) {
	return scanReview(r.DB.QueryRow(ctx, reviewSelect+` WHERE r.id=$1`, id))
}

// List returns reviews newest first and the number of matching rows.
func (r *ReviewRepo) List(ctx context.Context, f ReviewFilter) ([]Review, int, error) {
	const where = ` WHERE r.clothes_id = $1 AND ($2 = 0 OR r.star = $2)`

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reviews r`+where, f.ClothesID, f.Star).Scan(&total); err != nil {
		return nil, 0, err
	}

	var limit *int
	if f.Limit > 0 {
		limit = &f.Limit
	}
	rows, err := r.DB.Query(ctx, reviewSelect+where+` ORDER BY r.id DESC LIMIT $3 OFFSET $4`,
		f.ClothesID, f.Star, limit, max(f.Offset, 0))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

func (r *ReviewRepo) Update(ctx context.Context, u ReviewUpdate) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE reviews
		SET star = $2, comment = $3, image = COALESCE(NULLIF($4, ''), image), updated_at = NOW()
		WHERE id = $1`, u.ID, u.Star, u.Content, u.Image)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}
