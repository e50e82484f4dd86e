package shop_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

func TestReviewsAgainstPostgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	tag := uuid.NewString()
	var userID int64
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO users (email, phone_number, password_hash, first_name, last_name)
		VALUES ($1, $2, 'x', 'Ann', 'Lee') RETURNING id`, tag+"@test.local", tag).Scan(&userID))
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id=$1`, userID) })

	catalog := &shop.CatalogRepo{DB: pool}
	clothesID, err := catalog.CreateClothes(ctx, shop.ClothesInput{
		Name: "Review shirt", Price: decimal.NewFromInt(100), Type: "shirt", Category: "test",
		StockData: []shop.VariantInput{{Color: "Red", Size: "M", Stock: 1}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.DeleteClothes(context.Background(), clothesID) })

	reviews := &shop.ReviewRepo{DB: pool}
	in := shop.ReviewInput{UserID: userID, ClothesID: clothesID, Content: "nice", Star: 4}
	id, err := reviews.Create(ctx, in)
	require.NoError(t, err)

	_, err = reviews.Create(ctx, in)
	require.ErrorIs(t, err, shop.ErrAlreadyReviewed)

	_, err = reviews.Create(ctx, shop.ReviewInput{UserID: userID, ClothesID: clothesID + 1_000_000, Content: "x", Star: 1})
	require.ErrorIs(t, err, shop.ErrClothesNotFound)

	list, total, err := reviews.List(ctx, shop.ReviewFilter{ClothesID: clothesID, Star: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ann", list[0].Author.FirstName)

	require.NoError(t, reviews.Update(ctx, shop.ReviewUpdate{ID: id, Content: "great", Star: 5}))
	got, err := reviews.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Star)
	assert.Equal(t, "great", got.Comment)

	require.NoError(t, reviews.Delete(ctx, id))
	require.ErrorIs(t, reviews.Delete(ctx, id), shop.ErrReviewNotFound)
}
