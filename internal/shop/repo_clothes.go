package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type VariantInput struct {
	Color string `json:"color" validate:"required"`
	Size  string `json:"size" validate:"required"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type ClothesInput struct {
	Name            string          `json:"name" validate:"required"`
	ContentMarkdown string          `json:"contentMarkdown"`
	Price           decimal.Decimal `json:"price"`
	Discount        int             `json:"discount" validate:"gte=0,lte=100"`
	Type            string          `json:"type" validate:"required"`
	Category        string          `json:"category" validate:"required"`
	StockData       []VariantInput  `json:"stockData" validate:"dive"`
}

type CatalogRepo struct{ DB *pgxpool.Pool }

const clothesColumns = `id, name, content_markdown, price::text, discount, type, category, created_at, updated_at`

func scanClothes(row pgx.Row) (Clothes, error) {
	var (
		c     Clothes
		price string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.ContentMarkdown, &price, &c.Discount, &c.Type, &c.Category,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return Clothes{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Clothes{}, fmt.Errorf("clothes %d price: %w", c.ID, err)
	}
	c.Price = p
	c.Variants = []Variant{}
	return c, nil
}

// ListClothes returns every clothes item with its variants, newest first.
func (r *CatalogRepo) ListClothes(ctx context.Context) ([]Clothes, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+clothesColumns+` FROM clothes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Clothes{}
	idx := map[int64]int{}
	for rows.Next() {
		c, err := scanClothes(rows)
		if err != nil {
			return nil, err
		}
		idx[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vrows, err := r.DB.Query(ctx, `SELECT id, clothes_id, color, size, stock FROM color_sizes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var v Variant
		if err := vrows.Scan(&v.ID, &v.ClothesID, &v.Color, &v.Size, &v.Stock); err != nil {
			return nil, err
		}
		if i, ok := idx[v.ClothesID]; ok {
			out[i].Variants = append(out[i].Variants, v)
		}
	}
	return out, vrows.Err()
}

func (r *CatalogRepo) GetClothes(ctx context.Context, id int64) (Clothes, error) {
	c, err := scanClothes(r.DB.QueryRow(ctx, `SELECT `+clothesColumns+` FROM clothes WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Clothes{}, ErrClothesNotFound
	}
	if err != nil {
		return Clothes{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, clothes_id, color, size, stock
		FROM color_sizes WHERE clothes_id=$1 ORDER BY id`, id)
	if err != nil {
		return Clothes{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ClothesID, &v.Color, &v.Size, &v.Stock); err != nil {
			return Clothes{}, err
		}
		c.Variants = append(c.Variants, v)
	}
	return c, rows.Err()
}

func (r *CatalogRepo) CreateClothes(ctx context.Context, in ClothesInput) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO clothes (name, content_markdown, price, discount, type, category)
		VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		in.Name, in.ContentMarkdown, in.Price.String(), in.Discount, in.Type, in.Category,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := upsertVariants(ctx, tx, id, in.StockData); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateClothes overwrites the clothes fields and upserts the given variants by (color, size).
func (r *CatalogRepo) UpdateClothes(ctx context.Context, id int64, in ClothesInput) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE clothes
		SET name=$2, content_markdown=$3, price=$4, discount=$5, type=$6, category=$7, updated_at=NOW()
		WHERE id=$1`,
		id, in.Name, in.ContentMarkdown, in.Price.String(), in.Discount, in.Type, in.Category)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrClothesNotFound
	}
	if err := upsertVariants(ctx, tx, id, in.StockData); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *CatalogRepo) DeleteClothes(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM clothes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrClothesNotFound
	}
	return nil
}

func upsertVariants(ctx context.Context, tx pgx.Tx, clothesID int64, vs []VariantInput) error {
	for _, v := range vs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO color_sizes (clothes_id, color, size, stock)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (clothes_id, color, size) DO UPDATE SET stock = EXCLUDED.stock`,
			clothesID, v.Color, v.Size, v.Stock); err != nil {
			return err
		}
	}
	return nil
}
