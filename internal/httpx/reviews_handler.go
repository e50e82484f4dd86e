package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

type Reviews interface {
	Create(ctx context.Context, in shop.ReviewInput) (int64, error)
	Get(ctx context.Context, id int64) (shop.Review, error)
	List(ctx context.Context, f shop.ReviewFilter) ([]shop.Review, int, error)
	Update(ctx context.Context, u shop.ReviewUpdate) error
	Delete(ctx context.Context, id int64) error
}

type ReviewsHandler struct {
	Reviews Reviews
	Log     *zap.Logger
}

type reviewPage struct {
	RowCount int           `json:"rowCount"`
	Data     []shop.Review `json:"data"`
}

func (h *ReviewsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	switch r.URL.Query().Get("type") {
	case "ALL", "PAGINATION":
		clothesID, valid := queryID(r, "clothesId")
		if !valid {
			badRequest(w, "missing clothesId")
			return
		}
		f := shop.ReviewFilter{ClothesID: clothesID, Star: queryInt(r, "star", 0)}
		paged := r.URL.Query().Get("type") == "PAGINATION"
		if paged {
			page := queryInt(r, "page", 1)
			f.Limit = queryInt(r, "pageSize", 10)
			f.Offset = (page - 1) * f.Limit
		}
		list, total, err := h.Reviews.List(ctx, f)
		if err != nil {
			h.Log.Error("list reviews", zap.Int64("clothes_id", clothesID), zap.Error(err))
			serverError(w)
			return
		}
		if paged {
			ok(w, reviewPage{RowCount: total, Data: list}, "Get review completed!")
			return
		}
		ok(w, list, "Get review completed!")
	case "SINGLE":
		id, valid := queryID(r, "id")
		if !valid {
			badRequest(w, "missing id")
			return
		}
		rv, err := h.Reviews.Get(ctx, id)
		if errors.Is(err, shop.ErrReviewNotFound) {
			fail(w, 1, err.Error())
			return
		}
		if err != nil {
			h.Log.Error("get review", zap.Int64("id", id), zap.Error(err))
			serverError(w)
			return
		}
		ok(w, rv, "Get review completed!")
	default:
		badRequest(w, "unknown type")
	}
}

func (h *ReviewsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req shop.ReviewInput
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}
	// the author is the caller, whatever the body says
	if c, found := auth.ClaimsFrom(r.Context()); found {
		req.UserID = c.UserID
	}
	if req.UserID == 0 {
		badRequest(w, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Reviews.Create(ctx, req)
	switch {
	case errors.Is(err, shop.ErrAlreadyReviewed):
		fail(w, -1, "You have rated this product before!")
	case errors.Is(err, shop.ErrClothesNotFound):
		fail(w, -1, err.Error())
	case err != nil:
		h.Log.Error("create review", zap.Int64("clothes_id", req.ClothesID), zap.Error(err))
		serverError(w)
	default:
		ok(w, id, "Create review completed!")
	}
}

func (h *ReviewsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req shop.ReviewUpdate
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Reviews.Update(ctx, req)
	switch {
	case errors.Is(err, shop.ErrReviewNotFound):
		fail(w, -1, "Review not found!")
	case err != nil:
		h.Log.Error("update review", zap.Int64("id", req.ID), zap.Error(err))
		serverError(w)
	default:
		ok(w, req.ID, "Update review completed!")
	}
}

func (h *ReviewsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, valid := queryID(r, "id")
	if !valid {
		badRequest(w, "Missing parameter!")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Reviews.Delete(ctx, id)
	switch {
	case errors.Is(err, shop.ErrReviewNotFound):
		fail(w, -1, "Review not found!")
	case err != nil:
		h.Log.Error("delete review", zap.Int64("id", id), zap.Error(err))
		serverError(w)
	default:
		ok(w, "", "Delete review completed!")
	}
}
