package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

type Catalog interface {
	ListClothes(ctx context.Context) ([]shop.Clothes, error)
	GetClothes(ctx context.Context, id int64) (shop.Clothes, error)
	CreateClothes(ctx context.Context, in shop.ClothesInput) (int64, error)
	UpdateClothes(ctx context.Context, id int64, in shop.ClothesInput) error
	DeleteClothes(ctx context.Context, id int64) error
}

type ClothesHandler struct {
	Catalog Catalog
	Redis   redis.Cmdable
	Log     *zap.Logger
}

type updateClothesReq struct {
	ID int64 `json:"id" validate:"required,gt=0"`
	shop.ClothesInput
}

func (h *ClothesHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	switch r.URL.Query().Get("type") {
	case "ALL":
		h.getAll(ctx, w)
	case "SINGLE":
		id, valid := queryID(r, "id")
		if !valid {
			badRequest(w, "missing id")
			return
		}
		c, err := h.Catalog.GetClothes(ctx, id)
		if errors.Is(err, shop.ErrClothesNotFound) {
			fail(w, 1, err.Error())
			return
		}
		if err != nil {
			h.Log.Error("get clothes", zap.Int64("id", id), zap.Error(err))
			serverError(w)
			return
		}
		ok(w, c, "Get clothes")
	default:
		badRequest(w, "unknown type")
	}
}

// getAll serves the catalogue from Redis and fills the cache on a miss.
func (h *ClothesHandler) getAll(ctx context.Context, w http.ResponseWriter) {
	if b, hit, err := redisx.GetBytes(ctx, h.Redis, redisx.KeyCatalog); err == nil && hit {
		ok(w, json.RawMessage(b), "Get all clothes")
		return
	}

	list, err := h.Catalog.ListClothes(ctx)
	if err != nil {
		h.Log.Error("list clothes", zap.Error(err))
		serverError(w)
		return
	}
	if b, err := json.Marshal(list); err == nil {
		_ = h.Redis.Set(ctx, redisx.KeyCatalog, b, redisx.TTLCatalog).Err()
	}
	ok(w, list, "Get all clothes")
}

func (h *ClothesHandler) invalidate(ctx context.Context) {
	if err := h.Redis.Del(ctx, redisx.KeyCatalog).Err(); err != nil {
		h.Log.Warn("catalogue cache invalidation failed", zap.Error(err))
	}
}

func (h *ClothesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req shop.ClothesInput
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

	id, err := h.Catalog.CreateClothes(ctx, req)
	if err != nil {
		h.Log.Error("create clothes", zap.Error(err))
		serverError(w)
		return
	}
	h.invalidate(ctx)
	ok(w, id, "Create clothes completed!")
}

func (h *ClothesHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateClothesReq
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

	err := h.Catalog.UpdateClothes(ctx, req.ID, req.ClothesInput)
	if errors.Is(err, shop.ErrClothesNotFound) {
		fail(w, 1, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("update clothes", zap.Int64("id", req.ID), zap.Error(err))
		serverError(w)
		return
	}
	h.invalidate(ctx)
	ok(w, req.ID, "Update clothes completed!")
}

func (h *ClothesHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, valid := queryID(r, "id")
	if !valid {
		badRequest(w, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Catalog.DeleteClothes(ctx, id)
	if errors.Is(err, shop.ErrClothesNotFound) {
		fail(w, 1, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("delete clothes", zap.Int64("id", id), zap.Error(err))
		serverError(w)
		return
	}
	h.invalidate(ctx)
	ok(w, id, "Delete clothes completed!")
}
