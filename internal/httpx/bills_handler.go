package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/auth"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

type Bills interface {
	CreateTx(ctx context.Context, nb shop.NewBill) (int64, error)
	Get(ctx context.Context, id int64) (shop.Bill, error)
	List(ctx context.Context, f shop.BillFilter) ([]shop.Bill, int, error)
	Update(ctx context.Context, id int64, u shop.BillUpdate) error
	Delete(ctx context.Context, id int64) error
}

type BillsHandler struct {
	Bills Bills
	Log   *zap.Logger
}

type createBillReq struct {
	UserID        int64            `json:"userId" validate:"gte=0"`
	Amount        decimal.Decimal  `json:"amount"`
	Type          string           `json:"type"`
	Time          time.Time        `json:"time"`
	ColorSizeData []shop.LineInput `json:"colorSizeData" validate:"required,min=1,dive"`
}

type updateBillReq struct {
	ID            int64            `json:"id" validate:"required,gt=0"`
	Status        *shop.BillStatus `json:"status"`
	BankName      *string          `json:"bankName"`
	AccountNumber *string          `json:"accountNumber"`
}

type billPage struct {
	TotalRows  int         `json:"totalRows"`
	TotalPages int         `json:"totalPages"`
	Data       []shop.Bill `json:"data"`
}

func (h *BillsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBillReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}
	if req.UserID == 0 {
		if c, found := auth.ClaimsFrom(r.Context()); found {
			req.UserID = c.UserID
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Bills.CreateTx(ctx, shop.NewBill{
		UserID: req.UserID, Amount: req.Amount, Type: req.Type, Time: req.Time, Lines: req.ColorSizeData,
	})
	switch {
	case errors.Is(err, shop.ErrVariantNotFound), errors.Is(err, shop.ErrEmptyCart):
		fail(w, -1, err.Error())
	case err != nil:
		h.Log.Error("create bill", zap.Error(err))
		serverError(w)
	default:
		ok(w, id, "Create bill completed!")
	}
}

func (h *BillsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := r.URL.Query()
	switch q.Get("type") {
	case "SINGLE":
		id, valid := queryID(r, "id")
		if !valid {
			badRequest(w, "missing id")
			return
		}
		b, err := h.Bills.Get(ctx, id)
		if errors.Is(err, shop.ErrBillNotFound) {
			fail(w, 1, err.Error())
			return
		}
		if err != nil {
			h.Log.Error("get bill", zap.Int64("id", id), zap.Error(err))
			serverError(w)
			return
		}
		ok(w, b, "Get bill")
	case "PAGINATION":
		page := queryInt(r, "page", 1)
		size := queryInt(r, "pageSize", 10)
		f := shop.BillFilter{Limit: size, Offset: (page - 1) * size}
		if uid, valid := queryID(r, "userId"); valid {
			f.UserID = uid
		}
		for _, s := range strings.Split(q.Get("status"), ",") {
			if st := shop.BillStatus(strings.TrimSpace(s)); st.Valid() {
				f.Statuses = append(f.Statuses, st)
			}
		}
		list, total, err := h.Bills.List(ctx, f)
		if err != nil {
			h.Log.Error("list bills", zap.Error(err))
			serverError(w)
			return
		}
		ok(w, billPage{TotalRows: total, TotalPages: (total + size - 1) / size, Data: list}, "Get bills")
	default:
		badRequest(w, "unknown type")
	}
}

func (h *BillsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateBillReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		badRequest(w, "missing required parameters")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		badRequest(w, "unknown status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Bills.Update(ctx, req.ID, shop.BillUpdate{
		Status: req.Status, BankName: req.BankName, AccountNumber: req.AccountNumber,
	})
	switch {
	case errors.Is(err, shop.ErrBillNotFound), errors.Is(err, shop.ErrInvalidTransition):
		fail(w, -1, err.Error())
	case err != nil:
		h.Log.Error("update bill", zap.Int64("id", req.ID), zap.Error(err))
		serverError(w)
	default:
		ok(w, req.ID, "Update bill completed!")
	}
}

func (h *BillsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, valid := queryID(r, "id")
	if !valid {
		badRequest(w, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.Bills.Delete(ctx, id)
	switch {
	case errors.Is(err, shop.ErrBillNotFound), errors.Is(err, shop.ErrBillSettled):
		fail(w, -1, err.Error())
	case err != nil:
		h.Log.Error("delete bill", zap.Int64("id", id), zap.Error(err))
		serverError(w)
	default:
		ok(w, id, "Delete bill completed!")
	}
}
