package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Venus2Mice/e-commerce-website/internal/webhook"
)

type Settler interface {
	SettlePayment(ctx context.Context, n webhook.Notification) webhook.Result
}

// WebhookHandler receives payment gateway notifications. It always answers 200 so
// the gateway does not retry a request that was understood.
type WebhookHandler struct {
	Settler Settler
	Log     *zap.Logger
}

func (h *WebhookHandler) payment(w http.ResponseWriter, r *http.Request) {
	var n webhook.Notification
	if err := decode(r, &n); err != nil {
		fail(w, -1, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ctx = webhook.WithTraceID(ctx, middleware.GetReqID(r.Context()))

	res := h.Settler.SettlePayment(ctx, n)
	if !res.OK() {
		h.Log.Info("payment notification rejected",
			zap.String("outcome", string(res.Outcome)),
			zap.Int64("bill_id", res.BillID),
			zap.String("gateway", n.Gateway))
	}
	writeJSON(w, http.StatusOK, Envelope{DT: "", EC: res.EC, EM: res.EM})
}
