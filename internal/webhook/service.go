package webhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Venus2Mice/e-commerce-website/internal/kafka"
	"github.com/Venus2Mice/e-commerce-website/internal/postgres"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

// Store is the relational store a settlement runs against.
type Store interface {
	FindBill(ctx context.Context, id int64) (shop.Bill, error)
	InTx(ctx context.Context, fn func(tx shop.SettlementTx) error) error
}

// Publisher queues an event for asynchronous delivery. *kafka.Producer satisfies it.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

type Service struct {
	store       Store
	events      Publisher
	log         *zap.Logger
	producer    string
	maxAttempts int
	backoff     time.Duration
	retryable   func(error) bool
}

type Option func(*Service)

// WithEvents publishes a BillSettled event after every committed settlement.
func WithEvents(p Publisher, producer string) Option {
	return func(s *Service) { s.events, s.producer = p, producer }
}

// WithRetry bounds how many times a settlement transaction that lost a lock race
// is run again, waiting attempt*backoff between runs.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		s.backoff = backoff
	}
}

func NewService(store Store, zaplog *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         zaplog,
		maxAttempts: 3,
		backoff:     20 * time.Millisecond,
		retryable:   postgres.IsRetryable,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SettlePayment reconciles one payment notification with its bill. An inbound
// transfer marks the bill Done and takes the purchased quantities out of stock,
// exactly once per bill: a repeated notification for a settled bill is a no-op.
// It never returns an error; failures are reported in the Result.
func (s *Service) SettlePayment(ctx context.Context, n Notification) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("settle payment panicked", zap.Any("panic", p), zap.Stack("stack"))
			res = failure(OutcomeInternal, res.BillID, "internal error")
		}
	}()

	if err := n.Validate(); err != nil {
		return failure(OutcomeInvalidRequest, 0, "missing parameter!")
	}
	billID, err := n.BillRef()
	if err != nil {
		return failure(OutcomeUnparsableReference, 0, err.Error())
	}

	if _, err := s.store.FindBill(ctx, billID); err != nil {
		if errors.Is(err, shop.ErrBillNotFound) {
			return failure(OutcomeBillNotFound, billID, "bill not found")
		}
		return s.internal(billID, "find bill", err)
	}

	if n.TransferType != TransferIn {
		return success(OutcomeIgnored, billID, "transfer acknowledged, not reconciled")
	}

	var (
		outcome Outcome
		settled shop.BillSettledPayload
	)
	for attempt := 1; ; attempt++ {
		outcome, settled, err = s.settle(ctx, billID, n)
		if err == nil || !s.retryable(err) || attempt >= s.maxAttempts {
			break
		}
		s.log.Warn("settlement lost a lock race, retrying",
			zap.Int64("bill_id", billID), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(time.Duration(attempt) * s.backoff):
		case <-ctx.Done():
			return s.internal(billID, "settle", ctx.Err())
		}
	}

	switch {
	case errors.Is(err, shop.ErrVariantNotFound):
		return failure(OutcomeVariantNotFound, billID, "product color/size not found")
	case errors.Is(err, shop.ErrBillNotFound):
		return failure(OutcomeBillNotFound, billID, "bill not found")
	case errors.Is(err, shop.ErrInvalidTransition):
		s.log.Warn("payment for a bill that cannot be settled", zap.Int64("bill_id", billID), zap.Error(err))
		return failure(OutcomeInvalidState, billID, "bill cannot be settled")
	case err != nil:
		return s.internal(billID, "settle", err)
	}

	if outcome == OutcomeAlreadySettled {
		s.log.Info("duplicate payment notification", zap.Int64("bill_id", billID), zap.String("gateway", n.Gateway))
		return success(OutcomeAlreadySettled, billID, "Already processed")
	}

	s.log.Info("bill settled", zap.Int64("bill_id", billID), zap.String("gateway", n.Gateway),
		zap.Int("variants", len(settled.Variants)))
	s.publishSettled(ctx, settled)
	return success(OutcomeSettled, billID, "Payment processed")
}

// settle runs the locked read-check-write section in one transaction. The bill row
// is locked first, then each variant in cart-line storage order.
func (s *Service) settle(ctx context.Context, billID int64, n Notification) (Outcome, shop.BillSettledPayload, error) {
	var (
		outcome Outcome
		payload shop.BillSettledPayload
	)
	err := s.store.InTx(ctx, func(tx shop.SettlementTx) error {
		outcome, payload = "", shop.BillSettledPayload{}

		bill, err := tx.LockBill(ctx, billID)
		if err != nil {
			return err
		}
		if bill.Status == shop.BillDone {
			outcome = OutcomeAlreadySettled
			return nil
		}
		if !shop.CanTransition(bill.Status, shop.BillDone) {
			return fmt.Errorf("%w: bill %d is %s", shop.ErrInvalidTransition, billID, bill.Status)
		}

		bill.Status = shop.BillDone
		bill.BankName = n.Gateway
		bill.AccountNumber = n.AccountNumber

		payload = shop.BillSettledPayload{
			BillID:        bill.ID,
			UserID:        bill.UserID,
			BankName:      bill.BankName,
			AccountNumber: bill.AccountNumber,
			Variants:      make([]shop.SettledVariant, 0, len(bill.Lines)),
		}
		for _, line := range bill.Lines {
			v, err := tx.LockVariant(ctx, line.ColorSizeID)
			if err != nil {
				return err
			}
			stock := shop.DecrementStock(v.Stock, line.Total)
			if err := tx.SetVariantStock(ctx, v.ID, stock); err != nil {
				return err
			}
			payload.Variants = append(payload.Variants, shop.SettledVariant{
				ColorSizeID: v.ID, Quantity: line.Total, Stock: stock,
			})
		}

		if err := tx.SaveSettlement(ctx, bill); err != nil {
			return err
		}
		outcome = OutcomeSettled
		return nil
	})
	return outcome, payload, err
}

func (s *Service) publishSettled(ctx context.Context, p shop.BillSettledPayload) {
	if s.events == nil {
		return
	}
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventBillSettled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.producer,
		TraceID:       traceID(ctx),
		CorrelationID: strconv.FormatInt(p.BillID, 10),
		Payload:       kafkax.MustMarshal(p),
	}
	if !s.events.Publish(shop.PartitionKey(p.BillID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventBillSettled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	) {
		s.log.Warn("bill settled event dropped, producer closed", zap.Int64("bill_id", p.BillID))
	}
}

func (s *Service) internal(billID int64, op string, err error) Result {
	s.log.Error("settle payment failed", zap.String("op", op), zap.Int64("bill_id", billID), zap.Error(err))
	return failure(OutcomeInternal, billID, fmt.Sprintf("%s failed", op))
}

type traceKey struct{}

// WithTraceID stores the id of the inbound request so emitted events can carry it.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
