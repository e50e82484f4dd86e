package stock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/Venus2Mice/e-commerce-website/internal/kafka"
	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

// Service reacts to settled bills: the cached catalogue is dropped so the next read
// sees the new stock, and variants that ran out are reported.
type Service struct {
	Redis redis.Cmdable
	Log   *zap.Logger
	Name  string // dedup namespace
}

// HandleBillSettled is installed as the consumer handler. A returned error leaves the
// message uncommitted so it is delivered again.
func (s *Service) HandleBillSettled(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn("skipping malformed event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != shop.EventBillSettled {
		return nil
	}

	dkey := redisx.DedupKey(s.Name, env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	p, err := kafkax.UnwrapPayload[shop.BillSettledPayload](env.Payload)
	if err != nil {
		s.Log.Warn("skipping event with malformed payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	if err := s.Redis.Del(ctx, redisx.KeyCatalog).Err(); err != nil {
		// let the redelivery run the whole handler again
		_ = s.Redis.Del(ctx, dkey).Err()
		return fmt.Errorf("invalidate catalogue: %w", err)
	}

	for _, v := range p.Variants {
		if v.Stock == 0 {
			s.Log.Info("variant sold out",
				zap.Int64("color_size_id", v.ColorSizeID),
				zap.Int64("bill_id", p.BillID),
				zap.String("trace_id", env.TraceID))
		}
	}
	s.Log.Info("bill settled processed", zap.Int64("bill_id", p.BillID), zap.Int("variants", len(p.Variants)))
	return nil
}
