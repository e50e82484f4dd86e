package stock

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	kafkax "github.com/Venus2Mice/e-commerce-website/internal/kafka"
	"github.com/Venus2Mice/e-commerce-website/internal/redisx"
	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

func settledMessage(eventID string, variants ...shop.SettledVariant) kafkago.Message {
	env := shop.Envelope{
		EventID:      eventID,
		EventType:    shop.EventBillSettled,
		EventVersion: 1,
		Payload:      kafkax.MustMarshal(shop.BillSettledPayload{BillID: 77, Variants: variants}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleBillSettled(t *testing.T) {
	db, mock := redismock.NewClientMock()
	core, logs := observer.New(zap.InfoLevel)
	svc := &Service{Redis: db, Log: zap.New(core), Name: "stockwatch"}

	dkey := redisx.DedupKey("stockwatch", "ev-1")
	mock.ExpectSetNX(dkey, "1", redisx.TTLDedup).SetVal(true)
	mock.ExpectDel(redisx.KeyCatalog).SetVal(1)
	mock.ExpectSetNX(dkey, "1", redisx.TTLDedup).SetVal(false)

	msg := settledMessage("ev-1",
		shop.SettledVariant{ColorSizeID: 5, Quantity: 2, Stock: 8},
		shop.SettledVariant{ColorSizeID: 6, Quantity: 3, Stock: 0},
	)
	require.NoError(t, svc.HandleBillSettled(context.Background(), msg))
	require.NoError(t, svc.HandleBillSettled(context.Background(), msg))
	require.NoError(t, mock.ExpectationsWereMet())

	soldOut := logs.FilterMessage("variant sold out").All()
	require.Len(t, soldOut, 1)
	assert.Equal(t, int64(6), soldOut[0].ContextMap()["color_size_id"])
}

func TestHandleBillSettledIgnoresOtherEvents(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &Service{Redis: db, Log: zap.NewNop(), Name: "stockwatch"}

	other := kafkago.Message{Value: kafkax.MustMarshal(shop.Envelope{EventID: "x", EventType: "Other"})}
	require.NoError(t, svc.HandleBillSettled(context.Background(), other))
	require.NoError(t, svc.HandleBillSettled(context.Background(), kafkago.Message{Value: []byte("{")}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleBillSettledInvalidationFailureIsRetried(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &Service{Redis: db, Log: zap.NewNop(), Name: "stockwatch"}

	dkey := redisx.DedupKey("stockwatch", "ev-2")
	mock.ExpectSetNX(dkey, "1", redisx.TTLDedup).SetVal(true)
	mock.ExpectDel(redisx.KeyCatalog).SetErr(errors.New("timeout"))
	mock.ExpectDel(dkey).SetVal(1)

	err := svc.HandleBillSettled(context.Background(), settledMessage("ev-2"))
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleBillSettledDedupUnavailable(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &Service{Redis: db, Log: zap.NewNop(), Name: "stockwatch"}

	mock.ExpectSetNX(redisx.DedupKey("stockwatch", "ev-3"), "1", redisx.TTLDedup).SetErr(errors.New("down"))
	require.Error(t, svc.HandleBillSettled(context.Background(), settledMessage("ev-3")))
}
