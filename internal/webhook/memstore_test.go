package webhook

import (
	"context"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Venus2Mice/e-commerce-website/internal/shop"
)

// memStore is an in-memory Store. A transaction works on a copy of the rows and
// swaps it in on commit; the store mutex plays the role of the row locks.
type memStore struct {
	mu        sync.Mutex
	bills     map[int64]shop.Bill
	variants  map[int64]shop.Variant
	txErrs    []error // consumed one per InTx call, before fn runs
	findErr   error
	findPanic bool
	txCalls   int
	locks     []string
}

func newMemStore() *memStore {
	return &memStore{bills: map[int64]shop.Bill{}, variants: map[int64]shop.Variant{}}
}

func (m *memStore) addVariant(id int64, stock int) {
	m.variants[id] = shop.Variant{ID: id, ClothesID: 1, Color: "Blue", Size: "L", Stock: stock}
}

func (m *memStore) addBill(id int64, lines ...shop.CartLine) {
	for i := range lines {
		lines[i].ID = int64(i + 1)
		lines[i].BillID = id
	}
	m.bills[id] = shop.Bill{ID: id, UserID: 7, Status: shop.BillPending, Lines: lines}
}

func (m *memStore) bill(id int64) shop.Bill {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bills[id]
}

func (m *memStore) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[id].Stock
}

func (m *memStore) FindBill(_ context.Context, id int64) (shop.Bill, error) {
	if m.findPanic {
		panic("driver exploded")
	}
	if m.findErr != nil {
		return shop.Bill{}, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return shop.Bill{}, shop.ErrBillNotFound
	}
	return b, nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx shop.SettlementTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	if len(m.txErrs) > 0 {
		err := m.txErrs[0]
		m.txErrs = m.txErrs[1:]
		return err
	}

	tx := &memTx{store: m, bills: map[int64]shop.Bill{}, variants: map[int64]shop.Variant{}}
	for k, v := range m.bills {
		tx.bills[k] = v
	}
	for k, v := range m.variants {
		tx.variants[k] = v
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.bills, m.variants = tx.bills, tx.variants
	return nil
}

type memTx struct {
	store    *memStore
	bills    map[int64]shop.Bill
	variants map[int64]shop.Variant
}

func (t *memTx) LockBill(_ context.Context, id int64) (shop.Bill, error) {
	t.store.locks = append(t.store.locks, fmt.Sprintf("bill:%d", id))
	b, ok := t.bills[id]
	if !ok {
		return shop.Bill{}, shop.ErrBillNotFound
	}
	return b, nil
}

func (t *memTx) LockVariant(_ context.Context, id int64) (shop.Variant, error) {
	t.store.locks = append(t.store.locks, fmt.Sprintf("variant:%d", id))
	v, ok := t.variants[id]
	if !ok {
		return shop.Variant{}, fmt.Errorf("%w: %d", shop.ErrVariantNotFound, id)
	}
	return v, nil
}

func (t *memTx) SetVariantStock(_ context.Context, id int64, stock int) error {
	v := t.variants[id]
	v.Stock = stock
	t.variants[id] = v
	return nil
}

func (t *memTx) SaveSettlement(_ context.Context, b shop.Bill) error {
	t.bills[b.ID] = b
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (p *recordingPublisher) Publish(key, value []byte, headers ...kafkago.Header) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
	return true
}
