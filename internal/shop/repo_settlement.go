package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettlementTx is the set of row operations a payment settlement performs inside
// one database transaction. Lock* methods take an exclusive row lock held until
// the transaction ends.
type SettlementTx interface {
	LockBill(ctx context.Context, id int64) (Bill, error)
	LockVariant(ctx context.Context, id int64) (Variant, error)
	SetVariantStock(ctx context.Context, id int64, stock int) error
	SaveSettlement(ctx context.Context, b Bill) error
}

type SettlementRepo struct{ DB *pgxpool.Pool }

// FindBill is the unlocked lookup used before a settlement starts.
func (r *SettlementRepo) FindBill(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(r.DB.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	return b, err
}

// InTx runs fn in a transaction. It commits when fn returns nil and rolls back on
// any error or panic.
func (r *SettlementRepo) InTx(ctx context.Context, fn func(tx SettlementTx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	// rollback after commit is a no-op; WithoutCancel so a cancelled request still releases its locks
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(&pgSettlementTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgSettlementTx struct{ tx pgx.Tx }

func (t *pgSettlementTx) LockBill(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(t.tx.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	if err != nil {
		return Bill{}, fmt.Errorf("lock bill %d: %w", id, err)
	}
	b.Lines, err = queryLines(ctx, t.tx, id)
	if err != nil {
		return Bill{}, fmt.Errorf("load cart of bill %d: %w", id, err)
	}
	return b, nil
}

func (t *pgSettlementTx) LockVariant(ctx context.Context, id int64) (Variant, error) {
	var v Variant
	err := t.tx.QueryRow(ctx, `
		SELECT id, clothes_id, color, size, stock
		FROM color_sizes WHERE id=$1 FOR UPDATE`, id).
		Scan(&v.ID, &v.ClothesID, &v.Color, &v.Size, &v.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return Variant{}, fmt.Errorf("%w: %d", ErrVariantNotFound, id)
	}
	if err != nil {
		return Variant{}, fmt.Errorf("lock variant %d: %w", id, err)
	}
	return v, nil
}

func (t *pgSettlementTx) SetVariantStock(ctx context.Context, id int64, stock int) error {
	ct, err := t.tx.Exec(ctx, `UPDATE color_sizes SET stock=$2 WHERE id=$1`, id, stock)
	if err != nil {
		return fmt.Errorf("update variant %d: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: %d", ErrVariantNotFound, id)
	}
	return nil
}

func (t *pgSettlementTx) SaveSettlement(ctx context.Context, b Bill) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE bills
		SET status=$2, bank_name=$3, account_number=$4, updated_at=NOW()
		WHERE id=$1`, b.ID, string(b.Status), b.BankName, b.AccountNumber)
	if err != nil {
		return fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrBillNotFound
	}
	return nil
}
