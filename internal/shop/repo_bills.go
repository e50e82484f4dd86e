package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrBillNotFound      = errors.New("bill not found")
	ErrVariantNotFound   = errors.New("product color/size not found")
	ErrClothesNotFound   = errors.New("clothes not found")
	ErrInvalidTransition = errors.New("invalid bill status transition")
	ErrBillSettled       = errors.New("bill already settled")
	ErrEmptyCart         = errors.New("bill has no cart lines")
)

type LineInput struct {
	ColorSizeID int64 `json:"colorSizeId" validate:"required,gt=0"`
	Total       int   `json:"total" validate:"required,gt=0"`
}

type NewBill struct {
	UserID int64
	Amount decimal.Decimal
	Type   string
	Time   time.Time
	Lines  []LineInput
}

type BillFilter struct {
	UserID   int64
	Statuses []BillStatus
	Limit    int
	Offset   int
}

// BillUpdate is a partial update; nil fields are left untouched.
type BillUpdate struct {
	Status        *BillStatus
	BankName      *string
	AccountNumber *string
}

type BillRepo struct{ DB *pgxpool.Pool }

const billColumns = `id, user_id, amount::text, status, type, bank_name, account_number, time, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var (
		b      Bill
		amount string
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &amount, &status, &b.Type, &b.BankName, &b.AccountNumber,
		&b.Time, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return Bill{}, err
	}
	b.Status = BillStatus(status)
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return Bill{}, fmt.Errorf("bill %d amount: %w", b.ID, err)
	}
	b.Amount = a
	return b, nil
}

// CreateTx inserts a pending bill and its cart lines. Every referenced variant must exist.
func (r *BillRepo) CreateTx(ctx context.Context, nb NewBill) (int64, error) {
	if len(nb.Lines) == 0 {
		return 0, ErrEmptyCart
	}
	if nb.Time.IsZero() {
		nb.Time = time.Now().UTC()
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, l := range nb.Lines {
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM color_sizes WHERE id=$1`, l.ColorSizeID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %d", ErrVariantNotFound, l.ColorSizeID)
		}
		if err != nil {
			return 0, err
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (user_id, amount, status, type, time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		nb.UserID, nb.Amount.String(), string(BillPending), nb.Type, nb.Time,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, l := range nb.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO shopping_carts (bill_id, color_size_id, total)
			VALUES ($1, $2, $3)`, id, l.ColorSizeID, l.Total); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *BillRepo) Get(ctx context.Context, id int64) (Bill, error) {
	b, err := scanBill(r.DB.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	if err != nil {
		return Bill{}, err
	}
	b.Lines, err = queryLines(ctx, r.DB, id)
	if err != nil {
		return Bill{}, err
	}
	return b, nil
}

// List returns one page of bills, newest first, and the total number of matching rows.
func (r *BillRepo) List(ctx context.Context, f BillFilter) ([]Bill, int, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}

	const where = ` WHERE ($1 = 0 OR user_id = $1) AND (cardinality($2::text[]) = 0 OR status = ANY($2))`

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, f.UserID, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, `SELECT `+billColumns+` FROM bills`+where+`
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`, f.UserID, statuses, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// Update applies a partial update. Status changes must follow CanTransition; a bill
// marked Done here does not touch stock (only the payment webhook settles stock).
func (r *BillRepo) Update(ctx context.Context, id int64, u BillUpdate) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM bills WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBillNotFound
	}
	if err != nil {
		return err
	}

	status := BillStatus(current)
	if u.Status != nil && *u.Status != status {
		if !CanTransition(status, *u.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, *u.Status)
		}
		status = *u.Status
	}

	if _, err := tx.Exec(ctx, `
		UPDATE bills
		SET status = $2,
		    bank_name = COALESCE($3, bank_name),
		    account_number = COALESCE($4, account_number),
		    updated_at = NOW()
		WHERE id = $1`, id, string(status), u.BankName, u.AccountNumber); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a bill that has not been settled. Cart lines cascade.
func (r *BillRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM bills WHERE id=$1 AND status <> $2`, id, string(BillDone))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var status string
	err = r.DB.QueryRow(ctx, `SELECT status FROM bills WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBillNotFound
	}
	if err != nil {
		return err
	}
	return ErrBillSettled
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryLines loads the cart lines of a bill in storage order.
func queryLines(ctx context.Context, q querier, billID int64) ([]CartLine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, bill_id, color_size_id, total
		FROM shopping_carts WHERE bill_id=$1 ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.BillID, &l.ColorSizeID, &l.Total); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
