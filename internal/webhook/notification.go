package webhook

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

const TransferIn = "in"

var (
	ErrInvalidRequest      = errors.New("missing parameter")
	ErrUnparsableReference = errors.New("cannot parse bill id from description")
)

// Notification is one payment event pushed by the gateway.
type Notification struct {
	Gateway        string           `json:"gateway"`
	AccountNumber  string           `json:"accountNumber"`
	TransferAmount *decimal.Decimal `json:"transferAmount"`
	Description    string           `json:"description"`
	TransferType   string           `json:"transferType"`
}

// Validate requires gateway, account number and a non-zero amount.
func (n Notification) Validate() error {
	if n.Gateway == "" || n.AccountNumber == "" || n.TransferAmount == nil || n.TransferAmount.IsZero() {
		return ErrInvalidRequest
	}
	return nil
}

var digitRun = regexp.MustCompile(`\d+`)

// BillRef extracts the first run of decimal digits in the description.
func (n Notification) BillRef() (int64, error) {
	m := digitRun.FindString(n.Description)
	if m == "" {
		return 0, ErrUnparsableReference
	}
	id, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, ErrUnparsableReference
	}
	return id, nil
}
