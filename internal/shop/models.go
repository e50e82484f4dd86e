package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bill struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        BillStatus      `json:"status"`
	Type          string          `json:"type"`
	BankName      string          `json:"bankName"`
	AccountNumber string          `json:"accountNumber"`
	Time          time.Time       `json:"time"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Lines         []CartLine      `json:"ShoppingCarts,omitempty"`
}

// CartLine is one purchased variant of a bill. Total is the quantity.
type CartLine struct {
	ID          int64 `json:"id"`
	BillID      int64 `json:"billId"`
	ColorSizeID int64 `json:"colorSizeId"`
	Total       int   `json:"total"`
}

// Variant is a color+size SKU of a clothes item (table color_sizes).
type Variant struct {
	ID        int64  `json:"id"`
	ClothesID int64  `json:"clothesId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"`
}

type Clothes struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	ContentMarkdown string          `json:"contentMarkdown"`
	Price           decimal.Decimal `json:"price"`
	Discount        int             `json:"discount"`
	Type            string          `json:"type"`
	Category        string          `json:"category"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Variants        []Variant       `json:"Color_Sizes"`
}

// DecrementStock removes qty units from stock, never going below zero.
func DecrementStock(stock, qty int) int {
	if n := stock - qty; n > 0 {
		return n
	}
	return 0
}
