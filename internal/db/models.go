package db

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product is a sellable catalogue item. Optional descriptive columns are
// nil when unset; empty strings are never stored.
type Product struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"size:100;not null" json:"name"`
	RegDate  datatypes.Date  `gorm:"not null" json:"reg_date"`
	Category *string         `gorm:"size:50;index" json:"category"`
	Model    *string         `gorm:"size:50" json:"model"`
	Unit     *string         `gorm:"size:10" json:"unit"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock    int             `gorm:"not null;default:0" json:"stock"`
}

// Customer is a registered buyer. Customers own view events and sales.
type Customer struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"size:50;not null;index" json:"name"`
	Address *string `gorm:"size:200" json:"address"`
	Phone   *string `gorm:"size:20" json:"phone"`
}

// ViewEvent records a customer looking at a product. ViewedAt is stored
// in UTC.
type ViewEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	ViewedAt   time.Time `gorm:"not null;index" json:"viewed_at"`
	Platform   *string   `gorm:"size:20;index" json:"platform"`

	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Product  Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

// SaleRecord is an immutable sale fact. TotalAmount is carried as
// recorded and is not recomputed from UnitPrice and Quantity.
type SaleRecord struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	SaleDate      datatypes.Date  `gorm:"not null;index" json:"sale_date"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaymentMethod *string         `gorm:"size:20" json:"payment_method"`

	Product  Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	Customer Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

// allModels lists every table in dependency order for AutoMigrate.
func allModels() []any {
	return []any{&Product{}, &Customer{}, &ViewEvent{}, &SaleRecord{}}
}

// dateOf truncates t to a UTC calendar date.
func dateOf(t time.Time) datatypes.Date {
	y, m, d := t.UTC().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// optionalString maps blank input to nil so empty text is stored as NULL.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
