package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SaleRow is one line of the sales listing, flattened with the product and
// customer names.
type SaleRow struct {
	ID            uint            `json:"id"`
	SaleDate      datatypes.Date  `json:"sale_date"`
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
	CustomerID    uint            `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod *string         `json:"payment_method"`
}

// ViewRow is one line of the view event listing.
type ViewRow struct {
	ID           uint      `json:"id"`
	ViewedAt     time.Time `json:"viewed_at"`
	CustomerID   uint      `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	ProductID    uint      `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Platform     *string   `json:"platform"`
}

// ListSales returns a page of sales, newest first, narrowed by f.
func (s *Store) ListSales(ctx context.Context, f SalesFilter, page, pageSize int) (*Page[SaleRow], error) {
	q := f.scope(s.db.WithContext(ctx).Model(&SaleRecord{}).
		Joins("JOIN products ON products.id = sale_records.product_id").
		Joins("JOIN customers ON customers.id = sale_records.customer_id"))

	p, err := Paginate[SaleRow](q, page, pageSizeOr(pageSize, SalePageSize), func(tx *gorm.DB) *gorm.DB {
		return tx.Select("sale_records.id AS id, sale_records.sale_date AS sale_date, " +
			"sale_records.product_id AS product_id, products.name AS product_name, " +
			"sale_records.customer_id AS customer_id, customers.name AS customer_name, " +
			"sale_records.unit_price AS unit_price, sale_records.quantity AS quantity, " +
			"sale_records.total_amount AS total_amount, sale_records.payment_method AS payment_method").
			Order("sale_records.sale_date DESC").
			Order("sale_records.id DESC")
	})
	if err != nil {
		return nil, storeError("list sales", err)
	}
	return p, nil
}

// ListViews returns a page of view events, most recent first, narrowed by f.
func (s *Store) ListViews(ctx context.Context, f ViewFilter, page, pageSize int) (*Page[ViewRow], error) {
	q := f.scope(s.db.WithContext(ctx).Model(&ViewEvent{}).
		Joins("JOIN customers ON customers.id = view_events.customer_id").
		Joins("JOIN products ON products.id = view_events.product_id"))

	p, err := Paginate[ViewRow](q, page, pageSizeOr(pageSize, ViewPageSize), func(tx *gorm.DB) *gorm.DB {
		return tx.Select("view_events.id AS id, view_events.viewed_at AS viewed_at, " +
			"view_events.customer_id AS customer_id, customers.name AS customer_name, " +
			"view_events.product_id AS product_id, products.name AS product_name, " +
			"view_events.platform AS platform").
			Order("view_events.viewed_at DESC").
			Order("view_events.id DESC")
	})
	if err != nil {
		return nil, storeError("list views", err)
	}
	return p, nil
}

// ListProducts returns a page of products for the management listing,
// newest first.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter, page, pageSize int) (*Page[Product], error) {
	q := f.scope(s.db.WithContext(ctx).Model(&Product{}))

	p, err := Paginate[Product](q, page, pageSizeOr(pageSize, ProductPageSize), func(tx *gorm.DB) *gorm.DB {
		return tx.Order("products.id DESC")
	})
	if err != nil {
		return nil, storeError("list products", err)
	}
	return p, nil
}
