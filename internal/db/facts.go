package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleInput describes a sale to record. UnitPrice defaults to the
// product's current price and TotalAmount to UnitPrice * Quantity.
type SaleInput struct {
	ProductID     uint
	CustomerID    uint
	SaleDate      string
	Quantity      int
	UnitPrice     *decimal.Decimal
	TotalAmount   *decimal.Decimal
	PaymentMethod string
}

// ViewInput describes a view event to record. A zero ViewedAt means now.
type ViewInput struct {
	CustomerID uint
	ProductID  uint
	ViewedAt   time.Time
	Platform   string
}

// RecordSale appends a sale fact after checking that both the product and
// the customer exist.
func (s *Store) RecordSale(ctx context.Context, in SaleInput) (*SaleRecord, error) {
	if in.Quantity <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, invalid("unit_price", "must not be negative")
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return nil, invalid("total_amount", "must not be negative")
	}

	rec := &SaleRecord{
		ProductID:     in.ProductID,
		CustomerID:    in.CustomerID,
		SaleDate:      dateOf(time.Now()),
		Quantity:      in.Quantity,
		PaymentMethod: optionalString(strings.TrimSpace(in.PaymentMethod)),
	}
	if d := strings.TrimSpace(in.SaleDate); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, invalid("sale_date", "must be formatted YYYY-MM-DD")
		}
		rec.SaleDate = dateOf(t)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := requireCustomer(tx, in.CustomerID); err != nil {
			return err
		}

		rec.UnitPrice = product.Price
		if in.UnitPrice != nil {
			rec.UnitPrice = in.UnitPrice.Round(2)
		}
		rec.TotalAmount = rec.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2)
		if in.TotalAmount != nil {
			rec.TotalAmount = in.TotalAmount.Round(2)
		}
		return tx.Omit(clause.Associations).Create(rec).Error
	})
	if err != nil {
		return nil, storeError("record sale", err)
	}
	return rec, nil
}

// RecordView appends a view event. ViewedAt is normalized to UTC and
// truncated to milliseconds, the precision SQLite date functions keep.
func (s *Store) RecordView(ctx context.Context, in ViewInput) (*ViewEvent, error) {
	viewedAt := in.ViewedAt
	if viewedAt.IsZero() {
		viewedAt = time.Now()
	}
	ev := &ViewEvent{
		CustomerID: in.CustomerID,
		ProductID:  in.ProductID,
		ViewedAt:   viewedAt.UTC().Truncate(time.Millisecond),
		Platform:   optionalString(strings.TrimSpace(in.Platform)),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireProduct(tx, in.ProductID); err != nil {
			return err
		}
		if err := requireCustomer(tx, in.CustomerID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(ev).Error
	})
	if err != nil {
		return nil, storeError("record view", err)
	}
	return ev, nil
}

func requireProduct(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func requireCustomer(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&Customer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
