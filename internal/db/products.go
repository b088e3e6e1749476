package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// ProductInput is the raw, untrusted form of a product as submitted by a
// client. Validate converts it into a Product.
type ProductInput struct {
	Name     string
	RegDate  string
	Category string
	Model    string
	Unit     string
	Price    string
	Stock    string
}

type productFields struct {
	name     string
	regDate  *datatypes.Date
	category *string
	model    *string
	unit     *string
	price    decimal.Decimal
	stock    int
}

func (in ProductInput) validate() (*productFields, error) {
	f := &productFields{
		name:     strings.TrimSpace(in.Name),
		category: optionalString(strings.TrimSpace(in.Category)),
		model:    optionalString(strings.TrimSpace(in.Model)),
		unit:     optionalString(strings.TrimSpace(in.Unit)),
	}
	if f.name == "" {
		return nil, invalid("name", "is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(in.Price))
	if err != nil {
		return nil, invalid("price", "must be a number")
	}
	if !price.IsPositive() {
		return nil, invalid("price", "must be greater than zero")
	}
	f.price = price.Round(2)

	s := strings.TrimSpace(in.Stock)
	if s == "" {
		return nil, invalid("stock", "is required")
	}
	stock, err := strconv.Atoi(s)
	if err != nil {
		return nil, invalid("stock", "must be an integer")
	}
	if stock < 0 {
		return nil, invalid("stock", "must not be negative")
	}
	f.stock = stock

	if s := strings.TrimSpace(in.RegDate); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, invalid("reg_date", "must be formatted YYYY-MM-DD")
		}
		d := dateOf(t)
		f.regDate = &d
	}
	return f, nil
}

func (f *productFields) apply(p *Product) {
	p.Name = f.name
	p.Category = f.category
	p.Model = f.model
	p.Unit = f.unit
	p.Price = f.price
	p.Stock = f.stock
	if f.regDate != nil {
		p.RegDate = *f.regDate
	}
}

// CreateProduct validates in and inserts a new product. A missing
// registration date defaults to today (UTC).
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	fields, err := in.validate()
	if err != nil {
		return nil, err
	}
	p := &Product{RegDate: dateOf(time.Now())}
	fields.apply(p)

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, storeError("create product", err)
	}
	return p, nil
}

// UpdateProduct replaces the editable fields of product id. The
// registration date is kept when in.RegDate is blank.
func (s *Store) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*Product, error) {
	fields, err := in.validate()
	if err != nil {
		return nil, err
	}

	var p Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		fields.apply(&p)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, storeError("update product", err)
	}
	return &p, nil
}

// GetProduct loads a single product by id.
func (s *Store) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var p Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("get product", err)
	}
	return &p, nil
}

// DeleteProduct removes a product together with every view event and sale
// that references it, atomically.
func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("product_id = ?", id).Delete(&ViewEvent{})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("product_id = ?", id).Delete(&SaleRecord{}).Error; err != nil {
			return err
		}
		res = tx.Delete(&Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	return storeError("delete product", err)
}
