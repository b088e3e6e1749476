package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// CustomerInput is the raw form of a customer as submitted by a client.
type CustomerInput struct {
	Name    string
	Address string
	Phone   string
}

func (in CustomerInput) apply(c *Customer) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	c.Name = name
	c.Address = optionalString(strings.TrimSpace(in.Address))
	c.Phone = optionalString(strings.TrimSpace(in.Phone))
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	var c Customer
	if err := in.apply(&c); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, storeError("create customer", err)
	}
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*Customer, error) {
	var c Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}
		if err := in.apply(&c); err != nil {
			return err
		}
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, storeError("update customer", err)
	}
	return &c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uint) (*Customer, error) {
	var c Customer
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, storeError("get customer", err)
	}
	return &c, nil
}

// DeleteCustomer removes a customer and all of their view events and
// sales in one transaction.
func (s *Store) DeleteCustomer(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&ViewEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&SaleRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCustomerNotFound
		}
		return nil
	})
	return storeError("delete customer", err)
}
