package db

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedCounts sizes a demo data set.
type SeedCounts struct {
	Customers int
	Products  int
	Views     int
	Sales     int
}

// DefaultSeedCounts matches the demo data set shipped with the dashboard.
var DefaultSeedCounts = SeedCounts{Customers: 100, Products: 150, Views: 1000, Sales: 600}

var (
	seedCategories     = []string{"Electronics", "Home", "Apparel", "Food & Drink", "Books", "Outdoors", "Beauty", "Toys"}
	seedUnits          = []string{"piece", "set", "box", "bottle", "pair", "unit"}
	seedNouns          = []string{"Phone", "Laptop", "Headphones", "Sofa", "Jacket", "Snacks", "Notebook", "Sneakers"}
	seedAdjectives     = []string{"Classic", "Smart", "Compact", "Deluxe", "Eco", "Ultra", "Mini", "Pro"}
	seedFirstNames     = []string{"Alex", "Sam", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Avery", "Quinn"}
	seedLastNames      = []string{"Chen", "Garcia", "Smith", "Kim", "Patel", "Nguyen", "Lopez", "Wang", "Brown", "Silva"}
	seedStreets        = []string{"Oak St", "Maple Ave", "Harbor Rd", "Hill Ln", "River Dr", "Park Blvd"}
	seedPlatforms      = []string{"PC", "APP", "Mobile Web", "Mini Program"}
	seedPaymentMethods = []string{"Card", "Wallet", "Bank Transfer", "Cash on Delivery", "Credit"}
)

// SeedIfEmpty fills an empty database with a reproducible demo data set
// drawn from seed. It reports whether anything was written; a database
// that already holds products or customers is left untouched.
func SeedIfEmpty(ctx context.Context, s *Store, counts SeedCounts, seed uint64) (bool, error) {
	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products, customers int64
		if err := tx.Model(&Product{}).Count(&products).Error; err != nil {
			return err
		}
		if err := tx.Model(&Customer{}).Count(&customers).Error; err != nil {
			return err
		}
		if products > 0 || customers > 0 {
			return nil
		}
		seeded = true
		return seedAll(tx, counts, rand.New(rand.NewPCG(seed, seed^0x5eed)), time.Now().UTC())
	})
	if err != nil {
		return false, storeError("seed", err)
	}
	return seeded, nil
}

func pick[T any](r *rand.Rand, xs []T) T {
	return xs[r.IntN(len(xs))]
}

func seedAll(tx *gorm.DB, counts SeedCounts, r *rand.Rand, now time.Time) error {
	customers := make([]Customer, 0, counts.Customers)
	for range counts.Customers {
		customers = append(customers, Customer{
			Name:    pick(r, seedFirstNames) + " " + pick(r, seedLastNames),
			Address: optionalString(fmt.Sprintf("%d %s", 1+r.IntN(999), pick(r, seedStreets))),
			Phone:   optionalString(fmt.Sprintf("555-%04d", r.IntN(10000))),
		})
	}
	if len(customers) > 0 {
		if err := tx.CreateInBatches(&customers, 100).Error; err != nil {
			return err
		}
	}

	products := make([]Product, 0, counts.Products)
	for range counts.Products {
		products = append(products, Product{
			Name:     pick(r, seedAdjectives) + " " + pick(r, seedNouns),
			RegDate:  dateOf(now.AddDate(0, 0, -r.IntN(730))),
			Category: optionalString(pick(r, seedCategories)),
			Model:    optionalString(fmt.Sprintf("%c%d", "ABCXYZ"[r.IntN(6)], 100+r.IntN(900))),
			Unit:     optionalString(pick(r, seedUnits)),
			Price:    decimal.New(int64(1000+r.IntN(499001)), -2),
			Stock:    r.IntN(501),
		})
	}
	if len(products) > 0 {
		if err := tx.CreateInBatches(&products, 100).Error; err != nil {
			return err
		}
	}

	if len(customers) == 0 || len(products) == 0 {
		return nil
	}

	views := make([]ViewEvent, 0, counts.Views)
	for range counts.Views {
		views = append(views, ViewEvent{
			CustomerID: pick(r, customers).ID,
			ProductID:  pick(r, products).ID,
			ViewedAt:   now.Add(-time.Duration(r.Int64N(int64(365 * 24 * time.Hour)))).Truncate(time.Second),
			Platform:   optionalString(pick(r, seedPlatforms)),
		})
	}
	if len(views) > 0 {
		if err := tx.Omit(clause.Associations).CreateInBatches(&views, 200).Error; err != nil {
			return err
		}
	}

	sales := make([]SaleRecord, 0, counts.Sales)
	for range counts.Sales {
		product := pick(r, products)
		quantity := 1 + r.IntN(10)
		sales = append(sales, SaleRecord{
			ProductID:     product.ID,
			CustomerID:    pick(r, customers).ID,
			SaleDate:      dateOf(now.AddDate(0, 0, -r.IntN(365))),
			UnitPrice:     product.Price,
			Quantity:      quantity,
			TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
			PaymentMethod: optionalString(pick(r, seedPaymentMethods)),
		})
	}
	if len(sales) > 0 {
		if err := tx.Omit(clause.Associations).CreateInBatches(&sales, 200).Error; err != nil {
			return err
		}
	}
	return nil
}
