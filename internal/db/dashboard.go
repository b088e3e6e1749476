package db

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// UncategorizedLabel stands in for products with no category.
	UncategorizedLabel = "Uncategorized"
	TopProductsLimit   = 10
	LowStockThreshold  = 10
)

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type MonthTotal struct {
	Month    string          `json:"month"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int64           `json:"quantity"`
}

type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
}

// PlatformCount is a view count per platform. Platform is nil for views
// recorded without one.
type PlatformCount struct {
	Platform *string `json:"platform"`
	Count    int64   `json:"count"`
}

// Dashboard is the set of headline figures for one year.
//
// Every field is computed by its own query, so under concurrent writes the
// figures may describe slightly different instants.
type Dashboard struct {
	Year                 int              `json:"year"`
	TotalSalesAmount     decimal.Decimal  `json:"total_sales_amount"`
	TotalSalesQuantity   int64            `json:"total_sales_quantity"`
	TotalProductCount    int64            `json:"total_product_count"`
	TotalCustomerCount   int64            `json:"total_customer_count"`
	DailyViews           []DayCount       `json:"daily_views"`
	CategoryBreakdown    []CategoryAmount `json:"category_breakdown"`
	MonthlyTrend         []MonthTotal     `json:"monthly_trend"`
	TopProducts          []ProductSales   `json:"top_products"`
	LowStockCount        int64            `json:"low_stock_count"`
	PlatformDistribution []PlatformCount  `json:"platform_distribution"`
}

// ComputeDashboard gathers the dashboard figures. Sales totals and the
// monthly trend are limited to year; a year <= 0 means the current UTC
// year. The remaining figures cover all data.
func (s *Store) ComputeDashboard(ctx context.Context, year int) (*Dashboard, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}
	d := &Dashboard{Year: year}
	db := s.db.WithContext(ctx)

	steps := []struct {
		component string
		run       func(*gorm.DB, *Dashboard) error
	}{
		{"sales_totals", s.salesTotals},
		{"entity_counts", s.entityCounts},
		{"daily_views", s.dailyViews},
		{"category_breakdown", s.categoryBreakdown},
		{"monthly_trend", s.monthlyTrend},
		{"top_products", s.topProducts},
		{"low_stock", s.lowStock},
		{"platform_distribution", s.platformDistribution},
	}
	for _, step := range steps {
		start := time.Now()
		err := step.run(db, d)
		if s.observer != nil {
			s.observer.ObserveQuery(step.component, time.Since(start))
		}
		if err != nil {
			return nil, storeError(fmt.Sprintf("dashboard %s", step.component), err)
		}
	}
	return d, nil
}

type amountQuantity struct {
	Amount   decimal.Decimal
	Quantity int64
}

type categoryAmountRow struct {
	Category *string
	Amount   decimal.Decimal
}

// yearBounds returns the [start, end) sale_date keys for year. Keys are
// plain YYYY-MM-DD strings so every backend compares them as dates.
func yearBounds(year int) (string, string) {
	return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-01-01", year+1)
}

func (s *Store) salesInYear(db *gorm.DB, year int) *gorm.DB {
	start, end := yearBounds(year)
	return db.Model(&SaleRecord{}).
		Where("sale_records.sale_date >= ? AND sale_records.sale_date < ?", start, end)
}

func (s *Store) salesTotals(db *gorm.DB, d *Dashboard) error {
	var totals amountQuantity
	err := s.salesInYear(db, d.Year).
		Select("COALESCE(SUM(sale_records.total_amount), 0) AS amount, COALESCE(SUM(sale_records.quantity), 0) AS quantity").
		Scan(&totals).Error
	if err != nil {
		return err
	}
	d.TotalSalesAmount = totals.Amount.Round(2)
	d.TotalSalesQuantity = totals.Quantity
	return nil
}

func (s *Store) entityCounts(db *gorm.DB, d *Dashboard) error {
	if err := db.Model(&Product{}).Count(&d.TotalProductCount).Error; err != nil {
		return err
	}
	return db.Model(&Customer{}).Count(&d.TotalCustomerCount).Error
}

// dailyViews keeps the most recent histogramDays buckets and returns them
// oldest first.
func (s *Store) dailyViews(db *gorm.DB, d *Dashboard) error {
	bucket := s.dialect.DayBucket("view_events.viewed_at")
	rows := make([]DayCount, 0)
	err := db.Model(&ViewEvent{}).
		Select(bucket + " AS day, COUNT(*) AS count").
		Group(bucket).
		Order(bucket + " DESC").
		Limit(s.histogramDays).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	slices.Reverse(rows)
	d.DailyViews = rows
	return nil
}

// categoryBreakdown sums sales per product category. NULL and empty
// categories are merged under UncategorizedLabel in Go so the SQL stays
// identical across backends.
func (s *Store) categoryBreakdown(db *gorm.DB, d *Dashboard) error {
	var rows []categoryAmountRow
	err := db.Model(&SaleRecord{}).
		Joins("JOIN products ON products.id = sale_records.product_id").
		Select("products.category AS category, COALESCE(SUM(sale_records.total_amount), 0) AS amount").
		Group("products.category").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byLabel := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		label := UncategorizedLabel
		if row.Category != nil && *row.Category != "" {
			label = *row.Category
		}
		byLabel[label] = byLabel[label].Add(row.Amount)
	}

	d.CategoryBreakdown = make([]CategoryAmount, 0, len(byLabel))
	for label, amount := range byLabel {
		d.CategoryBreakdown = append(d.CategoryBreakdown, CategoryAmount{Category: label, Amount: amount.Round(2)})
	}
	slices.SortFunc(d.CategoryBreakdown, func(a, b CategoryAmount) int {
		return strings.Compare(a.Category, b.Category)
	})
	return nil
}

func (s *Store) monthlyTrend(db *gorm.DB, d *Dashboard) error {
	bucket := s.dialect.MonthBucket("sale_records.sale_date")
	rows := make([]MonthTotal, 0)
	err := s.salesInYear(db, d.Year).
		Select(bucket + " AS month, COALESCE(SUM(sale_records.total_amount), 0) AS amount, COALESCE(SUM(sale_records.quantity), 0) AS quantity").
		Group(bucket).
		Order(bucket).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Amount = rows[i].Amount.Round(2)
	}
	d.MonthlyTrend = rows
	return nil
}

// topProducts ranks sold products by quantity; ties go to the lower id.
func (s *Store) topProducts(db *gorm.DB, d *Dashboard) error {
	rows := make([]ProductSales, 0)
	err := db.Model(&SaleRecord{}).
		Joins("JOIN products ON products.id = sale_records.product_id").
		Select("products.id AS product_id, products.name AS name, " +
			"COALESCE(SUM(sale_records.quantity), 0) AS quantity, " +
			"COALESCE(SUM(sale_records.total_amount), 0) AS amount").
		Group("products.id, products.name").
		Order("COALESCE(SUM(sale_records.quantity), 0) DESC").
		Order("products.id ASC").
		Limit(TopProductsLimit).
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Amount = rows[i].Amount.Round(2)
	}
	d.TopProducts = rows
	return nil
}

func (s *Store) lowStock(db *gorm.DB, d *Dashboard) error {
	return db.Model(&Product{}).Where("stock < ?", LowStockThreshold).Count(&d.LowStockCount).Error
}

// platformDistribution counts views per platform, the NULL group first.
func (s *Store) platformDistribution(db *gorm.DB, d *Dashboard) error {
	rows := make([]PlatformCount, 0)
	err := db.Model(&ViewEvent{}).
		Select("view_events.platform AS platform, COUNT(*) AS count").
		Group("view_events.platform").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	slices.SortFunc(rows, func(a, b PlatformCount) int {
		switch {
		case a.Platform == nil && b.Platform == nil:
			return 0
		case a.Platform == nil:
			return -1
		case b.Platform == nil:
			return 1
		}
		return strings.Compare(*a.Platform, *b.Platform)
	})
	d.PlatformDistribution = rows
	return nil
}
