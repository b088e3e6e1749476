package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func mustProduct(t *testing.T, s *Store, name, category, price string, stock int) *Product {
	t.Helper()
	p, err := s.CreateProduct(context.Background(), ProductInput{
		Name:     name,
		Category: category,
		Price:    price,
		Stock:    fmt.Sprint(stock),
		RegDate:  "2024-01-01",
	})
	require.NoError(t, err)
	return p
}

func mustCustomer(t *testing.T, s *Store, name string) *Customer {
	t.Helper()
	c, err := s.CreateCustomer(context.Background(), CustomerInput{Name: name})
	require.NoError(t, err)
	return c
}

func mustSale(t *testing.T, s *Store, productID, customerID uint, date string, quantity int, total string) *SaleRecord {
	t.Helper()
	amount := decimal.RequireFromString(total)
	rec, err := s.RecordSale(context.Background(), SaleInput{
		ProductID:   productID,
		CustomerID:  customerID,
		SaleDate:    date,
		Quantity:    quantity,
		TotalAmount: &amount,
	})
	require.NoError(t, err)
	return rec
}

func mustView(t *testing.T, s *Store, customerID, productID uint, at time.Time, platform string) *ViewEvent {
	t.Helper()
	ev, err := s.RecordView(context.Background(), ViewInput{
		CustomerID: customerID,
		ProductID:  productID,
		ViewedAt:   at,
		Platform:   platform,
	})
	require.NoError(t, err)
	return ev
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func countRows(t *testing.T, s *Store, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(model).Count(&n).Error)
	return n
}

// =============================================================================
// Products and customers
// =============================================================================

func testCreateProductValidation(t *testing.T, s *Store) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input ProductInput
		field string
	}{
		{"empty name", ProductInput{Name: "  ", Price: "10"}, "name"},
		{"non-numeric price", ProductInput{Name: "Lamp", Price: "abc"}, "price"},
		{"zero price", ProductInput{Name: "Lamp", Price: "0"}, "price"},
		{"negative price", ProductInput{Name: "Lamp", Price: "-3.5"}, "price"},
		{"non-integer stock", ProductInput{Name: "Lamp", Price: "10", Stock: "1.5"}, "stock"},
		{"missing stock", ProductInput{Name: "Lamp", Price: "10", Stock: "  "}, "stock"},
		{"negative stock", ProductInput{Name: "Lamp", Price: "10", Stock: "-1"}, "stock"},
		{"bad registration date", ProductInput{Name: "Lamp", Price: "10", Stock: "1", RegDate: "2024/01/01"}, "reg_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := s.CreateProduct(ctx, tt.input)
			require.Error(t, err)
			assert.Nil(t, p)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Zero(t, countRows(t, s, &Product{}))

	t.Run("blank optional fields are stored as NULL", func(t *testing.T) {
		p, err := s.CreateProduct(ctx, ProductInput{Name: " Lamp ", Price: "19.99", Stock: "0", Category: "  "})
		require.NoError(t, err)
		assert.Equal(t, "Lamp", p.Name)
		assert.Nil(t, p.Category)
		assert.Nil(t, p.Model)
		assert.Equal(t, 0, p.Stock)

		loaded, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded.Category)
		assertDecimal(t, "19.99", loaded.Price)
		assert.False(t, time.Time(loaded.RegDate).IsZero())
	})
}

func testUpdateProduct(t *testing.T, s *Store) {
	ctx := context.Background()
	p := mustProduct(t, s, "Desk", "Home", "120", 4)

	updated, err := s.UpdateProduct(ctx, p.ID, ProductInput{Name: "Standing Desk", Category: "Office", Price: "150.50", Stock: "7"})
	require.NoError(t, err)
	assert.Equal(t, "Standing Desk", updated.Name)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Office", *updated.Category)

	loaded, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Stock)
	assertDecimal(t, "150.50", loaded.Price)
	assert.Equal(t, "2024-01-01", time.Time(loaded.RegDate).Format(dateLayout), "blank reg_date keeps the stored one")

	_, err = s.UpdateProduct(ctx, p.ID, ProductInput{Name: "Desk", Price: "nope", Stock: "7"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = s.UpdateProduct(ctx, p.ID, ProductInput{Name: "Desk v2", Price: "99"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "stock", ve.Field)
	loaded, err = s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Stock, "a rejected update leaves stock untouched")
	assert.Equal(t, "Standing Desk", loaded.Name)

	_, err = s.UpdateProduct(ctx, p.ID+1000, ProductInput{Name: "Ghost", Price: "1", Stock: "1"})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testCustomerLifecycle(t *testing.T, s *Store) {
	ctx := context.Background()

	_, err := s.CreateCustomer(ctx, CustomerInput{Name: ""})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	c, err := s.CreateCustomer(ctx, CustomerInput{Name: "Avery Kim", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Nil(t, c.Address)

	c, err = s.UpdateCustomer(ctx, c.ID, CustomerInput{Name: "Avery Kim", Address: "1 Oak St"})
	require.NoError(t, err)
	require.NotNil(t, c.Address)
	assert.Nil(t, c.Phone)

	_, err = s.GetCustomer(ctx, c.ID+1000)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func testDeleteProductCascades(t *testing.T, s *Store) {
	ctx := context.Background()
	doomed := mustProduct(t, s, "Doomed", "Toys", "10", 1)
	kept := mustProduct(t, s, "Kept", "Toys", "10", 1)
	c := mustCustomer(t, s, "Riley")

	mustSale(t, s, doomed.ID, c.ID, "2024-03-01", 1, "10")
	mustSale(t, s, doomed.ID, c.ID, "2024-03-02", 2, "20")
	mustSale(t, s, kept.ID, c.ID, "2024-03-02", 1, "10")
	mustView(t, s, c.ID, doomed.ID, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), "PC")
	mustView(t, s, c.ID, kept.ID, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), "PC")

	require.NoError(t, s.DeleteProduct(ctx, doomed.ID))

	_, err := s.GetProduct(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, int64(1), countRows(t, s, &SaleRecord{}))
	assert.Equal(t, int64(1), countRows(t, s, &ViewEvent{}))

	t.Run("product without dependents", func(t *testing.T) {
		lonely := mustProduct(t, s, "Lonely", "", "5", 0)
		require.NoError(t, s.DeleteProduct(ctx, lonely.ID))
		assert.Equal(t, int64(1), countRows(t, s, &Product{}))
	})

	t.Run("missing product", func(t *testing.T) {
		err := s.DeleteProduct(ctx, doomed.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.Equal(t, int64(1), countRows(t, s, &SaleRecord{}))
	})
}

func testDeleteCustomerCascades(t *testing.T, s *Store) {
	ctx := context.Background()
	p := mustProduct(t, s, "Mug", "Home", "8", 30)
	doomed := mustCustomer(t, s, "Doomed")
	kept := mustCustomer(t, s, "Kept")

	mustSale(t, s, p.ID, doomed.ID, "2024-05-01", 1, "8")
	mustSale(t, s, p.ID, kept.ID, "2024-05-01", 1, "8")
	mustView(t, s, doomed.ID, p.ID, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), "APP")

	require.NoError(t, s.DeleteCustomer(ctx, doomed.ID))
	assert.Equal(t, int64(1), countRows(t, s, &Customer{}))
	assert.Equal(t, int64(1), countRows(t, s, &SaleRecord{}))
	assert.Zero(t, countRows(t, s, &ViewEvent{}))

	assert.ErrorIs(t, s.DeleteCustomer(ctx, doomed.ID), ErrCustomerNotFound)
}

// =============================================================================
// Facts
// =============================================================================

func testRecordSale(t *testing.T, s *Store) {
	ctx := context.Background()
	p := mustProduct(t, s, "Kettle", "Home", "24.50", 12)
	c := mustCustomer(t, s, "Quinn")

	rec, err := s.RecordSale(ctx, SaleInput{ProductID: p.ID, CustomerID: c.ID, SaleDate: "2024-02-10", Quantity: 3, PaymentMethod: "Card"})
	require.NoError(t, err)
	assertDecimal(t, "24.50", rec.UnitPrice)
	assertDecimal(t, "73.50", rec.TotalAmount)
	assert.Equal(t, "2024-02-10", time.Time(rec.SaleDate).Format(dateLayout))

	loaded, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Stock, "recording a sale does not touch stock")

	_, err = s.RecordSale(ctx, SaleInput{ProductID: p.ID, CustomerID: c.ID, Quantity: 0})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	_, err = s.RecordSale(ctx, SaleInput{ProductID: p.ID, CustomerID: c.ID, Quantity: 1, SaleDate: "10/02/2024"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sale_date", ve.Field)

	_, err = s.RecordSale(ctx, SaleInput{ProductID: p.ID + 1000, CustomerID: c.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = s.RecordSale(ctx, SaleInput{ProductID: p.ID, CustomerID: c.ID + 1000, Quantity: 1})
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	assert.Equal(t, int64(1), countRows(t, s, &SaleRecord{}))
}

func testRecordView(t *testing.T, s *Store) {
	ctx := context.Background()
	p := mustProduct(t, s, "Lamp", "Home", "30", 3)
	c := mustCustomer(t, s, "Jamie")

	local := time.FixedZone("UTC+8", 8*3600)
	ev, err := s.RecordView(ctx, ViewInput{CustomerID: c.ID, ProductID: p.ID, ViewedAt: time.Date(2024, 6, 1, 2, 0, 0, 0, local)})
	require.NoError(t, err)
	assert.Nil(t, ev.Platform)
	assert.Equal(t, time.UTC, ev.ViewedAt.Location())
	assert.True(t, ev.ViewedAt.Equal(time.Date(2024, 5, 31, 18, 0, 0, 0, time.UTC)))

	ev, err = s.RecordView(ctx, ViewInput{CustomerID: c.ID, ProductID: p.ID, ViewedAt: time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, 123000000, ev.ViewedAt.Nanosecond(), "stored with millisecond precision")

	_, err = s.RecordView(ctx, ViewInput{CustomerID: c.ID + 1000, ProductID: p.ID})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	_, err = s.RecordView(ctx, ViewInput{CustomerID: c.ID, ProductID: p.ID + 1000})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

// =============================================================================
// Dashboard
// =============================================================================

func testDashboardEmpty(t *testing.T, s *Store) {
	d, err := s.ComputeDashboard(context.Background(), 2019)
	require.NoError(t, err)

	assert.Equal(t, 2019, d.Year)
	assert.True(t, d.TotalSalesAmount.IsZero())
	assert.Zero(t, d.TotalSalesQuantity)
	assert.Zero(t, d.TotalProductCount)
	assert.NotNil(t, d.DailyViews)
	assert.NotNil(t, d.CategoryBreakdown)
	assert.NotNil(t, d.MonthlyTrend)
	assert.NotNil(t, d.TopProducts)
	assert.NotNil(t, d.PlatformDistribution)
	assert.Empty(t, d.TopProducts)

	current, err := s.ComputeDashboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Year(), current.Year)
}

func testDashboardSalesTotals(t *testing.T, s *Store) {
	p := mustProduct(t, s, "Chair", "Home", "50", 40)
	c := mustCustomer(t, s, "Morgan")

	mustSale(t, s, p.ID, c.ID, "2024-01-01", 2, "100.00")
	mustSale(t, s, p.ID, c.ID, "2024-12-31", 5, "250.50")
	mustSale(t, s, p.ID, c.ID, "2023-12-31", 9, "999.99")
	mustSale(t, s, p.ID, c.ID, "2025-01-01", 9, "999.99")

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	assertDecimal(t, "350.50", d.TotalSalesAmount)
	assert.Equal(t, int64(7), d.TotalSalesQuantity)
	assert.Equal(t, int64(1), d.TotalProductCount)
	assert.Equal(t, int64(1), d.TotalCustomerCount)

	other, err := s.ComputeDashboard(context.Background(), 2022)
	require.NoError(t, err)
	assert.True(t, other.TotalSalesAmount.IsZero())
	assert.Empty(t, other.MonthlyTrend)
}

func testDashboardMonthlyTrend(t *testing.T, s *Store) {
	p := mustProduct(t, s, "Pen", "Books", "2", 400)
	c := mustCustomer(t, s, "Casey")

	mustSale(t, s, p.ID, c.ID, "2024-03-15", 4, "8")
	mustSale(t, s, p.ID, c.ID, "2024-01-02", 1, "2")
	mustSale(t, s, p.ID, c.ID, "2024-01-31", 2, "4")
	mustSale(t, s, p.ID, c.ID, "2023-01-31", 2, "4")

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, d.MonthlyTrend, 2)
	assert.Equal(t, "2024-01", d.MonthlyTrend[0].Month)
	assertDecimal(t, "6", d.MonthlyTrend[0].Amount)
	assert.Equal(t, int64(3), d.MonthlyTrend[0].Quantity)
	assert.Equal(t, "2024-03", d.MonthlyTrend[1].Month)
	assert.Equal(t, int64(4), d.MonthlyTrend[1].Quantity)
}

func testDashboardTopProducts(t *testing.T, s *Store) {
	c := mustCustomer(t, s, "Taylor")
	a := mustProduct(t, s, "A", "Toys", "1", 100)
	b := mustProduct(t, s, "B", "Toys", "1", 100)
	unsold := mustProduct(t, s, "C", "Toys", "1", 100)

	mustSale(t, s, a.ID, c.ID, "2024-04-01", 30, "30")
	mustSale(t, s, a.ID, c.ID, "2024-04-02", 20, "20")
	mustSale(t, s, b.ID, c.ID, "2024-04-01", 30, "30")
	for i := range 11 {
		p := mustProduct(t, s, fmt.Sprintf("Filler %02d", i), "Toys", "1", 100)
		mustSale(t, s, p.ID, c.ID, "2024-04-03", 1+i%3, "1")
	}

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, d.TopProducts, TopProductsLimit)

	assert.Equal(t, a.ID, d.TopProducts[0].ProductID)
	assert.Equal(t, "A", d.TopProducts[0].Name)
	assert.Equal(t, int64(50), d.TopProducts[0].Quantity)
	assertDecimal(t, "50", d.TopProducts[0].Amount)
	assert.Equal(t, b.ID, d.TopProducts[1].ProductID)
	assert.Equal(t, int64(30), d.TopProducts[1].Quantity)

	for i := 1; i < len(d.TopProducts); i++ {
		prev, cur := d.TopProducts[i-1], d.TopProducts[i]
		assert.GreaterOrEqual(t, prev.Quantity, cur.Quantity)
		if prev.Quantity == cur.Quantity {
			assert.Less(t, prev.ProductID, cur.ProductID, "ties are broken by product id")
		}
		assert.NotEqual(t, unsold.ID, cur.ProductID)
	}
}

func testDashboardCategoryBreakdown(t *testing.T, s *Store) {
	c := mustCustomer(t, s, "Sam")
	toys := mustProduct(t, s, "Kite", "Toys", "10", 10)
	books := mustProduct(t, s, "Atlas", "Books", "10", 10)
	bare := mustProduct(t, s, "Mystery Box", "", "10", 10)

	mustSale(t, s, toys.ID, c.ID, "2024-01-01", 1, "10")
	mustSale(t, s, toys.ID, c.ID, "2024-01-02", 1, "15.25")
	mustSale(t, s, books.ID, c.ID, "2024-01-01", 1, "7")
	mustSale(t, s, bare.ID, c.ID, "2024-01-01", 1, "3")

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, d.CategoryBreakdown, 3)

	assert.Equal(t, "Books", d.CategoryBreakdown[0].Category)
	assertDecimal(t, "7", d.CategoryBreakdown[0].Amount)
	assert.Equal(t, "Toys", d.CategoryBreakdown[1].Category)
	assertDecimal(t, "25.25", d.CategoryBreakdown[1].Amount)
	assert.Equal(t, UncategorizedLabel, d.CategoryBreakdown[2].Category)
	assertDecimal(t, "3", d.CategoryBreakdown[2].Amount)
}

func testDashboardLowStock(t *testing.T, s *Store) {
	mustProduct(t, s, "Scarce", "Home", "1", 5)
	mustProduct(t, s, "Plenty", "Home", "1", 20)
	mustProduct(t, s, "Also Plenty", "Home", "1", 20)

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.LowStockCount)
}

func testDashboardViews(t *testing.T, s *Store) {
	c := mustCustomer(t, s, "Alex")
	p := mustProduct(t, s, "Phone", "Electronics", "300", 50)

	mustView(t, s, c.ID, p.ID, time.Date(2024, 1, 30, 8, 0, 0, 0, time.UTC), "PC")
	mustView(t, s, c.ID, p.ID, time.Date(2024, 1, 31, 23, 59, 59, 999600000, time.UTC), "APP")
	mustView(t, s, c.ID, p.ID, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), "APP")
	mustView(t, s, c.ID, p.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "")

	d, err := s.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, []DayCount{
		{Day: "2024-01-30", Count: 1},
		{Day: "2024-01-31", Count: 2},
		{Day: "2024-02-01", Count: 1},
	}, d.DailyViews)

	sameDay, err := s.ListViews(context.Background(), ParseViewFilter("", "2024-01-31", "2024-01-31"), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sameDay.TotalCount, "listing and histogram agree on the last instant of a day")

	require.Len(t, d.PlatformDistribution, 3)
	assert.Nil(t, d.PlatformDistribution[0].Platform)
	assert.Equal(t, int64(1), d.PlatformDistribution[0].Count)
	assert.Equal(t, "APP", *d.PlatformDistribution[1].Platform)
	assert.Equal(t, int64(2), d.PlatformDistribution[1].Count)
	assert.Equal(t, "PC", *d.PlatformDistribution[2].Platform)

	t.Run("histogram keeps the most recent days", func(t *testing.T) {
		narrow, err := NewStore(s.DB(), WithHistogramDays(2))
		require.NoError(t, err)
		d, err := narrow.ComputeDashboard(context.Background(), 2024)
		require.NoError(t, err)
		require.Len(t, d.DailyViews, 2)
		assert.Equal(t, "2024-01-31", d.DailyViews[0].Day)
		assert.Equal(t, "2024-02-01", d.DailyViews[1].Day)
	})
}

type recordingObserver struct {
	components []string
}

func (r *recordingObserver) ObserveQuery(component string, _ time.Duration) {
	r.components = append(r.components, component)
}

func testDashboardObserver(t *testing.T, s *Store) {
	obs := &recordingObserver{}
	observed, err := NewStore(s.DB(), WithQueryObserver(obs))
	require.NoError(t, err)

	_, err = observed.ComputeDashboard(context.Background(), 2024)
	require.NoError(t, err)
	assert.Contains(t, obs.components, "sales_totals")
	assert.Contains(t, obs.components, "platform_distribution")
	assert.Len(t, obs.components, 8)
}

// =============================================================================
// Listings
// =============================================================================

func testListSales(t *testing.T, s *Store) {
	ctx := context.Background()
	c := mustCustomer(t, s, "Jordan")
	widget := mustProduct(t, s, "Blue Widget", "Tools", "5", 100)
	gadget := mustProduct(t, s, "Gadget", "Tools", "5", 100)

	for day := 1; day <= 5; day++ {
		mustSale(t, s, widget.ID, c.ID, fmt.Sprintf("2024-07-%02d", day), 1, "5")
	}
	for day := 1; day <= 3; day++ {
		mustSale(t, s, gadget.ID, c.ID, fmt.Sprintf("2024-07-%02d", day), 1, "5")
	}

	t.Run("no filter", func(t *testing.T) {
		page, err := s.ListSales(ctx, SalesFilter{}, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(8), page.TotalCount)
		assert.Equal(t, SalePageSize, page.PageSize)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Items, 8)
		assert.Equal(t, "2024-07-05", time.Time(page.Items[0].SaleDate).Format(dateLayout))
		for i := 1; i < len(page.Items); i++ {
			prev, cur := time.Time(page.Items[i-1].SaleDate), time.Time(page.Items[i].SaleDate)
			assert.False(t, cur.After(prev), "sales are newest first")
			if cur.Equal(prev) {
				assert.Greater(t, page.Items[i-1].ID, page.Items[i].ID)
			}
		}
	})

	t.Run("keyword across pages", func(t *testing.T) {
		f := ParseSalesFilter("WIDG")
		first, err := s.ListSales(ctx, f, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), first.TotalCount)
		assert.Equal(t, 3, first.TotalPages)
		require.Len(t, first.Items, 2)
		assert.Equal(t, "Blue Widget", first.Items[0].ProductName)
		assert.Equal(t, "Jordan", first.Items[0].CustomerName)

		last, err := s.ListSales(ctx, f, 3, 2)
		require.NoError(t, err)
		assert.Len(t, last.Items, 1)
		assert.Equal(t, int64(5), last.TotalCount)

		again, err := s.ListSales(ctx, f, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, first, again, "paging is idempotent")
	})

	t.Run("out of range pages", func(t *testing.T) {
		for _, n := range []int{0, -1, 99, math.MaxInt} {
			page, err := s.ListSales(ctx, SalesFilter{}, n, 2)
			require.NoError(t, err)
			assert.NotNil(t, page.Items)
			assert.Empty(t, page.Items)
			assert.Equal(t, int64(8), page.TotalCount)
			assert.Equal(t, 4, page.TotalPages)
		}
	})

	t.Run("zero matches", func(t *testing.T) {
		page, err := s.ListSales(ctx, ParseSalesFilter("zzz"), 1, 10)
		require.NoError(t, err)
		assert.Zero(t, page.TotalCount)
		assert.Zero(t, page.TotalPages)
		assert.NotNil(t, page.Items)
	})

	t.Run("like metacharacters are literal", func(t *testing.T) {
		page, err := s.ListSales(ctx, ParseSalesFilter("%"), 1, 10)
		require.NoError(t, err)
		assert.Zero(t, page.TotalCount)

		page, err = s.ListSales(ctx, ParseSalesFilter("_"), 1, 10)
		require.NoError(t, err)
		assert.Zero(t, page.TotalCount)
	})
}

func testListViews(t *testing.T, s *Store) {
	ctx := context.Background()
	robin := mustCustomer(t, s, "Robin Chen")
	casey := mustCustomer(t, s, "Casey Lopez")
	p := mustProduct(t, s, "Sofa", "Home", "900", 3)

	lastSecond := mustView(t, s, robin.ID, p.ID, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), "PC")
	mustView(t, s, robin.ID, p.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "PC")
	firstSecond := mustView(t, s, casey.ID, p.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "APP")
	mustView(t, s, casey.ID, p.ID, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), "APP")

	t.Run("inclusive date range", func(t *testing.T) {
		f := ParseViewFilter("", "2024-01-01", "2024-01-31")
		assert.Empty(t, f.Ignored)
		page, err := s.ListViews(ctx, f, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalCount)
		require.Len(t, page.Items, 2)
		assert.Equal(t, lastSecond.ID, page.Items[0].ID)
		assert.Equal(t, firstSecond.ID, page.Items[1].ID)
		assert.True(t, page.Items[0].ViewedAt.Equal(lastSecond.ViewedAt))
		assert.Equal(t, "Sofa", page.Items[0].ProductName)
	})

	t.Run("customer name substring", func(t *testing.T) {
		page, err := s.ListViews(ctx, ParseViewFilter("robin", "", ""), 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalCount)
		for _, row := range page.Items {
			assert.Equal(t, "Robin Chen", row.CustomerName)
		}
	})

	t.Run("malformed bound is dropped", func(t *testing.T) {
		f := ParseViewFilter("", "not-a-date", "2024-01-31")
		assert.Equal(t, []string{"start_date"}, f.Ignored)
		page, err := s.ListViews(ctx, f, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.TotalCount)
	})
}

func testListProducts(t *testing.T, s *Store) {
	ctx := context.Background()
	first := mustProduct(t, s, "Red Apple", "Food", "1", 10)
	second := mustProduct(t, s, "Green Apple", "Food", "1", 10)
	mustProduct(t, s, "Pear", "Food", "1", 10)

	page, err := s.ListProducts(ctx, ParseProductFilter("apple"), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, ProductPageSize, page.PageSize)
	assert.Equal(t, int64(2), page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)

	all, err := s.ListProducts(ctx, ProductFilter{}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalCount)
}

// =============================================================================
// Seeding
// =============================================================================

func testSeedIfEmpty(t *testing.T, s *Store) {
	ctx := context.Background()
	counts := SeedCounts{Customers: 5, Products: 7, Views: 20, Sales: 15}

	seeded, err := SeedIfEmpty(ctx, s, counts, 42)
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Equal(t, int64(5), countRows(t, s, &Customer{}))
	assert.Equal(t, int64(7), countRows(t, s, &Product{}))
	assert.Equal(t, int64(20), countRows(t, s, &ViewEvent{}))
	assert.Equal(t, int64(15), countRows(t, s, &SaleRecord{}))

	seeded, err = SeedIfEmpty(ctx, s, counts, 42)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, int64(7), countRows(t, s, &Product{}))

	d, err := s.ComputeDashboard(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.TotalProductCount)
}

// RunStoreTests runs every store behaviour against the store built by initDB.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) *Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, *Store)
	}{
		{"CreateProductValidation", testCreateProductValidation},
		{"UpdateProduct", testUpdateProduct},
		{"CustomerLifecycle", testCustomerLifecycle},
		{"DeleteProductCascades", testDeleteProductCascades},
		{"DeleteCustomerCascades", testDeleteCustomerCascades},
		{"RecordSale", testRecordSale},
		{"RecordView", testRecordView},
		{"DashboardEmpty", testDashboardEmpty},
		{"DashboardSalesTotals", testDashboardSalesTotals},
		{"DashboardMonthlyTrend", testDashboardMonthlyTrend},
		{"DashboardTopProducts", testDashboardTopProducts},
		{"DashboardCategoryBreakdown", testDashboardCategoryBreakdown},
		{"DashboardLowStock", testDashboardLowStock},
		{"DashboardViews", testDashboardViews},
		{"DashboardObserver", testDashboardObserver},
		{"ListSales", testListSales},
		{"ListViews", testListViews},
		{"ListProducts", testListProducts},
		{"SeedIfEmpty", testSeedIfEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
