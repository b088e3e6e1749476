package handlers

import (
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

// SalesListing serves GET /v1/sales?keyword=&page=&page_size=.
func SalesListing(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		filter := dbpkg.ParseSalesFilter(queryString(ctx, "keyword"))

		page, err := store.ListSales(ctx, filter, queryInt(ctx, "page", 1), queryInt(ctx, "page_size", 0))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"items":           page.Items,
			"page":            page.Page,
			"page_size":       page.PageSize,
			"total_count":     page.TotalCount,
			"total_pages":     page.TotalPages,
			"ignored_filters": []string{},
		})
	}
}

// ViewsListing serves GET /v1/views?customer=&start=&end=&page=&page_size=.
// Date bounds that fail to parse are skipped and echoed in ignored_filters.
func ViewsListing(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		filter := dbpkg.ParseViewFilter(
			queryString(ctx, "customer"),
			queryString(ctx, "start"),
			queryString(ctx, "end"),
		)

		page, err := store.ListViews(ctx, filter, queryInt(ctx, "page", 1), queryInt(ctx, "page_size", 0))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"items":           page.Items,
			"page":            page.Page,
			"page_size":       page.PageSize,
			"total_count":     page.TotalCount,
			"total_pages":     page.TotalPages,
			"ignored_filters": filter.Ignored,
		})
	}
}

// ProductsListing serves the product management listing, newest first.
func ProductsListing(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		filter := dbpkg.ParseProductFilter(queryString(ctx, "keyword"))

		page, err := store.ListProducts(ctx, filter, queryInt(ctx, "page", 1), queryInt(ctx, "page_size", 0))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"items":           page.Items,
			"page":            page.Page,
			"page_size":       page.PageSize,
			"total_count":     page.TotalCount,
			"total_pages":     page.TotalPages,
			"ignored_filters": []string{},
		})
	}
}
