package handlers

import (
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

// Dashboard serves the headline figures for ?year= (default: current year).
// A malformed year falls back to the default.
func Dashboard(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		year := queryInt(ctx, "year", 0)

		d, err := store.ComputeDashboard(ctx, year)
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, d)
	}
}
