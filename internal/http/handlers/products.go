package handlers

import (
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

func productInput(ctx *fasthttp.RequestCtx) dbpkg.ProductInput {
	return dbpkg.ProductInput{
		Name:     formString(ctx, "name"),
		RegDate:  formString(ctx, "reg_date"),
		Category: formString(ctx, "category"),
		Model:    formString(ctx, "model"),
		Unit:     formString(ctx, "unit"),
		Price:    formString(ctx, "price"),
		Stock:    formString(ctx, "stock"),
	}
}

// CreateProduct handles POST /v1/products with a url-encoded form.
func CreateProduct(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		p, err := store.CreateProduct(ctx, productInput(ctx))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, p)
	}
}

func UpdateProduct(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		p, err := store.UpdateProduct(ctx, id, productInput(ctx))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, p)
	}
}

// DeleteProduct removes the product and every sale and view referencing it.
func DeleteProduct(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		if err := store.DeleteProduct(ctx, id); err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"status": "deleted", "id": id})
	}
}

func GetProduct(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		p, err := store.GetProduct(ctx, id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, p)
	}
}
