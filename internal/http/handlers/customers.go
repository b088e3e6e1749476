package handlers

import (
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

func customerInput(ctx *fasthttp.RequestCtx) dbpkg.CustomerInput {
	return dbpkg.CustomerInput{
		Name:    formString(ctx, "name"),
		Address: formString(ctx, "address"),
		Phone:   formString(ctx, "phone"),
	}
}

func CreateCustomer(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		c, err := store.CreateCustomer(ctx, customerInput(ctx))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusCreated, c)
	}
}

func UpdateCustomer(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		c, err := store.UpdateCustomer(ctx, id, customerInput(ctx))
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, c)
	}
}

func DeleteCustomer(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		if err := store.DeleteCustomer(ctx, id); err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"status": "deleted", "id": id})
	}
}

func GetCustomer(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id, ok := pathID(ctx)
		if !ok {
			return
		}
		c, err := store.GetCustomer(ctx, id)
		if err != nil {
			writeError(ctx, err)
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, c)
	}
}
