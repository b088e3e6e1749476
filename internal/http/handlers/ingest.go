package handlers

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

type saleRequest struct {
	ProductID     uint             `json:"product_id"`
	CustomerID    uint             `json:"customer_id"`
	SaleDate      string           `json:"sale_date,omitempty"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
}

type viewRequest struct {
	CustomerID uint       `json:"customer_id"`
	ProductID  uint       `json:"product_id"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty"`
	Platform   string     `json:"platform,omitempty"`
}

// RecordSale handles POST /v1/sales with a JSON body.
func RecordSale(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req saleRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: "invalid JSON body"})
			return
		}

		rec, err := store.RecordSale(ctx, dbpkg.SaleInput{
			ProductID:     req.ProductID,
			CustomerID:    req.CustomerID,
			SaleDate:      req.SaleDate,
			Quantity:      req.Quantity,
			UnitPrice:     req.UnitPrice,
			TotalAmount:   req.TotalAmount,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			writeError(ctx, err)
			return
		}

		factsRecordedTotal.WithLabelValues("sale").Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, rec)
	}
}

// RecordView handles POST /v1/views with a JSON body.
func RecordView(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req viewRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: "invalid JSON body"})
			return
		}

		in := dbpkg.ViewInput{CustomerID: req.CustomerID, ProductID: req.ProductID, Platform: req.Platform}
		if req.ViewedAt != nil {
			in.ViewedAt = *req.ViewedAt
		}

		ev, err := store.RecordView(ctx, in)
		if err != nil {
			writeError(ctx, err)
			return
		}

		factsRecordedTotal.WithLabelValues("view").Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, ev)
	}
}
