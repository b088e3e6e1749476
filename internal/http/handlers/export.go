package handlers

import (
	"fmt"

	"github.com/valyala/fasthttp"
	"github.com/xuri/excelize/v2"

	dbpkg "salesinsight/internal/db"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	salesSheet      = "Sales"
)

var salesHeader = []any{"ID", "Sale Date", "Product", "Customer", "Unit Price", "Quantity", "Total Amount", "Payment Method"}

// SalesExport serves the same page as SalesListing as an XLSX workbook.
func SalesExport(store *dbpkg.Store) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		filter := dbpkg.ParseSalesFilter(queryString(ctx, "keyword"))
		pageNum := queryInt(ctx, "page", 1)

		page, err := store.ListSales(ctx, filter, pageNum, queryInt(ctx, "page_size", 0))
		if err != nil {
			writeError(ctx, err)
			return
		}

		body, err := salesWorkbook(page.Items)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetContentType(xlsxContentType)
		ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sales-page-%d.xlsx"`, pageNum))
		ctx.SetBody(body)
	}
}

func salesWorkbook(rows []dbpkg.SaleRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(salesSheet, "A1", &salesHeader); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			row.ID,
			FormatDate(row.SaleDate),
			row.ProductName,
			row.CustomerName,
			row.UnitPrice.InexactFloat64(),
			row.Quantity,
			row.TotalAmount.InexactFloat64(),
			derefOr(row.PaymentMethod, ""),
		}
		if err := f.SetSheetRow(salesSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
