package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	dbpkg "salesinsight/internal/db"
	httpctx "salesinsight/internal/http/ctx"
	"salesinsight/internal/logger"
)

type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnavailable      ErrorCode = "service_unavailable"
	ErrCodeInternalError    ErrorCode = "internal_error"
)

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// RequestLogger returns fasthttp middleware that tags each request with an
// id, then logs the request and, on admin routes, the acting admin.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		requestID := string(ctx.Request.Header.Peek("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		httpctx.SetRequestID(ctx, requestID)
		ctx.Response.Header.Set("X-Request-ID", requestID)

		next(ctx)

		route := routeLabel(ctx)
		status := ctx.Response.StatusCode()
		elapsed := time.Since(start)
		httpRequestsTotal.WithLabelValues(route, string(ctx.Method()), strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route, string(ctx.Method())).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("remote_ip", ctx.RemoteIP().String()),
		}
		if admin, ok := httpctx.AdminFromCtx(ctx); ok {
			fields = append(fields, zap.String("admin", admin))
		}
		logger.Info("request", fields...)
	}
}

// routeLabel prefers the matched route pattern over the raw path so ids do
// not explode metric cardinality.
func routeLabel(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && v != "" {
		return v
	}
	return "unmatched"
}

func jsonResponse(ctx *fasthttp.RequestCtx, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error(err, zap.String("op", "encode response"))
		status = fasthttp.StatusInternalServerError
		body = []byte(`{"code":"internal_error","message":"failed to encode response"}`)
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, status int, apiErr APIError) {
	jsonResponse(ctx, status, apiErr)
}

// writeError maps a store error onto an HTTP status and JSON body.
// Unexpected errors are logged; their text is not sent to the client.
func writeError(ctx *fasthttp.RequestCtx, err error) {
	var ve *dbpkg.ValidationError
	switch {
	case errors.As(err, &ve):
		errResponse(ctx, fasthttp.StatusBadRequest, APIError{Code: ErrCodeValidationFailed, Message: ve.Message, Field: ve.Field})
	case errors.Is(err, dbpkg.ErrNotFound):
		errResponse(ctx, fasthttp.StatusNotFound, APIError{Code: ErrCodeNotFound, Message: err.Error()})
	case dbpkg.IsTransient(err):
		logger.WarnCtx(ctx, "transient storage failure", zap.Error(err), requestIDField(ctx))
		ctx.Response.Header.Set("Retry-After", "1")
		errResponse(ctx, fasthttp.StatusServiceUnavailable, APIError{Code: ErrCodeUnavailable, Message: "storage temporarily unavailable"})
	default:
		logger.ErrorCtx(ctx, err, requestIDField(ctx))
		errResponse(ctx, fasthttp.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: "internal error"})
	}
}

func requestIDField(ctx *fasthttp.RequestCtx) zap.Field {
	id, _ := httpctx.RequestIDFromCtx(ctx)
	return zap.String("request_id", id)
}

// queryInt reads an integer query arg, falling back to def when it is
// missing or malformed.
func queryInt(ctx *fasthttp.RequestCtx, key string, def int) int {
	s := strings.TrimSpace(string(ctx.QueryArgs().Peek(key)))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func formString(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.PostArgs().Peek(key))
}

// pathID parses the {id} route parameter. It writes a 400 and returns
// false when the id is missing or not a positive integer.
func pathID(ctx *fasthttp.RequestCtx) (uint, bool) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		errResponse(ctx, fasthttp.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: "invalid id", Field: "id"})
		return 0, false
	}
	return uint(id), true
}
