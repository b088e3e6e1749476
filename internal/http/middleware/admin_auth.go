package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	"salesinsight/internal/config"
	httpctx "salesinsight/internal/http/ctx"
)

const realm = `Basic realm="salesinsight admin"`

// AdminAuth returns middleware that checks HTTP basic credentials against
// the configured admin account. The password is bcrypt-hashed once here and
// never kept in plain text.
func AdminAuth(cfg *config.Config) (func(fasthttp.RequestHandler) fasthttp.RequestHandler, error) {
	if cfg.Admin.User == "" || cfg.Admin.Password == "" {
		return nil, errors.New("admin credentials are not configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := []byte(cfg.Admin.User)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			username, password, ok := basicAuth(ctx.Request.Header.Peek("Authorization"))
			if !ok ||
				subtle.ConstantTimeCompare([]byte(username), user) != 1 ||
				bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
				ctx.Response.Header.Set("WWW-Authenticate", realm)
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"code":"unauthorized","message":"admin credentials required"}`)
				return
			}

			httpctx.SetAdmin(ctx, username)
			next(ctx)
		}
	}, nil
}

func basicAuth(header []byte) (username, password string, ok bool) {
	const prefix = "Basic "
	if !bytes.HasPrefix(header, []byte(prefix)) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(header[len(prefix):])))
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(decoded), ":")
}
