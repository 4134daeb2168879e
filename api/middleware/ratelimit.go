package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/rate"
)

// RateLimit throttles clients by remote address using the shared limiter.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("too many requests")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
