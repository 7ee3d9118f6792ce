// Package mid contains the set of middleware functions.
package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/ardanlabs/milkchain/foundation/web"
)

// Cors sets the response headers needed for Cross-Origin Resource Sharing.
// The same origin policy is applied to the events socket by OriginAllowed.
func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding")
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

// OriginAllowed reports whether a request from origin may be served under
// the configured allowed origin. Requests without an Origin header are not
// cross site and are always allowed.
func OriginAllowed(allowed string, origin string) bool {
	switch {
	case allowed == "" || allowed == "*":
		return true
	case origin == "":
		return true
	}

	return strings.EqualFold(strings.TrimSuffix(allowed, "/"), strings.TrimSuffix(origin, "/"))
}
