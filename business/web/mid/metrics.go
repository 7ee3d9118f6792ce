package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/milkchain/business/sys/metrics"
	"github.com/ardanlabs/milkchain/foundation/web"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and error counters.
			start := time.Now()
			if v, verr := web.GetValues(ctx); verr == nil {
				start = v.Now
			}
			metrics.AddRequest(r.Method, time.Since(start))

			if err != nil {
				metrics.AddError()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
