// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/milkchain/app/services/milkchain/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/milkchain/app/services/milkchain/handlers/v1"
	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/sys/metrics"
	"github.com/ardanlabs/milkchain/business/web/mid"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ardanlabs/milkchain/foundation/web"
	"go.uber.org/zap"
)

// APIMuxConfig contains all the mandatory systems required by handlers.
type APIMuxConfig struct {
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	CORSOrigin string
	User       *user.Core
	Relay      *relay.Core
	Evts       *events.Events
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg APIMuxConfig) http.Handler {
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(origin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests. The CORS middleware on the
	// app writes the headers for every route.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h)

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:        cfg.Log,
		CORSOrigin: origin,
		User:       cfg.User,
		Relay:      cfg.Relay,
		Evts:       cfg.Evts,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugConfig contains the systems the debug checks report on. A nil checker
// is skipped.
type DebugConfig struct {
	Build string
	Log   *zap.SugaredLogger
	DB    checkgrp.StatusChecker
	Peer  checkgrp.StatusChecker
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(cfg DebugConfig) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
		Peer:  cfg.Peer,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)
	mux.Handle("/metrics", metrics.Handler())

	return mux
}
