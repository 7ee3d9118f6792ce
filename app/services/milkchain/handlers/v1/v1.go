// Package v1 contains the full set of handler functions and routes
// supported by the web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/milkchain/app/services/milkchain/handlers/v1/fpgrp"
	"github.com/ardanlabs/milkchain/app/services/milkchain/handlers/v1/usergrp"
	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ardanlabs/milkchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The routes are served at the root, existing clients call them without a
// version prefix.
const version = ""

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log        *zap.SugaredLogger
	CORSOrigin string
	User       *user.Core
	Relay      *relay.Core
	Evts       *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	ugh := usergrp.Handlers{
		User: cfg.User,
	}

	app.Handle(http.MethodPost, version, "/users", ugh.Create)
	app.Handle(http.MethodGet, version, "/users/:id", ugh.QueryByID)
	app.Handle(http.MethodPut, version, "/users/:id", ugh.Update)
	app.Handle(http.MethodDelete, version, "/users/:id", ugh.Delete)
	app.Handle(http.MethodGet, version, "/listAllUsers", ugh.Query)

	fph := fpgrp.Handlers{
		Log:    cfg.Log,
		Relay:  cfg.Relay,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
		Origin: cfg.CORSOrigin,
	}

	app.Handle(http.MethodGet, version, "/farmerProcessor/events", fph.Events)
	app.Handle(http.MethodGet, version, "/farmerProcessor/viewOrder", fph.ViewOrder)
	app.Handle(http.MethodPost, version, "/farmerProcessor/createOrder", fph.CreateOrder)
	app.Handle(http.MethodPost, version, "/farmerProcessor/cancelOrder", fph.CancelOrder)
	app.Handle(http.MethodPost, version, "/farmerProcessor/createOffer", fph.CreateOffer)
	app.Handle(http.MethodPost, version, "/farmerProcessor/cancelOffer", fph.CancelOffer)
	app.Handle(http.MethodGet, version, "/farmerProcessor/viewOffers", fph.ViewOffers)
	app.Handle(http.MethodPost, version, "/farmerProcessor/acceptOffer", fph.AcceptOffer)
	app.Handle(http.MethodGet, version, "/farmerProcessor/getAllTransactions", fph.GetAllTransactions)
}
