// Package fpgrp maintains the group of handlers for the farmer and
// processor contract operations.
package fpgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/milkchain/business/core/guard"
	"github.com/ardanlabs/milkchain/business/core/relay"
	"github.com/ardanlabs/milkchain/business/web/errs"
	"github.com/ardanlabs/milkchain/business/web/mid"
	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ardanlabs/milkchain/foundation/events"
	"github.com/ardanlabs/milkchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of farmer and processor endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Relay  *relay.Core
	WS     websocket.Upgrader
	Evts   *events.Events
	Origin string
}

// ViewOrder returns an order as recorded by the contract.
func (h Handlers) ViewOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s := r.URL.Query().Get("_orderId")
	if s == "" {
		return errs.NewTrusted(errors.New("Missing _orderId parameter"), http.StatusBadRequest)
	}

	orderID, err := toUint("_orderId", s)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	ord, err := h.Relay.Query(ctx, relay.MethodViewOrder, orderID)
	if err != nil {
		return toTrusted(err)
	}

	resp := struct {
		Order any `json:"order"`
	}{
		Order: ord,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ViewOffers returns the offers made against an order.
func (h Handlers) ViewOffers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s := r.URL.Query().Get("orderId")
	if s == "" {
		return errs.NewTrusted(errors.New("Missing orderId parameter"), http.StatusBadRequest)
	}

	orderID, err := toUint("orderId", s)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	offers, err := h.Relay.Query(ctx, relay.MethodViewOffers, orderID)
	if err != nil {
		return toTrusted(err)
	}

	resp := struct {
		Offers any `json:"offers"`
	}{
		Offers: offers,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// GetAllTransactions returns the contract's transaction ledger.
func (h Handlers) GetAllTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	trans, err := h.Relay.Query(ctx, relay.MethodGetAllTransactions)
	if err != nil {
		return toTrusted(err)
	}

	resp := struct {
		Transactions any `json:"transactions"`
	}{
		Transactions: trans,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateOrder submits a processor's order.
func (h Handlers) CreateOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppCreateOrder
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	quantity, err := toQuantity(app.Quantity)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	res, err := h.Relay.CreateOrder(ctx, app.ContractAddress, quantity)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, toAppSubmitResult(res), http.StatusOK)
}

// CancelOrder submits a processor's cancellation of an order.
func (h Handlers) CancelOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppCancelOrder
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	orderID, err := toUint("orderId", app.OrderID.String())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	res, err := h.Relay.CancelOrder(ctx, app.ContractAddress, orderID)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, toAppSubmitResult(res), http.StatusOK)
}

// CreateOffer submits a farmer's offer on an order.
func (h Handlers) CreateOffer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppCreateOffer
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	orderID, err := toUint("orderId", app.OrderID.String())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	no := relay.NewOffer{
		OrderID:        orderID,
		ProductionDate: app.ProductionDate,
		PricePerLiter:  app.PricePerLiter,
		Origin:         app.Origin,
	}

	res, err := h.Relay.CreateOffer(ctx, app.ContractAddress, no)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, toAppSubmitResult(res), http.StatusOK)
}

// CancelOffer submits a farmer's withdrawal of an offer.
func (h Handlers) CancelOffer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppCancelOffer
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	offerID, err := toUint("offerId", app.OfferID.String())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	res, err := h.Relay.CancelOffer(ctx, app.ContractAddress, offerID)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, toAppSubmitResult(res), http.StatusOK)
}

// AcceptOffer submits a processor's acceptance of an offer.
func (h Handlers) AcceptOffer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var app AppAcceptOffer
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	orderID, err := toUint("orderId", app.OrderID.String())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	offerID, err := toUint("offerId", app.OfferID.String())
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	res, err := h.Relay.AcceptOffer(ctx, app.ContractAddress, orderID, offerID)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, toAppSubmitResult(res), http.StatusOK)
}

// Events handles a web socket to provide relay events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool {
		return mid.OriginAllowed(h.Origin, r.Header.Get("Origin"))
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// toTrusted decides which relay failures are safe to describe to the client.
// Store outages are left for the error middleware to map.
func toTrusted(err error) error {
	switch {
	case errors.Is(err, guard.ErrForbidden):
		return errs.NewTrusted(err, http.StatusForbidden)

	case errors.Is(err, contract.ErrInvalidArgs):
		return errs.NewTrusted(err, http.StatusBadRequest)

	case contract.IsContractError(err):
		return errs.NewTrusted(fmt.Errorf("%s: %w", contract.Kind(err), err), http.StatusInternalServerError)
	}

	return err
}
