// Package usergrp maintains the group of handlers for user access.
package usergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/web/errs"
	"github.com/ardanlabs/milkchain/foundation/web"
)

// Set of paging defaults applied when the query string omits them.
const (
	defaultPage    = 1
	defaultPerPage = 20
)

// Handlers manages the set of user endpoints.
type Handlers struct {
	User *user.Core
}

// Create adds a new user to the system.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppNewUser
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	usr, err := h.User.Create(ctx, toCoreNewUser(app), v.Now)
	if err != nil {
		return fmt.Errorf("user[%+v]: %w", app, err)
	}

	resp := struct {
		ID string `json:"userID"`
	}{
		ID: usr.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// QueryByID returns a user by its ID.
func (h Handlers) QueryByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	usr, err := h.User.QueryByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("User %s doesn't exist", id), http.StatusNotFound)
		}
		return fmt.Errorf("querybyid: id[%s]: %w", id, err)
	}

	return web.Respond(ctx, w, toAppUser(usr), http.StatusOK)
}

// Update merges the provided fields into an existing user.
func (h Handlers) Update(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	id := web.Param(r, "id")

	var app AppUpdateUser
	if err := web.Decode(r, &app); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.User.Update(ctx, id, toCoreUpdateUser(app), v.Now); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("User %s doesn't exist or has been deleted", id), http.StatusNotFound)
		}
		return fmt.Errorf("update: id[%s]: %w", id, err)
	}

	resp := struct {
		Result string `json:"result"`
	}{
		Result: fmt.Sprintf("User %s updated", id),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Delete removes a user from the system.
func (h Handlers) Delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	if err := h.User.Delete(ctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("User %s doesn't exist or has been deleted", id), http.StatusNotFound)
		}
		return fmt.Errorf("delete: id[%s]: %w", id, err)
	}

	resp := struct {
		Result string `json:"result"`
	}{
		Result: fmt.Sprintf("User %s deleted", id),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Query returns a page of users in registration order.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		return err
	}

	perPage, err := queryInt(r, "per_page", defaultPerPage)
	if err != nil {
		return err
	}

	usrs, err := h.User.Query(ctx, page, perPage)
	if err != nil {
		if errors.Is(err, user.ErrInvalidPaging) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("query: page[%d] per_page[%d]: %w", page, perPage, err)
	}

	resp := struct {
		Users []AppUser `json:"users"`
		Page  int       `json:"page"`
	}{
		Users: toAppUsers(usrs),
		Page:  page,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid %s parameter %q", key, s), http.StatusBadRequest)
	}

	return n, nil
}
