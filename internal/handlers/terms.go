// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sygacms/internal/args"
	"sygacms/internal/middleware"
	"sygacms/internal/registry"
	"sygacms/internal/store"
)

// Terms groups the term CRUD handlers and their dependencies.
type Terms struct {
	registry  *registry.Registry
	terms     *store.TermStore
	users     *store.UserStore
	uploadDir string
}

// NewTerms creates a new Terms handler group.
func NewTerms(reg *registry.Registry, terms *store.TermStore, users *store.UserStore, uploadDir string) *Terms {
	return &Terms{
		registry:  reg,
		terms:     terms,
		users:     users,
		uploadDir: uploadDir,
	}
}

// Index lists terms, optionally filtered by taxonomy.
// GET /terms?taxonomy=&page=&limit=&order=&order_sens=
func (h *Terms) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.TermListOptions{
		Taxonomy:   q.Get("taxonomy"),
		Page:       intParam(q.Get("page"), 1),
		Limit:      intParam(q.Get("limit"), 10),
		Order:      q.Get("order"),
		Descending: q.Get("order_sens") == "desc",
	}

	terms, total, err := h.terms.List(opts)
	if err != nil {
		respondInternal(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  terms,
		"total": total,
		"page":  opts.Page,
		"limit": opts.Limit,
	})
}

// Show returns a single term by id.
// GET /terms/{id}
func (h *Terms) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "term not found")
		return
	}

	term, err := h.terms.FindByID(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if term == nil {
		respondError(w, http.StatusNotFound, "term not found")
		return
	}

	respondJSON(w, http.StatusOK, term)
}

// Create resolves the request payload and inserts a new term.
// POST /terms
func (h *Terms) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// Update resolves the request payload against the stored record and
// applies the changes.
// PUT /terms/{id}
func (h *Terms) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "term not found")
		return
	}
	h.save(w, r, id)
}

func (h *Terms) save(w http.ResponseWriter, r *http.Request, id int64) {
	user := &apiUser{data: middleware.UserFromCtx(r.Context()), users: h.users}
	if !user.IsAuthorized("edit_term") {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	req, headers, err := parseRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ta := args.NewTermArgs(h.registry, h.terms, h.terms)
	if err := ta.Fill(req, id); err != nil {
		respondInternal(w, err)
		return
	}
	if !ta.Valid() {
		respondValidation(w, ta.Kind(), ta.Errors())
		return
	}

	meta := ta.Meta()
	if err := storeUploads(h.uploadDir, ta.Files(), headers, meta); err != nil {
		respondInternal(w, err)
		return
	}

	if ta.IsNew() {
		newID, err := h.terms.Create(ta.Fields(), meta)
		if err != nil {
			h.saveError(w, err)
			return
		}
		term, err := h.terms.FindByID(newID)
		if err != nil {
			respondInternal(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, term)
		return
	}

	if err := h.terms.Update(ta.ID(), ta.Fields(), meta); err != nil {
		h.saveError(w, err)
		return
	}
	term, err := h.terms.FindByID(ta.ID())
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, term)
}

func (h *Terms) saveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSlugConflict):
		respondError(w, http.StatusConflict, "slug already in use")
	case errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "term not found")
	default:
		respondInternal(w, err)
	}
}

// Delete permanently removes a term and its post links and meta.
// DELETE /terms/{id}
func (h *Terms) Delete(w http.ResponseWriter, r *http.Request) {
	user := &apiUser{data: middleware.UserFromCtx(r.Context()), users: h.users}
	if !user.IsAuthorized("delete_term") {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "term not found")
		return
	}

	if err := h.terms.Delete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "term not found")
			return
		}
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
