// Copyright (c) 2019 SygaTechnology Foundation
// All rights reserved. See LICENSE for details.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sygacms/internal/args"
	"sygacms/internal/auth"
	"sygacms/internal/middleware"
	"sygacms/internal/models"
	"sygacms/internal/registry"
	"sygacms/internal/store"
)

// apiUser adapts an authenticated token to the resolver's user contract.
// Capability checks go through the role/capability table; lookup failures
// are logged and treated as not authorized.
type apiUser struct {
	data  *auth.TokenData
	users *store.UserStore
}

func (u *apiUser) ID() int64 { return u.data.UserID }

func (u *apiUser) IsAuthorized(capability string) bool {
	ok, err := u.users.IsAuthorized(u.data.Role, capability)
	if err != nil {
		slog.Error("capability lookup failed", "error", err, "capability", capability)
		return false
	}
	return ok
}

// Posts groups the post CRUD handlers and their dependencies.
type Posts struct {
	registry  *registry.Registry
	posts     *store.PostStore
	terms     *store.TermStore
	users     *store.UserStore
	uploadDir string
}

// NewPosts creates a new Posts handler group.
func NewPosts(reg *registry.Registry, posts *store.PostStore, terms *store.TermStore, users *store.UserStore, uploadDir string) *Posts {
	return &Posts{
		registry:  reg,
		posts:     posts,
		terms:     terms,
		users:     users,
		uploadDir: uploadDir,
	}
}

// Index lists posts with optional filters and pagination.
// GET /posts?status=&page=&limit=&order=&order_sens=&with_deleted=&deleted_only=
func (h *Posts) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.PostListOptions{
		Status:      q.Get("status"),
		Page:        intParam(q.Get("page"), 1),
		Limit:       intParam(q.Get("limit"), 10),
		Order:       q.Get("order"),
		Descending:  q.Get("order_sens") == "desc",
		WithDeleted: boolParam(q.Get("with_deleted")),
		DeletedOnly: boolParam(q.Get("deleted_only")),
	}

	posts, total, err := h.posts.List(opts)
	if err != nil {
		respondInternal(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  posts,
		"total": total,
		"page":  opts.Page,
		"limit": opts.Limit,
	})
}

// Show returns a single post by id. Soft-deleted posts are hidden unless
// with_deleted is set.
// GET /posts/{id}
func (h *Posts) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if post == nil || (post.IsDeleted() && !boolParam(r.URL.Query().Get("with_deleted"))) {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Create resolves the request payload and inserts a new post.
// POST /posts
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

// Update resolves the request payload against the stored record and
// applies the changes.
// PUT /posts/{id}
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}
	h.save(w, r, id)
}

// save runs the argument resolution pipeline and persists the result.
// A zero id means create.
func (h *Posts) save(w http.ResponseWriter, r *http.Request, id int64) {
	user := &apiUser{data: middleware.UserFromCtx(r.Context()), users: h.users}

	req, headers, err := parseRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pa := args.NewPostArgs(h.registry, h.posts, h.posts, h.terms, user)
	if err := pa.Fill(req, id); err != nil {
		respondInternal(w, err)
		return
	}
	if !pa.Valid() {
		respondValidation(w, pa.Kind(), pa.Errors())
		return
	}

	objectType, err := h.registry.ObjectType(pa.Fields().Get("post_type"))
	if err != nil {
		respondInternal(w, err)
		return
	}
	if !user.IsAuthorized(objectType.Cap.EditPost) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	meta := pa.Meta()
	if err := storeUploads(h.uploadDir, pa.Files(), headers, meta); err != nil {
		respondInternal(w, err)
		return
	}

	if pa.IsNew() {
		newID, err := h.posts.Create(pa.Fields(), meta, pa.TermIDs())
		if err != nil {
			h.saveError(w, err)
			return
		}
		post, err := h.posts.FindByID(newID)
		if err != nil {
			respondInternal(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, post)
		return
	}

	if err := h.posts.Update(pa.ID(), pa.Fields(), meta, pa.TermIDs()); err != nil {
		h.saveError(w, err)
		return
	}
	post, err := h.posts.FindByID(pa.ID())
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// saveError maps store write failures to responses.
func (h *Posts) saveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSlugConflict):
		respondError(w, http.StatusConflict, "slug already in use")
	case errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "post not found")
	default:
		respondInternal(w, err)
	}
}

// storeUploads writes resolved file attachments to the upload directory
// and records their storage keys in the meta map.
func storeUploads(dir string, files map[string]args.FileRef, headers map[string]*multipart.FileHeader, meta map[string]any) error {
	for metaKey, ref := range files {
		header, ok := headers[ref.Param]
		if !ok {
			continue
		}
		if err := saveUpload(header, filepath.Join(dir, ref.StorageKey)); err != nil {
			return err
		}
		meta[metaKey] = ref.StorageKey
	}
	return nil
}

// Delete soft-deletes a post, detaching its meta and term links.
// DELETE /posts/{id}
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, err)
		return
	}
	if post == nil || post.IsDeleted() {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}

	user := &apiUser{data: middleware.UserFromCtx(r.Context()), users: h.users}
	objectType, err := h.registry.ObjectType(post.Type)
	if err == nil && !user.IsAuthorized(objectType.Cap.DeletePost) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.posts.Delete(id); err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Purge permanently removes all soft-deleted posts. Admin only.
// DELETE /posts/purge
func (h *Posts) Purge(w http.ResponseWriter, r *http.Request) {
	data := middleware.UserFromCtx(r.Context())
	if data == nil || data.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	count, err := h.posts.Purge()
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"purged": count})
}

// saveUpload copies a multipart file to its destination path.
func saveUpload(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// intParam parses a positive integer query parameter with a fallback.
func intParam(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// boolParam treats "1" and "true" as true.
func boolParam(s string) bool {
	return s == "1" || s == "true"
}
