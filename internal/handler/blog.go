package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/server/middleware"
	"github.com/ebraholidays/voyager/internal/store"
	"github.com/ebraholidays/voyager/internal/upload"
)

// maxFormMemory is how much of a multipart body is held in memory before
// spooling to temp files.
const maxFormMemory = 8 << 20

// BlogHandler serves the public and admin blog endpoints. Image files are
// staged through the upload manager before any record write, and discarded
// or reclaimed so that every file on disk belongs to exactly one post.
type BlogHandler struct {
	store   *store.Store
	uploads *upload.Manager
	logger  *slog.Logger
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(st *store.Store, uploads *upload.Manager, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{store: st, uploads: uploads, logger: logger}
}

// ListPublic returns one page of published posts.
// GET /api/v1/blogs
func (h *BlogHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)

	blogs, total, err := h.store.ListBlogs(r.Context(), store.BlogQuery{
		Page:          page,
		Limit:         limit,
		Search:        queryString(r, "search"),
		PublishedOnly: true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list blogs")
		return
	}

	writeJSON(w, http.StatusOK, model.BlogListResponse{
		Blogs:       blogs,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		Total:       total,
	})
}

// ListAdmin returns one page of posts regardless of status, plus per-status
// counts over the same search filter.
// GET /api/v1/admin/blogs
func (h *BlogHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	search := queryString(r, "search")

	blogs, total, err := h.store.ListBlogs(r.Context(), store.BlogQuery{
		Page:   page,
		Limit:  limit,
		Search: search,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list blogs")
		return
	}

	stats, err := h.store.BlogStats(r.Context(), search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list blogs")
		return
	}

	writeJSON(w, http.StatusOK, model.BlogListResponse{
		Blogs:       blogs,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		Total:       total,
		Stats:       stats,
	})
}

// GetPublic returns a single published post; drafts read as missing.
// GET /api/v1/blogs/{id}
func (h *BlogHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}

	blog, err := h.store.GetPublishedBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get blog")
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// GetAdmin returns a single post regardless of status.
// GET /api/v1/admin/blogs/{id}
func (h *BlogHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get blog")
		return
	}
	writeJSON(w, http.StatusOK, blog)
}

// Create makes a new post from a multipart form with an optional image file.
// If the record write fails for any reason after the image was staged, the
// staged file is removed before the error goes out.
// POST /api/v1/admin/blogs
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	staged, ok := h.stageImage(w, r)
	if !ok {
		return
	}

	blog := &model.Blog{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Status:      r.FormValue("status"),
		CreatedBy:   admin.ID,
	}
	if blog.Status == "" {
		blog.Status = model.BlogStatusDraft
	}
	if staged != nil {
		blog.Image = staged.Path
	}

	var fieldErrs []model.FieldError
	if blog.Title == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "title", Message: "Title is required"})
	}
	if blog.Category == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "category", Message: "Category is required"})
	}
	if blog.Description == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "description", Message: "Description is required"})
	}
	if !model.ValidBlogStatus(blog.Status) {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "status", Message: "Status must be Draft or Published"})
	}

	blog.Date = time.Now().UTC()
	if v := r.FormValue("date"); v != "" {
		date, err := parseDate(v)
		if err != nil {
			fieldErrs = append(fieldErrs, model.FieldError{Field: "date", Message: "Invalid date format"})
		} else {
			blog.Date = date
		}
	}

	if len(fieldErrs) > 0 {
		h.discard(staged)
		writeFieldErrors(w, fieldErrs)
		return
	}

	if err := h.store.CreateBlog(r.Context(), blog); err != nil {
		h.discard(staged)
		writeError(w, http.StatusInternalServerError, "Failed to create blog")
		return
	}

	writeJSON(w, http.StatusCreated, blog)
}

// Update modifies the supplied fields of a post. A new image replaces the old
// one: the record is persisted first, then the previous file is reclaimed
// best-effort. If the update fails the newly staged file is removed and the
// old one is left untouched.
// PUT /api/v1/admin/blogs/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	staged, ok := h.stageImage(w, r)
	if !ok {
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		h.discard(staged)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update blog")
		return
	}

	if formHas(r, "title") {
		blog.Title = r.FormValue("title")
	}
	if formHas(r, "category") {
		blog.Category = r.FormValue("category")
	}
	if formHas(r, "description") {
		blog.Description = r.FormValue("description")
	}
	if formHas(r, "status") {
		blog.Status = r.FormValue("status")
	}

	var fieldErrs []model.FieldError
	if blog.Title == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "title", Message: "Title is required"})
	}
	if blog.Category == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "category", Message: "Category is required"})
	}
	if blog.Description == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "description", Message: "Description is required"})
	}
	if !model.ValidBlogStatus(blog.Status) {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "status", Message: "Status must be Draft or Published"})
	}
	if formHas(r, "date") {
		date, err := parseDate(r.FormValue("date"))
		if err != nil {
			fieldErrs = append(fieldErrs, model.FieldError{Field: "date", Message: "Invalid date format"})
		} else {
			blog.Date = date
		}
	}
	if len(fieldErrs) > 0 {
		h.discard(staged)
		writeFieldErrors(w, fieldErrs)
		return
	}

	oldImage := blog.Image
	if staged != nil {
		blog.Image = staged.Path
	}

	if err := h.store.UpdateBlog(r.Context(), blog); err != nil {
		h.discard(staged)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update blog")
		return
	}

	// The record now points at the new file; the old one is unreferenced.
	// Reclaim failure (including a file already gone) never fails the request.
	if staged != nil && oldImage != "" && oldImage != blog.Image {
		if err := h.uploads.Reclaim(oldImage); err != nil {
			h.logger.Warn("failed to reclaim old blog image", "blog_id", blog.ID, "path", oldImage, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, blog)
}

// Delete removes a post and its image file. The file removal is best-effort:
// a missing file, or any other reclaim failure, never blocks the record
// deletion.
// DELETE /api/v1/admin/blogs/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Blog not found")
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete blog")
		return
	}

	if blog.Image != "" {
		if err := h.uploads.Reclaim(blog.Image); err != nil {
			h.logger.Warn("failed to reclaim blog image", "blog_id", blog.ID, "path", blog.Image, "error", err)
		}
	}

	if err := h.store.DeleteBlog(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Blog not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete blog")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Blog deleted successfully"})
}

// stageImage pulls the optional "image" file out of the parsed form and
// stages it. The bool result is false when a response has already been
// written (validation failure or I/O error).
func (h *BlogHandler) stageImage(w http.ResponseWriter, r *http.Request) (*upload.Staged, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		writeError(w, http.StatusBadRequest, "Invalid image upload")
		return nil, false
	}
	defer file.Close()

	staged, err := h.uploads.Stage(file, header)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, upload.ErrUnsupportedType):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to store image")
		}
		return nil, false
	}
	return staged, true
}

// discard removes a staged file after a failed record write.
func (h *BlogHandler) discard(staged *upload.Staged) {
	if staged == nil {
		return
	}
	if err := staged.Discard(); err != nil {
		h.logger.Warn("failed to discard staged image", "path", staged.Path, "error", err)
	}
}

// formHas reports whether the multipart form carried the named value field,
// distinguishing "field absent" from "field set to empty".
func formHas(r *http.Request, key string) bool {
	if r.MultipartForm == nil {
		return false
	}
	_, ok := r.MultipartForm.Value[key]
	return ok
}

// parseDate accepts the two date formats the admin frontend sends.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
