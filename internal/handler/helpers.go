package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ebraholidays/voyager/internal/model"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the standard `{"message": ...}` error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{Message: message})
}

// writeFieldErrors writes a 400 validation response carrying per-field errors.
func writeFieldErrors(w http.ResponseWriter, fieldErrs []model.FieldError) {
	writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
		Message: "Validation failed",
		Errors:  fieldErrs,
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// idParam extracts the {id} URL parameter. The bool result is false when the
// value is not a well-formed ID, which callers treat as NOT_FOUND: a
// malformed ID can never name an existing record.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// pagination extracts and clamps the shared page/limit parameters.
func pagination(r *http.Request) (page, limit int) {
	page = clampInt(queryInt(r, "page", 1), 1, 1<<30)
	limit = clampInt(queryInt(r, "limit", 10), 1, 100)
	return page, limit
}

// totalPages computes the page count for a total at the given page size.
func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
