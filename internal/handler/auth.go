package handler

import (
	"errors"
	"net/http"
	"net/mail"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/server/middleware"
	"github.com/ebraholidays/voyager/internal/service"
	"github.com/ebraholidays/voyager/internal/store"
)

// AuthHandler serves administrator setup, login, and credential management.
type AuthHandler struct {
	store   *store.Store
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{store: st, authSvc: authSvc}
}

type setupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Setup creates the sole administrator account. It refuses to run once any
// administrator exists, making first-run bootstrap a one-shot operation.
// POST /api/v1/admin/setup
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrs []model.FieldError
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	if len(req.Password) < 6 {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "password", Message: "Password must be at least 6 characters long"})
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	exists, err := h.store.HasAnyAdmin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error setting up admin")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "Admin already exists")
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error setting up admin")
		return
	}

	name := req.Name
	if name == "" {
		name = "Ebra Holidays Admin"
	}

	admin := &model.Admin{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         name,
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		writeError(w, http.StatusInternalServerError, "Error setting up admin")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Admin created successfully"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the payload for a successful login.
type loginResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

// Login authenticates the administrator and returns a session token.
// POST /api/v1/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrs []model.FieldError
	if _, err := mail.ParseAddress(req.Email); err != nil {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	if req.Password == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	admin, token, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		ID:    admin.ID,
		Email: admin.Email,
		Name:  admin.Name,
		Token: token,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the administrator's password. Outstanding session
// tokens stop verifying once the change lands.
// PUT /api/v1/admin/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrs []model.FieldError
	if req.CurrentPassword == "" {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "currentPassword", Message: "Current password is required"})
	}
	if len(req.NewPassword) < 6 {
		fieldErrs = append(fieldErrs, model.FieldError{Field: "newPassword", Message: "Password must be at least 6 characters long"})
	}
	if len(fieldErrs) > 0 {
		writeFieldErrors(w, fieldErrs)
		return
	}

	if err := h.authSvc.ChangePassword(r.Context(), admin.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			writeError(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Logout invalidates every outstanding session token for the administrator.
// POST /api/v1/admin/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetAdmin(r.Context())

	if err := h.authSvc.Logout(r.Context(), admin.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
