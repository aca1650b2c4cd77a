package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/response"
	"github.com/mmeshcher/orchidshop/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Username        string `json:"username" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=100"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type forgotPasswordRequest struct {
	Email              string `json:"email" validate:"required,email"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// Login выполняет аутентификацию и возвращает токен доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			msg, _ := service.Message(err)
			response.ErrorWithCode(w, http.StatusBadRequest, response.CodeUnauthorized, msg)
			return
		}
		h.writeError(w, err, "login")
		return
	}

	response.OK(w, loginResponse{Token: token}, "Login successful")
}

// Register регистрирует новую учётную запись.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err, "register")
		return
	}

	response.OK(w, account, "Registration successful")
}

// ForgotPassword задаёт новый пароль учётной записи по адресу почты.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		h.writeError(w, err, "reset password")
		return
	}

	response.OK(w, nil, "Password reset successful")
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(w, err, "change password", zap.Int64("accountID", accountID))
		return
	}

	response.OK(w, nil, "Password changed successfully")
}

// Logout отзывает токен текущего запроса.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok || claims.ExpiresAt == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.accounts.Logout(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.writeError(w, err, "logout")
		return
	}

	response.OK(w, nil, "Logged out successfully")
}

// Me возвращает учётную запись текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err, "get account", zap.Int64("accountID", accountID))
		return
	}

	response.OK(w, account, "")
}

// CheckUsername сообщает, свободно ли имя пользователя.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")
	if name == "" {
		response.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	available, err := h.accounts.IsNameAvailable(r.Context(), name)
	if err != nil {
		h.writeError(w, err, "check username")
		return
	}

	response.OK(w, availabilityResponse{Available: available}, "")
}

// CheckEmail сообщает, свободен ли адрес почты.
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		response.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	available, err := h.accounts.IsEmailAvailable(r.Context(), email)
	if err != nil {
		h.writeError(w, err, "check email")
		return
	}

	response.OK(w, availabilityResponse{Available: available}, "")
}
