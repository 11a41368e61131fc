package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gatherpoint/server/internal/api/problem"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/gatherpoint/server/internal/metrics"
)

type AccountsHandler struct {
	Service *accounts.Service
	Tokens  *auth.JWTManager
	Env     string
}

func NewAccountsHandler(service *accounts.Service, tokens *auth.JWTManager, env string) *AccountsHandler {
	return &AccountsHandler{Service: service, Tokens: tokens, Env: env}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// accountResponse is the public view of an account. It never carries the
// password hash.
type accountResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func accountView(account accounts.Account) accountResponse {
	return accountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
	}
}

func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}
	if err := validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	account, err := h.Service.Register(r.Context(), accounts.RegisterParams{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		var validationErr accounts.ValidationError
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken):
			problem.Write(w, r, http.StatusConflict, problem.TypeDuplicateUsername, "Username is already taken", err, h.Env)
		case errors.As(err, &validationErr),
			errors.Is(err, accounts.ErrPasswordTooShort),
			errors.Is(err, accounts.ErrPasswordTooLong):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		default:
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		}
		return
	}

	metrics.AccountsRegisteredTotal.Inc()
	writeJSON(w, http.StatusCreated, accountView(account))
}

func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Service == nil || h.Tokens == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, h.Env)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}
	if err := validate.Struct(req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidationError, "Invalid request", err, h.Env)
		return
	}

	account, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
			// One uniform response whether the username or the password was
			// wrong.
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid username or password", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	token, err := h.Tokens.Generate(account.ID, account.Username, account.Role)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Account: accountView(account)})
}
