package user_api

import (
	"fmt"
	"net/http"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/users"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	UserService *users.UserService
	Logger      *logger.Logger
}

func NewHandler(userService *users.UserService, log *logger.Logger) *Handler {
	return &Handler{UserService: userService, Logger: log}
}

// Routes mounts the account endpoints. gate verifies the bearer token.
func (h *Handler) Routes(gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)

	r.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/data", h.Data)

		r.Group(func(r chi.Router) {
			r.Use(auth.AdminOnly)
			r.Get("/", h.ListUsers)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})
	return r
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "Register", err)
		return
	}

	resp, err := h.UserService.Register(r.Context(), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "Register", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Register: created user %s", resp.ID))
	_ = utils.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "Login", err)
		return
	}

	resp, err := h.UserService.Login(r.Context(), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "Login", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())
	if user == nil {
		utils.RespondError(w, h.Logger, "Data", apperr.Authentication("not authorized"))
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		utils.RespondError(w, h.Logger, "ListUsers", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("UpdateUser: id=%s", id))

	var req models.UpdateUserRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "UpdateUser", err)
		return
	}

	user, err := h.UserService.UpdateUser(r.Context(), id, req)
	if err != nil {
		utils.RespondError(w, h.Logger, "UpdateUser", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("DeleteUser: id=%s", id))

	if err := h.UserService.DeleteUser(r.Context(), id); err != nil {
		utils.RespondError(w, h.Logger, "DeleteUser", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "message": "user deleted"})
}
