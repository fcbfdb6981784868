package menu_api

import (
	"fmt"
	"net/http"
	"strconv"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/menu"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	MenuService *menu.MenuService
	Logger      *logger.Logger
}

func NewHandler(menuService *menu.MenuService, log *logger.Logger) *Handler {
	return &Handler{MenuService: menuService, Logger: log}
}

// Routes mounts the catalog. Browsing is public, changes need an admin.
func (h *Handler) Routes(gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ListMenuItems)
	r.Get("/{id}", h.GetMenuItem)

	r.Group(func(r chi.Router) {
		r.Use(gate, auth.AdminOnly)
		r.Post("/", h.CreateMenuItem)
		r.Put("/{id}", h.UpdateMenuItem)
		r.Delete("/{id}", h.DeleteMenuItem)
		r.Patch("/{id}/availability", h.SetAvailability)
		r.Patch("/{id}/disponibilidad", h.SetAvailability)
	})
	return r
}

func parseMenuFilter(r *http.Request) (models.MenuFilter, error) {
	q := r.URL.Query()
	filter := models.MenuFilter{
		Category: models.Category(q.Get("category")),
		Diet:     models.DietTag(q.Get("diet")),
	}
	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, apperr.Validation("available must be true or false")
		}
		filter.Available = &available
	}
	return filter, nil
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMenuFilter(r)
	if err != nil {
		utils.RespondError(w, h.Logger, "ListMenuItems", err)
		return
	}

	items, err := h.MenuService.ListMenuItems(r.Context(), filter)
	if err != nil {
		utils.RespondError(w, h.Logger, "ListMenuItems", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.MenuService.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, h.Logger, "GetMenuItem", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMenuItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "CreateMenuItem", err)
		return
	}

	item, err := h.MenuService.CreateMenuItem(r.Context(), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "CreateMenuItem", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateMenuItem: id=%s", item.ID))
	_ = utils.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.UpdateMenuItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "UpdateMenuItem", err)
		return
	}

	item, err := h.MenuService.UpdateMenuItem(r.Context(), id, req)
	if err != nil {
		utils.RespondError(w, h.Logger, "UpdateMenuItem", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.AvailabilityRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "SetAvailability", err)
		return
	}

	item, err := h.MenuService.SetAvailability(r.Context(), id, *req.Available)
	if err != nil {
		utils.RespondError(w, h.Logger, "SetAvailability", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("SetAvailability: id=%s available=%t", id, item.Available))
	_ = utils.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.MenuService.DeleteMenuItem(r.Context(), id); err != nil {
		utils.RespondError(w, h.Logger, "DeleteMenuItem", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "message": "menu item deleted"})
}
