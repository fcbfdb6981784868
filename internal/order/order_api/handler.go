package order_api

import (
	"fmt"
	"net/http"

	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/order"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, log *logger.Logger) *Handler {
	return &Handler{OrderService: orderService, Logger: log}
}

// Routes mounts the order endpoints; every one of them needs a bearer token.
func (h *Handler) Routes(gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(gate)

	r.Get("/", h.ListOrders)
	r.Post("/", h.CreateOrder)
	r.With(auth.AdminOnly).Get("/todos", h.ListAllOrders)
	r.Get("/{id}", h.GetOrder)
	r.With(auth.AdminOnly).Put("/{id}/estado", h.UpdateStatus)
	r.Put("/{id}/pago", h.MarkPaid)
	r.Delete("/{id}", h.CancelOrder)
	return r
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r.Context())

	var req models.CreateOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "CreateOrder", err)
		return
	}

	created, err := h.OrderService.PlaceOrder(r.Context(), user, req)
	if err != nil {
		utils.RespondError(w, h.Logger, "CreateOrder", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateOrder: %s total=%.2f", created.OrderNumber, created.Total))
	_ = utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.OrderService.ListUserOrders(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		utils.RespondError(w, h.Logger, "ListOrders", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.OrderService.ListAllOrders(r.Context(), status)
	if err != nil {
		utils.RespondError(w, h.Logger, "ListAllOrders", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	found, err := h.OrderService.GetOrder(r.Context(), auth.CurrentUser(r.Context()), orderID)
	if err != nil {
		utils.RespondError(w, h.Logger, "GetOrder", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: orderId=%s", orderID))

	var req models.UpdateOrderStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}

	updated, err := h.OrderService.UpdateStatus(r.Context(), auth.CurrentUser(r.Context()), orderID, req.Status)
	if err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	updated, err := h.OrderService.MarkPaid(r.Context(), auth.CurrentUser(r.Context()), orderID)
	if err != nil {
		utils.RespondError(w, h.Logger, "MarkPaid", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("CancelOrder: orderId=%s", orderID))

	cancelled, err := h.OrderService.CancelOrder(r.Context(), auth.CurrentUser(r.Context()), orderID)
	if err != nil {
		utils.RespondError(w, h.Logger, "CancelOrder", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order cancelled", cancelled))
}
