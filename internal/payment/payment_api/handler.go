package payment_api

import (
	"fmt"
	"net/http"

	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/payment"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	PaymentService *payment.PaymentService
	Logger         *logger.Logger
}

func NewHandler(paymentService *payment.PaymentService, log *logger.Logger) *Handler {
	return &Handler{PaymentService: paymentService, Logger: log}
}

func (h *Handler) Routes(gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(gate)

	r.Get("/", h.ListPayments)
	r.Post("/", h.CreatePayment)
	r.Post("/tarjeta", h.PayByCard)
	r.With(auth.AdminOnly).Get("/todos", h.ListAllPayments)
	r.With(auth.AdminOnly).Get("/estadisticas", h.Statistics)
	r.Get("/{id}", h.GetPayment)
	r.With(auth.AdminOnly).Put("/{id}/estado", h.UpdateStatus)
	r.Get("/{id}/comprobante", h.Receipt)
	return r
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "CreatePayment", err)
		return
	}

	result, err := h.PaymentService.Pay(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "CreatePayment", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreatePayment: order=%s txn=%s", result.Order.OrderNumber, result.Payment.TransactionID))
	_ = utils.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) PayByCard(w http.ResponseWriter, r *http.Request) {
	var req models.CardPaymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "PayByCard", err)
		return
	}

	result, err := h.PaymentService.PayByCard(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "PayByCard", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.PaymentService.ListUserPayments(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		utils.RespondError(w, h.Logger, "ListPayments", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) ListAllPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.PaymentService.ListAllPayments(r.Context(),
		models.PaymentStatus(q.Get("status")), models.PaymentMethod(q.Get("method")))
	if err != nil {
		utils.RespondError(w, h.Logger, "ListAllPayments", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, payments)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.PaymentService.Statistics(r.Context())
	if err != nil {
		utils.RespondError(w, h.Logger, "Statistics", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	found, err := h.PaymentService.GetPayment(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, h.Logger, "GetPayment", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: paymentId=%s", paymentID))

	var req models.UpdatePaymentStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}

	updated, err := h.PaymentService.UpdateStatus(r.Context(), auth.CurrentUser(r.Context()), paymentID, req.Status)
	if err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, updated)
}

// Receipt answers with the QR code of the payment receipt as a PNG.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	png, err := h.PaymentService.Receipt(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, h.Logger, "Receipt", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
