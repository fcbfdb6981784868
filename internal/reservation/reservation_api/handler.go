package reservation_api

import (
	"fmt"
	"net/http"

	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/reservation"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ReservationService *reservation.ReservationService
	Logger             *logger.Logger
}

func NewHandler(reservationService *reservation.ReservationService, log *logger.Logger) *Handler {
	return &Handler{ReservationService: reservationService, Logger: log}
}

// Routes mounts the reservation endpoints. Availability is public.
func (h *Handler) Routes(gate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/disponibilidad/{fecha}", h.GetAvailability)

	r.Group(func(r chi.Router) {
		r.Use(gate)
		r.Get("/", h.ListReservations)
		r.Post("/", h.CreateReservation)
		r.With(auth.AdminOnly).Get("/todas", h.ListAllReservations)
		r.Get("/{id}", h.GetReservation)
		r.With(auth.AdminOnly).Put("/{id}/estado", h.UpdateStatus)
		r.Delete("/{id}", h.CancelReservation)
	})
	return r
}

// GetAvailability answers for the whole day, or for one slot when ?hora=HH:MM is given.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	day, err := h.ReservationService.ParseDate(chi.URLParam(r, "fecha"))
	if err != nil {
		utils.RespondError(w, h.Logger, "GetAvailability", err)
		return
	}

	if slot := r.URL.Query().Get("hora"); slot != "" {
		one, err := h.ReservationService.CheckAvailability(r.Context(), day, slot)
		if err != nil {
			utils.RespondError(w, h.Logger, "GetAvailability", err)
			return
		}
		_ = utils.WriteJSON(w, http.StatusOK, one)
		return
	}

	all, err := h.ReservationService.DayAvailability(r.Context(), day)
	if err != nil {
		utils.RespondError(w, h.Logger, "GetAvailability", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, all)
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReservationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "CreateReservation", err)
		return
	}

	created, err := h.ReservationService.CreateReservation(r.Context(), auth.CurrentUser(r.Context()), req)
	if err != nil {
		utils.RespondError(w, h.Logger, "CreateReservation", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateReservation: %s", created.ReservationNumber))
	_ = utils.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.ReservationService.ListUserReservations(r.Context(), auth.CurrentUser(r.Context()))
	if err != nil {
		utils.RespondError(w, h.Logger, "ListReservations", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ListAllReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.ReservationService.ListAllReservations(r.Context(), q.Get("date"), models.ReservationStatus(q.Get("status")))
	if err != nil {
		utils.RespondError(w, h.Logger, "ListAllReservations", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	found, err := h.ReservationService.GetReservation(r.Context(), auth.CurrentUser(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		utils.RespondError(w, h.Logger, "GetReservation", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("UpdateStatus: reservationId=%s", id))

	var req models.UpdateReservationStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}

	updated, err := h.ReservationService.UpdateStatus(r.Context(), auth.CurrentUser(r.Context()), id, req)
	if err != nil {
		utils.RespondError(w, h.Logger, "UpdateStatus", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.Logger.Info("API", fmt.Sprintf("CancelReservation: reservationId=%s", id))

	cancelled, err := h.ReservationService.CancelReservation(r.Context(), auth.CurrentUser(r.Context()), id)
	if err != nil {
		utils.RespondError(w, h.Logger, "CancelReservation", err)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("reservation cancelled", cancelled))
}
