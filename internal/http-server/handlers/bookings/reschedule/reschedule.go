package reschedule

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type BookingRescheduler interface {
	RescheduleBooking(ctx context.Context, req *api.BookingRescheduleRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingRescheduleRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

type ConflictResponse struct {
	response.Response
	Report conflict.Report `json:"conflict"`
}

func New(log *slog.Logger, rescheduler BookingRescheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.reschedule.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		// The path is authoritative for which booking moves.
		req.BookingID = chi.URLParam(r, "bookingID")

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req.BookingRescheduleRequest); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		booking, err := rescheduler.RescheduleBooking(r.Context(), &req.BookingRescheduleRequest)

		var conflictErr *conflict.Error
		if errors.As(err, &conflictErr) {
			log.Info("Reschedule conflicts", slog.Any("report", conflictErr.Report))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, ConflictResponse{
				Response: response.Error(string(response.CONFLICT), "requested interval conflicts with the trainer's calendar"),
				Report:   conflictErr.Report,
			})
			return
		}

		if errors.Is(err, response.ErrInvalidInterval) {
			log.Error("Invalid interval", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), "start/end is not a valid interval"))
			return
		}

		if errors.Is(err, response.ErrStaleVersion) {
			log.Error("Stale booking version")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.STALE_VERSION), "booking was modified concurrently, re-read and retry"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("Booking is not reschedulable", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "booking is not in a reschedulable state"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Booking not found", slog.String("id", req.BookingID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "booking not found"))
			return
		}

		if errors.Is(err, response.ErrTimeout) {
			log.Error("Trainer calendar is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "trainer calendar is locked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to reschedule booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reschedule booking"))
			return
		}

		log.Info("Booking rescheduled", slog.String("id", booking.ID))

		render.JSON(w, r, Response{Booking: *booking})
	}
}
