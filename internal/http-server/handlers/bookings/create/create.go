package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

type ConflictResponse struct {
	response.Response
	Report conflict.Report `json:"conflict"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

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

		log.Info("Request body decoded", slog.Any("request", req))

		if err := validator.New().Struct(req.BookingRequest); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		booking, err := creator.CreateBooking(r.Context(), &req.BookingRequest)

		var conflictErr *conflict.Error
		if errors.As(err, &conflictErr) {
			log.Info("Booking conflicts", slog.Any("report", conflictErr.Report))
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

		if errors.Is(err, response.ErrTimeout) {
			log.Error("Trainer calendar is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "trainer calendar is locked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.String("id", booking.ID), slog.String("status", booking.Status))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Booking: *booking})
	}
}
