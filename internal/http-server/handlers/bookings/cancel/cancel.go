package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/api"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type BookingCanceller interface {
	CancelBooking(ctx context.Context, bookingID string, req *api.BookingCancelRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingCancelRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, canceller BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "bookingID")
		if id == "" {
			log.Error("booking_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "booking_id is required"))
			return
		}

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		booking, err := canceller.CancelBooking(r.Context(), id, &req.BookingCancelRequest)

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("Booking is not cancellable", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "booking is not in a cancellable state"))
			return
		}

		if errors.Is(err, response.ErrStaleVersion) {
			log.Error("Stale booking version")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.STALE_VERSION), "booking was modified concurrently, re-read and retry"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Booking not found", slog.String("id", id))
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
			log.Error("Failed to cancel booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel booking"))
			return
		}

		log.Info("Booking cancelled", slog.String("id", booking.ID))

		render.JSON(w, r, Response{Booking: *booking})
	}
}
