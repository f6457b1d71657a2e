package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type SlotDeactivator interface {
	DeleteAvailabilitySlot(ctx context.Context, id string) error
}

func New(log *slog.Logger, deactivator SlotDeactivator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "slotID")
		if id == "" {
			log.Error("slot_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "slot_id is required"))
			return
		}

		err := deactivator.DeleteAvailabilitySlot(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Slot not found", slog.String("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "slot not found"))
			return
		}

		if errors.Is(err, response.ErrTimeout) {
			log.Error("Trainer calendar is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "trainer calendar is locked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to deactivate slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to deactivate slot"))
			return
		}

		log.Info("Availability slot deactivated", slog.String("id", id))

		render.JSON(w, r, response.Response{})
	}
}
