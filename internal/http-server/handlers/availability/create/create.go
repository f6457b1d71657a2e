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
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type SlotCreator interface {
	CreateAvailabilitySlot(ctx context.Context, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.AvailabilityRequest
}

type Response struct {
	response.Response
	Slot api.AvailabilityResponse `json:"slot,omitempty"`
}

func New(log *slog.Logger, creator SlotCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.create.New"

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

		if err := validator.New().Struct(req.AvailabilityRequest); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		slot, err := creator.CreateAvailabilitySlot(r.Context(), &req.AvailabilityRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid slot payload", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid slot payload"))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("Slot overlaps an existing slot")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "slot overlaps an existing slot"))
			return
		}

		if errors.Is(err, response.ErrTimeout) {
			log.Error("Trainer calendar is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "trainer calendar is locked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to create availability slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create availability slot"))
			return
		}

		log.Info("Availability slot created", slog.String("id", slot.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Slot: *slot})
	}
}
