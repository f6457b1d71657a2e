package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/api"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type SlotProvider interface {
	GetTrainerAvailability(ctx context.Context, trainerID string) ([]*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	TrainerID string                      `json:"trainer_id"`
	Slots     []*api.AvailabilityResponse `json:"slots"`
}

func New(log *slog.Logger, provider SlotProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		trainerID := chi.URLParam(r, "trainerID")
		if trainerID == "" {
			log.Error("trainer_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "trainer_id is required"))
			return
		}

		slots, err := provider.GetTrainerAvailability(r.Context(), trainerID)
		if err != nil {
			log.Error("Failed to load trainer availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to load availability"))
			return
		}

		if slots == nil {
			slots = []*api.AvailabilityResponse{}
		}

		render.JSON(w, r, Response{TrainerID: trainerID, Slots: slots})
	}
}
