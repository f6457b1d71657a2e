package free

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/api"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type FreeIntervalsProvider interface {
	FreeIntervals(ctx context.Context, trainerID string, from, to time.Time) (*api.FreeIntervalsResponse, error)
}

type Response struct {
	response.Response
	api.FreeIntervalsResponse
}

func New(log *slog.Logger, provider FreeIntervalsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.free.New"

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

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			log.Error("Invalid 'from' query param", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "'from' must be RFC3339"))
			return
		}

		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			log.Error("Invalid 'to' query param", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "'to' must be RFC3339"))
			return
		}

		free, err := provider.FreeIntervals(r.Context(), trainerID, from, to)

		if errors.Is(err, response.ErrInvalidInterval) {
			log.Error("Invalid query window", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), "query window is not a valid interval"))
			return
		}

		if err != nil {
			log.Error("Failed to compute free intervals", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute free intervals"))
			return
		}

		render.JSON(w, r, Response{FreeIntervalsResponse: *free})
	}
}
