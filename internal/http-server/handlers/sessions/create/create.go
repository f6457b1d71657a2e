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

type SessionCreator interface {
	CreateGroupSession(ctx context.Context, req *api.GroupSessionRequest) (*api.GroupSessionResponse, error)
}

type Request struct {
	api.GroupSessionRequest
}

type Response struct {
	response.Response
	Session api.GroupSessionResponse `json:"session,omitempty"`
}

type ConflictResponse struct {
	response.Response
	Report conflict.Report `json:"conflict"`
}

func New(log *slog.Logger, creator SessionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.create.New"

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

		if err := validator.New().Struct(req.GroupSessionRequest); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("Invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		session, err := creator.CreateGroupSession(r.Context(), &req.GroupSessionRequest)

		var conflictErr *conflict.Error
		if errors.As(err, &conflictErr) {
			log.Info("Session conflicts", slog.Any("report", conflictErr.Report))
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
			log.Error("Failed to create group session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create group session"))
			return
		}

		log.Info("Group session created", slog.String("id", session.ID))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{Session: *session})
	}
}
