package enroll

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
	"fitsync-schedule/internal/auth"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type SessionEnroller interface {
	EnrollGroupSession(ctx context.Context, sessionID, clientID string) (*api.GroupSessionResponse, error)
}

type Request struct {
	ClientID string `json:"client_id"`
}

type Response struct {
	response.Response
	Session api.GroupSessionResponse `json:"session,omitempty"`
}

func New(log *slog.Logger, enroller SessionEnroller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.enroll.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			log.Error("session_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "session_id is required"))
			return
		}

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		// With auth enabled the caller enrolls themselves.
		if req.ClientID == "" {
			if claims := auth.FromContext(r.Context()); claims != nil {
				req.ClientID = claims.UserID
			}
		}
		if req.ClientID == "" {
			log.Error("client_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "client_id is required"))
			return
		}

		session, err := enroller.EnrollGroupSession(r.Context(), sessionID, req.ClientID)

		if errors.Is(err, response.ErrSessionFull) {
			log.Info("Session is full", slog.String("id", sessionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.SESSION_FULL), "session is full"))
			return
		}

		if errors.Is(err, response.ErrAlreadyEnrolled) {
			log.Info("Client already enrolled", slog.String("id", sessionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.ALREADY_ENROLLED), "client is already enrolled"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Error("Session is not open for enrollment")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "session is not open for enrollment"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("Session not found", slog.String("id", sessionID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "session not found"))
			return
		}

		if errors.Is(err, response.ErrTimeout) {
			log.Error("Trainer calendar is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "trainer calendar is locked, try again"))
			return
		}

		if err != nil {
			log.Error("Failed to enroll in session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to enroll in session"))
			return
		}

		log.Info("Client enrolled",
			slog.String("session_id", session.ID),
			slog.String("client_id", req.ClientID),
		)

		render.JSON(w, r, Response{Session: *session})
	}
}
