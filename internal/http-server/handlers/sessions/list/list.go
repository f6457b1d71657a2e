package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/api"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type SessionLister interface {
	ListGroupSessions(ctx context.Context, page, perPage int) ([]*api.GroupSessionResponse, *api.Pagination, error)
}

type Response struct {
	response.Response
	Sessions   []*api.GroupSessionResponse `json:"sessions"`
	Pagination api.Pagination              `json:"pagination"`
}

func New(log *slog.Logger, lister SessionLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		page, perPage, ok := parsePaging(r)
		if !ok {
			log.Error("Invalid paging params")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid paging params"))
			return
		}

		sessions, pagination, err := lister.ListGroupSessions(r.Context(), page, perPage)
		if err != nil {
			log.Error("Failed to list group sessions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list group sessions"))
			return
		}

		if sessions == nil {
			sessions = []*api.GroupSessionResponse{}
		}

		render.JSON(w, r, Response{Sessions: sessions, Pagination: *pagination})
	}
}

func parsePaging(r *http.Request) (page, perPage int, ok bool) {
	page, perPage = 1, 20

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return 0, 0, false
		}
		perPage = n
	}

	return page, perPage, true
}
