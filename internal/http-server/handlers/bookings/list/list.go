package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/models"
	"fitsync-schedule/pkg/response"
	"fitsync-schedule/pkg/sl"
)

type BookingLister interface {
	ListBookings(ctx context.Context, filters models.BookingFilters) ([]*api.BookingResponse, *api.Pagination, error)
}

type Response struct {
	response.Response
	Bookings   []*api.BookingResponse `json:"bookings"`
	Pagination api.Pagination         `json:"pagination"`
}

func New(log *slog.Logger, lister BookingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		filters, err := parseFilters(r)
		if err != nil {
			log.Error("Invalid query params", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), err.Error()))
			return
		}

		bookings, pagination, err := lister.ListBookings(r.Context(), filters)
		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		if bookings == nil {
			bookings = []*api.BookingResponse{}
		}

		render.JSON(w, r, Response{Bookings: bookings, Pagination: *pagination})
	}
}

func parseFilters(r *http.Request) (models.BookingFilters, error) {
	q := r.URL.Query()

	filters := models.BookingFilters{Page: 1, PerPage: 20}

	if v := q.Get("trainer_id"); v != "" {
		filters.TrainerID = &v
	}
	if v := q.Get("client_id"); v != "" {
		filters.ClientID = &v
	}
	if v := q.Get("status"); v != "" {
		status := models.BookingStatus(v)
		switch status {
		case models.BookingRequested, models.BookingConfirmed, models.BookingCancelled,
			models.BookingCompleted, models.BookingNoShow:
			filters.Status = &status
		default:
			return models.BookingFilters{}, errUnknownStatus
		}
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return models.BookingFilters{}, errBadPage
		}
		filters.Page = page
	}
	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > 100 {
			return models.BookingFilters{}, errBadPerPage
		}
		filters.PerPage = perPage
	}

	return filters, nil
}

var (
	errUnknownStatus = queryError("unknown status filter")
	errBadPage       = queryError("'page' must be a positive integer")
	errBadPerPage    = queryError("'per_page' must be between 1 and 100")
)

type queryError string

func (e queryError) Error() string { return string(e) }
