package create

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync-schedule/api"
	"fitsync-schedule/internal/conflict"
	"fitsync-schedule/pkg/response"
)

type stubCreator struct {
	resp *api.BookingResponse
	err  error
}

func (s *stubCreator) CreateBooking(_ context.Context, _ *api.BookingRequest) (*api.BookingResponse, error) {
	return s.resp, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, creator BookingCreator, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	New(discardLogger(), creator)(rec, req)

	return rec
}

const validBody = `{
	"trainer_id": "trainer-1",
	"client_id": "client-1",
	"start": "2025-03-03T09:00:00Z",
	"end": "2025-03-03T10:00:00Z"
}`

func TestCreateHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		creator := &stubCreator{resp: &api.BookingResponse{
			ID:        "b-1",
			TrainerID: "trainer-1",
			ClientID:  "client-1",
			Start:     time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
			End:       time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
			Status:    "CONFIRMED",
		}}

		rec := doRequest(t, creator, validBody)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "b-1", resp.Booking.ID)
		assert.Equal(t, "CONFIRMED", resp.Booking.Status)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := doRequest(t, &stubCreator{}, `{"trainer_id": "trainer-1"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		rec := doRequest(t, &stubCreator{}, `{not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict carries the report", func(t *testing.T) {
		creator := &stubCreator{err: fmt.Errorf("service.CreateBooking: %w", &conflict.Error{
			Report: conflict.Report{
				Conflicting: true,
				Reasons:     []conflict.Reason{{Type: conflict.ReasonOverlap, WithBookingID: "b-0"}},
			},
		})}

		rec := doRequest(t, creator, validBody)

		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp ConflictResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(response.CONFLICT), resp.Code)
		require.Len(t, resp.Report.Reasons, 1)
		assert.Equal(t, conflict.ReasonOverlap, resp.Report.Reasons[0].Type)
		assert.Equal(t, "b-0", resp.Report.Reasons[0].WithBookingID)
	})

	t.Run("invalid interval maps to bad request", func(t *testing.T) {
		creator := &stubCreator{err: fmt.Errorf("service.CreateBooking: %w", response.ErrInvalidInterval)}

		rec := doRequest(t, creator, validBody)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, string(response.INVALID_INTERVAL), resp.Code)
	})

	t.Run("lock timeout maps to locked", func(t *testing.T) {
		creator := &stubCreator{err: fmt.Errorf("service.CreateBooking: %w", response.ErrTimeout)}

		rec := doRequest(t, creator, validBody)

		assert.Equal(t, http.StatusLocked, rec.Code)
	})

	t.Run("unknown error maps to internal", func(t *testing.T) {
		creator := &stubCreator{err: fmt.Errorf("boom")}

		rec := doRequest(t, creator, validBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
