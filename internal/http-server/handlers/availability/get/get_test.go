package get

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dental-dashboard/api"
	"dental-dashboard/internal/models"
	"dental-dashboard/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGetter struct {
	mock.Mock
}

func (m *MockGetter) Availability(ctx context.Context, view schedule.View, doctorID string) api.AvailabilityResponse {
	args := m.Called(ctx, view, doctorID)
	return args.Get(0).(api.AvailabilityResponse)
}

func TestAvailability(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("defaults to the patient view", func(t *testing.T) {
		getter := new(MockGetter)
		getter.On("Availability", mock.Anything, schedule.PatientView, "").Return(api.AvailabilityResponse{
			View:  "patient",
			Dates: []string{"2025-06-20"},
			DailyAvailability: models.DailyAvailabilityMap{
				"2025-06-20": {{DoctorID: "A", Slot: models.TimeSlot{ID: "t1", Start: "09:00", End: "09:30", MaxPatientsPerSlot: 1}}},
			},
		})

		w := httptest.NewRecorder()
		New(log, getter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability", nil))

		require.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"2025-06-20"}, resp.Dates)
		assert.Len(t, resp.DailyAvailability["2025-06-20"], 1)
		getter.AssertExpectations(t)
	})

	t.Run("staff view for one doctor", func(t *testing.T) {
		getter := new(MockGetter)
		getter.On("Availability", mock.Anything, schedule.StaffView, "A").Return(api.AvailabilityResponse{View: "staff"})

		w := httptest.NewRecorder()
		New(log, getter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?view=staff&doctor_id=A", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		getter.AssertExpectations(t)
	})

	t.Run("unknown view", func(t *testing.T) {
		getter := new(MockGetter)

		w := httptest.NewRecorder()
		New(log, getter).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?view=admin", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		getter.AssertNotCalled(t, "Availability")
	})
}
