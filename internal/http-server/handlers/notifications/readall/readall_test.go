package readall

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dental-dashboard/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResetter struct {
	mock.Mock
}

func (m *MockResetter) ResetNotificationCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func put(resetter CountResetter, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil)
	if userID != "" {
		req.Header.Set(api.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), resetter).ServeHTTP(w, req)
	return w
}

func TestResetNotificationCount(t *testing.T) {
	t.Run("marks everything read", func(t *testing.T) {
		resetter := new(MockResetter)
		resetter.On("ResetNotificationCount", mock.Anything, "u1").Return(int64(3), nil)

		w := put(resetter, "u1")

		require.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 3, resp.Updated)
		resetter.AssertExpectations(t)
	})

	t.Run("storage failure", func(t *testing.T) {
		resetter := new(MockResetter)
		resetter.On("ResetNotificationCount", mock.Anything, "u1").Return(int64(0), errors.New("db down"))

		w := put(resetter, "u1")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("requires user header", func(t *testing.T) {
		resetter := new(MockResetter)

		w := put(resetter, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resetter.AssertNotCalled(t, "ResetNotificationCount")
	})
}
