package readall

import (
	"context"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type CountResetter interface {
	ResetNotificationCount(ctx context.Context, userID string) (int64, error)
}

type Response struct {
	response.Response
	Updated int64 `json:"updated"`
}

func New(log *slog.Logger, resetter CountResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.readall.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := r.Header.Get(api.UserIDHeader)
		if userID == "" {
			log.Error("user id header is empty")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.UNAUTHENTICATED), api.UserIDHeader+" is required"))
			return
		}

		updated, err := resetter.ResetNotificationCount(r.Context(), userID)
		if err != nil {
			log.Error("Failed to reset notification count", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reset notification count"))
			return
		}

		log.Info("Notification count reset", slog.String("user", userID), slog.Int64("updated", updated))
		render.JSON(w, r, Response{Updated: updated})
	}
}
