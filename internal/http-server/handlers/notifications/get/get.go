package get

import (
	"context"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type NotificationGetter interface {
	Notifications(ctx context.Context, userID string) api.NotificationsResponse
}

type Response struct {
	response.Response
	api.NotificationsResponse
}

func New(log *slog.Logger, getter NotificationGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.get.New"

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

		res := getter.Notifications(r.Context(), userID)

		log.Debug("Notifications retrieved",
			slog.String("user", userID),
			slog.Int("count", len(res.Notifications)),
			slog.Int("unread", res.Unread),
		)
		render.JSON(w, r, Response{NotificationsResponse: res})
	}
}
