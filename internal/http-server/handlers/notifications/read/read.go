package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type NotificationReader interface {
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

func New(log *slog.Logger, reader NotificationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.read.New"

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

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		err := reader.MarkNotificationRead(r.Context(), id, userID)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("notification not found for user", slog.String("id", id), slog.String("user", userID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "notification not found"))
			return
		}

		if err != nil {
			log.Error("Failed to mark notification read", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to mark notification read"))
			return
		}

		log.Info("Notification marked read", slog.String("id", id), slog.String("user", userID))
		w.WriteHeader(http.StatusNoContent)
	}
}
