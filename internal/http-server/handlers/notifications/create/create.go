package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dental-dashboard/api"
	"dental-dashboard/internal/models"
	"dental-dashboard/pkg/response"
	"dental-dashboard/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *api.CreateNotificationRequest) (*models.Notification, error)
}

type Response struct {
	response.Response
	Notification *models.Notification `json:"notification,omitempty"`
}

func New(log *slog.Logger, creator NotificationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.notifications.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.CreateNotificationRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		n, err := creator.CreateNotification(r.Context(), &req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid notification", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "message and recipients are required"))
			return
		}

		if err != nil {
			log.Error("Failed to create notification", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create notification"))
			return
		}

		log.Info("Notification created", slog.String("id", n.ID), slog.Int("recipients", len(n.Viewers)))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Notification: n})
	}
}
