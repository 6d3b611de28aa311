package status

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
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type ScheduleStatusUpdater interface {
	UpdateScheduleStatus(ctx context.Context, id string, req *api.ScheduleStatusRequest) (*models.ScheduleEntry, error)
}

type Response struct {
	response.Response
	Schedule *models.ScheduleEntry `json:"schedule,omitempty"`
}

func New(log *slog.Logger, updater ScheduleStatusUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.status.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req api.ScheduleStatusRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		entry, err := updater.UpdateScheduleStatus(r.Context(), id, &req)

		if errors.Is(err, response.ErrInvalidStatus) {
			log.Error("Invalid status", slog.String("status", req.Status))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "invalid status"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			render.Status(r, http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "schedule is being updated"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to update schedule status", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update schedule status"))
			return
		}

		log.Info("Schedule status updated", slog.String("id", id), slog.String("status", string(entry.Status)))
		render.JSON(w, r, Response{Schedule: entry})
	}
}
