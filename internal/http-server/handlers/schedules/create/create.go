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

type ScheduleCreator interface {
	CreateSchedule(ctx context.Context, req *api.CreateScheduleRequest) (*models.ScheduleEntry, error)
}

type Request struct {
	api.CreateScheduleRequest
}

type Response struct {
	response.Response
	Schedule *models.ScheduleEntry `json:"schedule,omitempty"`
}

func New(log *slog.Logger, creator ScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.DoctorID == "" {
			log.Error("doctorId is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "doctorId is required"))
			return
		}

		entry, err := creator.CreateSchedule(r.Context(), &req.CreateScheduleRequest)

		if errors.Is(err, response.ErrBadRequest) || errors.Is(err, response.ErrInvalidStatus) {
			log.Error("Invalid schedule", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), err.Error()))
			return
		}

		if errors.Is(err, response.ErrConflict) {
			log.Error("Schedule already exists")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "schedule already exists"))
			return
		}

		if err != nil {
			log.Error("Failed to create schedule", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create schedule"))
			return
		}

		log.Info("Schedule created", slog.String("id", entry.ID), slog.String("doctor_id", entry.DoctorID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Schedule: entry})
	}
}
