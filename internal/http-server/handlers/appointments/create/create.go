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

type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req *api.CreateAppointmentRequest) (*models.Appointment, error)
}

type Request struct {
	api.CreateAppointmentRequest
}

type Response struct {
	response.Response
	Appointment *models.Appointment `json:"appointment,omitempty"`
}

func New(log *slog.Logger, creator AppointmentCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.create.New"

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

		if req.PatientID == "" {
			log.Error("patientId is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "patientId is required"))
			return
		}

		if req.SlotID == "" {
			log.Error("slotId is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), "slotId is required"))
			return
		}

		appointment, err := creator.CreateAppointment(r.Context(), &req.CreateAppointmentRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Invalid appointment", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_FIELD), err.Error()))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("schedule or slot not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "schedule or slot not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create appointment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create appointment"))
			return
		}

		log.Info("Appointment created", slog.String("id", appointment.ID))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Appointment: appointment})
	}
}
